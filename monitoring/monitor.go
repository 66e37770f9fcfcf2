// Package monitoring turns a simulation run into a small web server so the
// run can be watched while it progresses.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/sim"
)

// Monitor exposes the progress and statistics of a running simulation over
// HTTP. It observes the run as a hook on the simulator; handlers only read
// snapshots, so the run itself stays single-threaded.
type Monitor struct {
	simulator  *sim.Simulator
	portNumber int
	listener   net.Listener

	progress *ProgressBar

	statsLock sync.Mutex
	stats     sim.Stats
}

// NewMonitor creates a new Monitor watching the given simulator.
func NewMonitor(simulator *sim.Simulator) *Monitor {
	m := &Monitor{
		simulator: simulator,
		progress: &ProgressBar{
			Name:      "records processed",
			StartTime: time.Now(),
		},
	}

	return m
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithTotalRecords tells the progress bar how many records the run has, when
// the trace length is known.
func (m *Monitor) WithTotalRecords(total uint64) *Monitor {
	m.progress.Total = total

	return m
}

// Func observes one processed access. It implements sim.Hook.
func (m *Monitor) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAccess {
		return
	}

	m.progress.IncrementFinished(1)

	m.statsLock.Lock()
	m.stats = m.simulator.Stats()
	m.statsLock.Unlock()
}

// StartServer starts the monitor as a web server and opens a browser tab
// pointing at it.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/progress", m.reportProgress)
	r.HandleFunc("/api/stats", m.reportStats)
	r.HandleFunc("/api/simulator", m.reportSimulator)
	r.HandleFunc("/api/resource", m.reportResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		serveErr := http.Serve(listener, nil)
		if !errors.Is(serveErr, net.ErrClosed) {
			log.Print(serveErr)
		}
	}()

	if err := browser.OpenURL(url); err != nil {
		log.Print(err)
	}
}

// StopServer stops accepting monitoring requests.
func (m *Monitor) StopServer() {
	if m.listener != nil {
		m.listener.Close()
	}
}

func (m *Monitor) reportProgress(w http.ResponseWriter, _ *http.Request) {
	snapshot := m.progress.Snapshot()

	bytes, err := json.Marshal(snapshot)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) reportStats(w http.ResponseWriter, _ *http.Request) {
	m.statsLock.Lock()
	stats := m.stats
	m.statsLock.Unlock()

	bytes, err := json.Marshal(stats)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) reportSimulator(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.simulator)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) reportResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	out, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(out)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
