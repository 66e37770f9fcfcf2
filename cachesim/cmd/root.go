// Package cmd provides the command-line interface for the cache simulator.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/trace"
)

var (
	setBits       int
	associativity int
	blockBits     int
	traceFile     string
	verbose       bool
	record        bool
	recordDB      string
	monitorOn     bool
	monitorPort   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "cachesim -s <s> -E <E> -b <b> -t <trace>",
	Short: "cachesim replays a memory trace against a set-associative " +
		"cache model.",
	Long: `cachesim replays a memory trace against a set-associative cache ` +
		`model with LRU replacement and a write-back, write-allocate write ` +
		`policy, and reports hits, misses, evictions, and dirty-byte ` +
		`accounting.`,
	SilenceUsage: true,
	RunE:         runSimulation,
}

// Execute parses the command line and runs the simulation.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.Flags().IntVarP(&setBits, "set-bits", "s", 0,
		"Number of set index bits (there are 2**s sets)")
	rootCmd.Flags().IntVarP(&associativity, "associativity", "E", 0,
		"Number of lines per set")
	rootCmd.Flags().IntVarP(&blockBits, "block-bits", "b", 0,
		"Number of block offset bits (there are 2**b bytes per block)")
	rootCmd.Flags().StringVarP(&traceFile, "trace", "t", "",
		"File name of the memory trace to process")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Report the effect of each memory operation")
	rootCmd.Flags().BoolVar(&record, "record", false,
		"Record every access and the final stats into a SQLite database")
	rootCmd.Flags().StringVar(&recordDB, "record-db", "",
		"Name of the recording database (default: run-unique)")
	rootCmd.Flags().BoolVar(&monitorOn, "monitor", false,
		"Serve live run progress and stats over HTTP")
	rootCmd.Flags().IntVar(&monitorPort, "port", 0,
		"Port for the monitoring server (default: random)")

	rootCmd.MarkFlagRequired("set-bits")
	rootCmd.MarkFlagRequired("associativity")
	rootCmd.MarkFlagRequired("block-bits")
	rootCmd.MarkFlagRequired("trace")
}

func runSimulation(_ *cobra.Command, _ []string) error {
	loadEnvDefaults()

	simulator, err := sim.MakeBuilder().
		WithGeometry(cache.Geometry{
			SetBits:   setBits,
			Ways:      associativity,
			BlockBits: blockBits,
		}).
		Build()
	if err != nil {
		return err
	}

	source, err := trace.NewFileSource(traceFile)
	if err != nil {
		return err
	}
	defer source.Close()

	if verbose {
		logger := sim.NewAccessLogger(log.New(os.Stdout, "", 0))
		simulator.AcceptHook(logger)
	}

	var runLogger *datarecording.RunLogger
	if record {
		recorder := datarecording.New(recordDB)
		defer recorder.Close()

		runLogger = datarecording.NewRunLogger(recorder)
		simulator.AcceptHook(runLogger)
	}

	if monitorOn {
		monitor := monitoring.NewMonitor(simulator)
		if monitorPort != 0 {
			monitor = monitor.WithPortNumber(monitorPort)
		}
		simulator.AcceptHook(monitor)
		monitor.StartServer()
		defer monitor.StopServer()
	}

	if err := simulator.Run(source); err != nil {
		return err
	}

	if runLogger != nil {
		runLogger.RecordStats(simulator.Stats())
	}

	printSummary(simulator.Stats())

	return nil
}

func loadEnvDefaults() {
	// A missing .env file is fine; flags win over the environment.
	_ = godotenv.Load()

	if recordDB == "" {
		recordDB = os.Getenv("CACHESIM_RECORD_DB")
	}
}

func printSummary(stats sim.Stats) {
	fmt.Printf(
		"hits:%d misses:%d evictions:%d "+
			"dirty_bytes_in_cache:%d dirty_bytes_evicted:%d\n",
		stats.Hits,
		stats.Misses,
		stats.Evictions,
		stats.DirtyBytes,
		stats.DirtyEvictions,
	)
}
