package datarecording

import "github.com/sarchlab/cachesim/sim"

// An AccessEntry is one processed trace record in the run database.
type AccessEntry struct {
	Seq     uint64
	Op      string
	Addr    uint64
	Size    int
	Outcome string
	Evicted bool
}

// A StatsEntry is the final counter snapshot of a run.
type StatsEntry struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	DirtyBytes     uint64
	DirtyEvictions uint64
}

// A RunLogger is a hook that records every processed access of a simulation
// run, plus the final statistics.
type RunLogger struct {
	recorder DataRecorder
	seq      uint64
}

// NewRunLogger creates the run tables and returns a logger that fills them.
func NewRunLogger(recorder DataRecorder) *RunLogger {
	recorder.CreateTable("accesses", AccessEntry{})
	recorder.CreateTable("stats", StatsEntry{})

	return &RunLogger{recorder: recorder}
}

// Func records one access result. It implements sim.Hook.
func (l *RunLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAccess {
		return
	}

	result, ok := ctx.Item.(sim.AccessResult)
	if !ok {
		return
	}

	l.seq++
	l.recorder.InsertData("accesses", AccessEntry{
		Seq:     l.seq,
		Op:      string(rune(result.Op)),
		Addr:    result.Addr,
		Size:    result.Size,
		Outcome: result.Outcome.String(),
		Evicted: result.Evicted,
	})
}

// RecordStats writes the final statistics row of the run.
func (l *RunLogger) RecordStats(stats sim.Stats) {
	l.recorder.InsertData("stats", StatsEntry{
		Hits:           stats.Hits,
		Misses:         stats.Misses,
		Evictions:      stats.Evictions,
		DirtyBytes:     stats.DirtyBytes,
		DirtyEvictions: stats.DirtyEvictions,
	})
}
