package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far a simulation run has advanced. Total is zero
// when the number of trace records is not known up front.
type ProgressBar struct {
	sync.Mutex
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// A ProgressSnapshot is a point-in-time copy of a ProgressBar, safe to
// serialize while the run advances.
type ProgressSnapshot struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished count.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Snapshot returns a point-in-time copy of the bar.
func (b *ProgressBar) Snapshot() ProgressSnapshot {
	b.Lock()
	defer b.Unlock()

	return ProgressSnapshot{
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}
