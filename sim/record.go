package sim

import "fmt"

// Op is the kind of memory access a trace record describes. The values
// mirror the one-letter tags used in trace files.
type Op byte

const (
	// OpLoad reads from memory.
	OpLoad Op = 'L'

	// OpStore writes to memory.
	OpStore Op = 'S'
)

// A Record is one memory-access event from a trace. Size is the number of
// bytes touched at Addr; it is carried for reporting but does not influence
// hit/miss behavior.
type Record struct {
	Op   Op
	Addr uint64
	Size int
}

// A Source supplies trace records in order. Next returns io.EOF after the
// last record.
type Source interface {
	Next() (Record, error)
	Close() error
}

// Outcome tells whether an access found its block in the cache.
type Outcome int

const (
	// OutcomeNone marks a record the simulator did not process.
	OutcomeNone Outcome = iota

	// OutcomeHit marks an access that found its block resident.
	OutcomeHit

	// OutcomeMiss marks an access whose block had to be installed.
	OutcomeMiss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	default:
		return "ignored"
	}
}

// An AccessResult describes what one trace record did to the cache.
// Processed is false for records whose operation the simulator does not
// model; such records change nothing.
type AccessResult struct {
	Record

	Processed bool
	Outcome   Outcome
	Evicted   bool
}

func (r AccessResult) String() string {
	s := fmt.Sprintf("%c %x,%d", r.Op, r.Addr, r.Size)

	if !r.Processed {
		return s
	}

	s += " " + r.Outcome.String()
	if r.Evicted {
		s += " eviction"
	}

	return s
}

// Stats accumulates the outcome counters of one simulation run. DirtyBytes
// is the number of bytes currently dirty in the cache; DirtyEvictions is the
// cumulative number of dirty bytes written back on eviction.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	DirtyBytes     uint64
	DirtyEvictions uint64
}
