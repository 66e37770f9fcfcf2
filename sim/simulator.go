// Package sim drives a set-associative cache model through a sequence of
// memory accesses, following a write-back, write-allocate policy with LRU
// replacement.
package sim

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sarchlab/cachesim/cache"
)

// ErrInvalidGeometry reports a geometry that cannot describe a cache.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// A Simulator owns a cache and its run statistics and processes one access
// at a time to completion. Hooks registered on the simulator fire once per
// processed record, in trace order, with an AccessResult as the item.
type Simulator struct {
	HookableBase

	geometry     cache.Geometry
	cache        *cache.Cache
	victimFinder cache.VictimFinder

	stats     Stats
	processed atomic.Uint64
}

// A Builder can build simulators.
type Builder struct {
	geometry     cache.Geometry
	victimFinder cache.VictimFinder
}

// MakeBuilder returns a builder with an LRU replacement policy as default.
func MakeBuilder() Builder {
	return Builder{
		victimFinder: cache.NewLRUVictimFinder(),
	}
}

// WithGeometry sets the cache geometry to simulate.
func (b Builder) WithGeometry(g cache.Geometry) Builder {
	b.geometry = g
	return b
}

// WithVictimFinder sets the replacement policy.
func (b Builder) WithVictimFinder(f cache.VictimFinder) Builder {
	b.victimFinder = f
	return b
}

// Build validates the geometry and creates the simulator. No simulation
// state is constructed for an invalid geometry.
func (b Builder) Build() (*Simulator, error) {
	if err := b.geometry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	s := &Simulator{
		geometry:     b.geometry,
		cache:        cache.New(b.geometry),
		victimFinder: b.victimFinder,
	}

	return s, nil
}

// Geometry returns the geometry being simulated.
func (s *Simulator) Geometry() cache.Geometry {
	return s.geometry
}

// Cache returns the simulated cache.
func (s *Simulator) Cache() *cache.Cache {
	return s.cache
}

// Stats returns a snapshot of the run statistics.
func (s *Simulator) Stats() Stats {
	return s.stats
}

// Processed returns the number of load/store records processed so far. It is
// safe to read while a run is in progress.
func (s *Simulator) Processed() uint64 {
	return s.processed.Load()
}

// Run drains the source, processing each record to completion before the
// next begins. A source error aborts the run.
func (s *Simulator) Run(src Source) error {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		s.Access(rec)
	}
}

// Access runs one memory access through the cache and reports what happened.
// Records that are neither loads nor stores leave the simulator untouched.
func (s *Simulator) Access(rec Record) AccessResult {
	if rec.Op != OpLoad && rec.Op != OpStore {
		return AccessResult{Record: rec}
	}

	tag, setID := s.geometry.Decode(rec.Addr)

	result := AccessResult{Record: rec, Processed: true}
	if wayID, ok := s.cache.Lookup(setID, tag); ok {
		result.Outcome = OutcomeHit
		s.hit(setID, wayID, rec.Op)
	} else {
		result.Outcome = OutcomeMiss
		result.Evicted = s.install(setID, tag, rec.Op)
	}

	s.processed.Add(1)
	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosAccess, Item: result})

	return result
}

func (s *Simulator) hit(setID, wayID int, op Op) {
	s.stats.Hits++
	s.cache.Visit(setID, wayID)

	if op != OpStore {
		return
	}

	// A line's dirty contribution is counted once, not once per store.
	line := s.cache.Line(setID, wayID)
	if !line.Dirty {
		line.Dirty = true
		s.stats.DirtyBytes += s.geometry.BlockSize()
	}
}

func (s *Simulator) install(setID int, tag uint64, op Op) (evicted bool) {
	s.stats.Misses++

	wayID, ok := s.cache.FreeWay(setID)
	if !ok {
		wayID = s.victimFinder.FindVictim(s.cache.Set(setID))
		s.evict(setID, wayID)
		evicted = true
	}

	line := s.cache.Line(setID, wayID)
	line.Valid = true
	line.Tag = tag
	line.Dirty = false
	s.cache.Visit(setID, wayID)

	if op == OpStore {
		line.Dirty = true
		s.stats.DirtyBytes += s.geometry.BlockSize()
	}

	return evicted
}

func (s *Simulator) evict(setID, wayID int) {
	s.stats.Evictions++

	line := s.cache.Line(setID, wayID)
	if line.Dirty {
		s.stats.DirtyEvictions += s.geometry.BlockSize()
		s.stats.DirtyBytes -= s.geometry.BlockSize()
		line.Dirty = false
	}
}
