package cache

// A VictimFinder decides which line should be evicted from a full set.
type VictimFinder interface {
	FindVictim(set *Set) (wayID int)
}

// LRUVictimFinder evicts the least recently used line in a set.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	f := new(LRUVictimFinder)
	return f
}

// FindVictim returns the way holding the stalest line in the set. Among
// lines of equal maximal age, the lowest way wins.
func (f *LRUVictimFinder) FindVictim(set *Set) int {
	victim := 0
	for i := range set.Lines {
		if set.Lines[i].LastUsed > set.Lines[victim].LastUsed {
			victim = i
		}
	}

	return victim
}
