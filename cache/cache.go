package cache

// A Line is the state associated with one cache slot (a way): whether the
// slot is in use, which tag it holds, whether its block has been written but
// not yet written back, and how long ago it was last touched.
type Line struct {
	Valid    bool
	Tag      uint64
	Dirty    bool
	LastUsed uint64
}

// A Set is a group of lines where a certain block of memory can be stored.
// Lines are kept in storage order; recency is tracked by the LastUsed
// counters, not by reordering.
type Set struct {
	Lines []Line
}

// A Cache is the full tag array, built once from a geometry and never
// resized.
type Cache struct {
	geometry Geometry
	sets     []Set
}

// New builds a cache with all lines invalid, clean, and of zero recency.
// The geometry must already be validated.
func New(geometry Geometry) *Cache {
	c := &Cache{geometry: geometry}
	c.Reset()

	return c
}

// Geometry returns the geometry the cache was built with.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Reset marks every line in the cache invalid and clears its tag, dirty
// flag, and recency counter.
func (c *Cache) Reset() {
	c.sets = make([]Set, c.geometry.NumSets())
	for i := range c.sets {
		c.sets[i].Lines = make([]Line, c.geometry.Ways)
	}
}

// Set returns the set at the given index.
func (c *Cache) Set(setID int) *Set {
	return &c.sets[setID]
}

// Line returns the line at the given set and way.
func (c *Cache) Line(setID, wayID int) *Line {
	return &c.sets[setID].Lines[wayID]
}

// Lookup finds the way within a set that holds the given tag. The scan stops
// at the first valid line with a matching tag; valid lines within a set hold
// unique tags.
func (c *Cache) Lookup(setID int, tag uint64) (wayID int, ok bool) {
	set := &c.sets[setID]
	for i := range set.Lines {
		if set.Lines[i].Valid && set.Lines[i].Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// FreeWay returns the lowest-index invalid line in a set, if any.
func (c *Cache) FreeWay(setID int) (wayID int, ok bool) {
	set := &c.sets[setID]
	for i := range set.Lines {
		if !set.Lines[i].Valid {
			return i, true
		}
	}

	return 0, false
}

// Visit marks a line as most recently used. The touched line's counter drops
// to zero and every other line in the same set ages by one.
func (c *Cache) Visit(setID, wayID int) {
	set := &c.sets[setID]
	for i := range set.Lines {
		if i == wayID {
			set.Lines[i].LastUsed = 0
		} else {
			set.Lines[i].LastUsed++
		}
	}
}
