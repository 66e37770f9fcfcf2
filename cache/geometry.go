// Package cache models the tag state of a set-associative cache.
package cache

import "fmt"

// Geometry describes how a cache is organized. A cache has 2^SetBits sets,
// Ways lines per set, and 2^BlockBits bytes per block.
type Geometry struct {
	SetBits   int
	Ways      int
	BlockBits int
}

// Validate checks that the geometry describes a buildable cache.
func (g Geometry) Validate() error {
	if g.SetBits < 0 {
		return fmt.Errorf("set-index bits must be non-negative, got %d",
			g.SetBits)
	}

	if g.Ways < 1 {
		return fmt.Errorf("associativity must be at least 1, got %d", g.Ways)
	}

	if g.BlockBits < 0 {
		return fmt.Errorf("block-offset bits must be non-negative, got %d",
			g.BlockBits)
	}

	if g.SetBits+g.BlockBits > 64 {
		return fmt.Errorf(
			"set-index and block-offset bits exceed the 64-bit address, "+
				"got s=%d b=%d", g.SetBits, g.BlockBits)
	}

	return nil
}

// NumSets returns the number of sets in the cache.
func (g Geometry) NumSets() int {
	return 1 << g.SetBits
}

// BlockSize returns the number of bytes in one block.
func (g Geometry) BlockSize() uint64 {
	return 1 << g.BlockBits
}

// TotalSize returns the maximum number of bytes the cache can hold.
func (g Geometry) TotalSize() uint64 {
	return uint64(g.NumSets()) * uint64(g.Ways) * g.BlockSize()
}

// Decode splits an address into its tag and the index of the set the address
// maps to. The block offset only selects a byte within a block and plays no
// role in line matching.
func (g Geometry) Decode(addr uint64) (tag uint64, setID int) {
	tagShift := uint(g.SetBits + g.BlockBits)
	if tagShift >= 64 {
		// The set index and block offset consume the whole address,
		// leaving no tag bits.
		tag = 0
	} else {
		tag = addr >> tagShift
	}

	setID = int((addr >> uint(g.BlockBits)) & uint64(g.NumSets()-1))

	return tag, setID
}
