package tagging

import (
	"fmt"
	"math/bits"
)

// Geometry describes how addresses map onto the sets of a cache.
type Geometry struct {
	LineSize      int
	NumSets       int
	Associativity int

	offsetBits int
	setBits    int
}

// NewGeometry derives the number of sets from the cache size. All the sizes
// must be powers of two.
func NewGeometry(cacheSize, lineSize, associativity int) (Geometry, error) {
	if !isPowerOfTwo(lineSize) {
		return Geometry{}, fmt.Errorf("line size %d is not a power of 2",
			lineSize)
	}

	if associativity <= 0 {
		return Geometry{}, fmt.Errorf("associativity %d is not positive",
			associativity)
	}

	if cacheSize <= 0 || cacheSize%(lineSize*associativity) != 0 {
		return Geometry{}, fmt.Errorf(
			"cache size %d is not a multiple of line size %d x %d ways",
			cacheSize, lineSize, associativity)
	}

	numSets := cacheSize / (lineSize * associativity)
	if !isPowerOfTwo(numSets) {
		return Geometry{}, fmt.Errorf("number of sets %d is not a power of 2",
			numSets)
	}

	return Geometry{
		LineSize:      lineSize,
		NumSets:       numSets,
		Associativity: associativity,
		offsetBits:    bits.TrailingZeros(uint(lineSize)),
		setBits:       bits.TrailingZeros(uint(numSets)),
	}, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Decompose splits an address into its tag, set index, and offset.
func (g Geometry) Decompose(addr uint64) (tag uint64, setIndex int, offset uint64) {
	offset = addr & uint64(g.LineSize-1)
	setIndex = int((addr >> g.offsetBits) & uint64(g.NumSets-1))
	tag = addr >> (g.offsetBits + g.setBits)

	return tag, setIndex, offset
}

// Compose rebuilds the line-aligned address of a tag stored in a set.
func (g Geometry) Compose(tag uint64, setIndex int) uint64 {
	return tag<<(g.offsetBits+g.setBits) | uint64(setIndex)<<g.offsetBits
}

// LineAddress aligns an address to the start of its line.
func (g Geometry) LineAddress(addr uint64) uint64 {
	return addr &^ uint64(g.LineSize-1)
}

// NumLines returns how many lines the cache holds.
func (g Geometry) NumLines() int {
	return g.NumSets * g.Associativity
}
