package tagging

import "fmt"

// A VictimFinder decides which line of a set should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) int
}

// NewVictimFinder returns the victim finder of the given policy name.
func NewVictimFinder(policy string) (VictimFinder, error) {
	switch policy {
	case "", "lru":
		return NewLRUVictimFinder(), nil
	case "fixed":
		return NewFixedVictimFinder(), nil
	default:
		return nil, fmt.Errorf("unknown victim policy %q", policy)
	}
}

// LRUVictimFinder evicts the least recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the first invalid line in LRU order, or the least
// recently used line if all lines are valid.
func (e *LRUVictimFinder) FindVictim(set *Set) int {
	for _, way := range set.LRUQueue {
		if !set.Lines[way].IsValid {
			return way
		}
	}

	return set.LRUQueue[0]
}

// FixedVictimFinder evicts way 0 once the set is full.
type FixedVictimFinder struct {
}

// NewFixedVictimFinder creates a FixedVictimFinder.
func NewFixedVictimFinder() *FixedVictimFinder {
	return new(FixedVictimFinder)
}

// FindVictim returns the first invalid way, or way 0.
func (e *FixedVictimFinder) FindVictim(set *Set) int {
	for way, line := range set.Lines {
		if !line.IsValid {
			return way
		}
	}

	return 0
}
