// Package mshr tracks the misses and write-backs a cache has sent downstream
// and not yet seen answered.
package mshr

import (
	"errors"
	"fmt"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
)

// ErrFull is returned when all the entries are occupied.
var ErrFull = errors.New("trying to add to a full MSHR")

// ErrAddressPending is returned when the address already has a pending entry.
var ErrAddressPending = errors.New(
	"trying to add an address that is already in MSHR")

// Kind is the type of the request an entry tracks.
type Kind int

// A list of all request kinds.
const (
	KindRead Kind = iota
	KindWrite
	KindWriteback
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindWriteback:
		return "writeback"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Snoop is a coherence action that hit a line while its fill was in flight.
// It is applied once the fill is installed.
type Snoop int

// A list of all snoops, weakest first.
const (
	SnoopNone Snoop = iota
	SnoopDowngrade
	SnoopInvalidate
)

// An Entry is one miss status holding register.
type Entry struct {
	Address   uint64
	Kind      Kind
	IssueTime sim.VTimeInCycle

	// Trans is the transaction waiting for the entry to resolve.
	Trans *mem.Transaction

	Pending bool
	Issued  bool

	// Taken is set once the next level has taken over the request.
	Taken bool
	Snoop Snoop
}

// Table is a fixed-size MSHR table.
type Table struct {
	entries []Entry
}

// NewTable creates a table with the given number of entries.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		panic("MSHR capacity must be positive")
	}

	return &Table{entries: make([]Entry, capacity)}
}

// Capacity returns the number of entries.
func (t *Table) Capacity() int {
	return len(t.entries)
}

// Allocate takes a free entry for the address. It never overwrites a pending
// entry and never allows two pending entries for the same address.
func (t *Table) Allocate(
	addr uint64,
	kind Kind,
	trans *mem.Transaction,
	now sim.VTimeInCycle,
) (int, error) {
	if _, found := t.FindByAddress(addr); found {
		return 0, ErrAddressPending
	}

	for i := range t.entries {
		if t.entries[i].Pending {
			continue
		}

		t.entries[i] = Entry{
			Address:   addr,
			Kind:      kind,
			IssueTime: now,
			Trans:     trans,
			Pending:   true,
		}

		return i, nil
	}

	return 0, ErrFull
}

// FindByAddress returns the pending entry of the address.
func (t *Table) FindByAddress(addr uint64) (int, bool) {
	for i, e := range t.entries {
		if e.Pending && e.Address == addr {
			return i, true
		}
	}

	return 0, false
}

// Entry returns a copy of an entry.
func (t *Table) Entry(index int) Entry {
	return t.entries[index]
}

// Free releases an entry.
func (t *Table) Free(index int) error {
	if !t.entries[index].Pending {
		return fmt.Errorf("trying to free MSHR entry %d that is not pending",
			index)
	}

	t.entries[index] = Entry{}

	return nil
}

// NextUnissued returns the oldest pending entry that has not been sent
// downstream.
func (t *Table) NextUnissued() (int, bool) {
	found := false
	oldest := 0

	for i, e := range t.entries {
		if !e.Pending || e.Issued {
			continue
		}

		if !found || e.IssueTime < t.entries[oldest].IssueTime {
			oldest = i
			found = true
		}
	}

	return oldest, found
}

// MarkIssued records that the entry has been sent downstream.
func (t *Table) MarkIssued(index int) {
	t.entries[index].Issued = true
}

// MarkTaken records that the next level has taken over the request.
func (t *Table) MarkTaken(index int) {
	t.entries[index].Taken = true
}

// RecordSnoop remembers a snoop for the entry. A weaker snoop never replaces
// a stronger one.
func (t *Table) RecordSnoop(index int, snoop Snoop) {
	if snoop > t.entries[index].Snoop {
		t.entries[index].Snoop = snoop
	}
}

// NumPending returns the number of occupied entries.
func (t *Table) NumPending() int {
	n := 0

	for _, e := range t.entries {
		if e.Pending {
			n++
		}
	}

	return n
}

// NumFills returns the number of occupied entries that wait for a line.
func (t *Table) NumFills() int {
	n := 0

	for _, e := range t.entries {
		if e.Pending && e.Kind != KindWriteback {
			n++
		}
	}

	return n
}

// CountAddress returns the number of pending entries for the address.
func (t *Table) CountAddress(addr uint64) int {
	n := 0

	for _, e := range t.entries {
		if e.Pending && e.Address == addr {
			n++
		}
	}

	return n
}

// IsFull tells if no entry can be allocated.
func (t *Table) IsFull() bool {
	return t.NumPending() == len(t.entries)
}

// Reset frees all the entries.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
}
