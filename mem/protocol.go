// Package mem defines the transactions and the four-phase handshake that flow
// between requesters, caches, the bus, and memory.
package mem

import (
	"fmt"
	"log"

	"github.com/sarchlab/msisim/sim"
)

// Command is what the transaction asks the memory system to do.
type Command int

// A list of all commands.
const (
	CmdRead Command = iota
	CmdWrite
)

func (c Command) String() string {
	switch c {
	case CmdRead:
		return "read"
	case CmdWrite:
		return "write"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// OpKind is the memory-operation kind recorded in the tag record. The zero
// value means no tag record has been attached.
type OpKind int

// A list of all operation kinds.
const (
	OpUnknown OpKind = iota
	OpLoad
	OpStore
	OpInvalidate
)

func (k OpKind) String() string {
	switch k {
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

// PipelineKind tells a normal miss fill apart from an explicit write-back.
type PipelineKind int

// A list of all pipeline kinds.
const (
	PipelineUnknown PipelineKind = iota
	PipelineMSHRFill
	PipelineWriteback
)

func (k PipelineKind) String() string {
	switch k {
	case PipelineMSHRFill:
		return "mshr_fill"
	case PipelineWriteback:
		return "writeback"
	default:
		return "unknown"
	}
}

// Tags is the tag record every transaction carries from Request-Begin on.
type Tags struct {
	OpKind       OpKind
	PipelineKind PipelineKind

	// SourceID is only meaningful when HasSourceID is set. The bus stamps it.
	SourceID    int
	HasSourceID bool
}

// Attached tells if the tag record has been filled.
func (t Tags) Attached() bool {
	return t.OpKind != OpUnknown && t.PipelineKind != PipelineUnknown
}

// WithSource returns a copy of the tag record that carries the source ID.
func (t Tags) WithSource(id int) Tags {
	t.SourceID = id
	t.HasSourceID = true

	return t
}

// ResponseStatus reports whether a transaction has been served.
type ResponseStatus int

// A list of all response status.
const (
	RespIncomplete ResponseStatus = iota
	RespOK
)

// A Transaction is the unit of work flowing through the memory hierarchy.
type Transaction struct {
	ID        string
	Address   uint64
	Command   Command
	Data      []byte
	Length    int
	Status    ResponseStatus
	Tags      Tags
	IssueTime sim.VTimeInCycle

	// RequestEndTime is the cycle the receiver sends Request-End at. It stays
	// zero for requests that never get one.
	RequestEndTime sim.VTimeInCycle
}

// NewTransaction creates a transaction with a fresh ID and a data buffer of
// the given length.
func NewTransaction(
	address uint64,
	cmd Command,
	length int,
	tags Tags,
) *Transaction {
	return &Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: address,
		Command: cmd,
		Data:    make([]byte, length),
		Length:  length,
		Tags:    tags,
	}
}

// IsRead tells if the transaction reads data.
func (t *Transaction) IsRead() bool {
	return t.Command == CmdRead
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s@0x%x (%s, %s)",
		t.ID, t.Command, t.Address, t.Tags.OpKind, t.Tags.PipelineKind)
}

// MustHaveTags halts the simulation if the transaction travels without its tag
// record.
func MustHaveTags(trans *Transaction, where string) {
	if trans == nil {
		log.Panicf("%s: nil transaction", where)
	}

	if !trans.Tags.Attached() {
		log.Panicf("%s: transaction %s arrived without a tag record",
			where, trans.ID)
	}
}

// MustHaveSource halts the simulation if the transaction does not carry the
// identity of its requester.
func MustHaveSource(trans *Transaction, where string) {
	MustHaveTags(trans, where)

	if !trans.Tags.HasSourceID {
		log.Panicf("%s: transaction %s arrived without a source ID",
			where, trans.ID)
	}
}
