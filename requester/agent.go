// Package requester provides the agents that drive the L1 caches with memory
// accesses.
package requester

import (
	"log"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache/l1"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

// An Op is one memory access an agent performs.
type Op struct {
	Address uint64
	Command mem.Command
	Length  int

	// Data is written for write accesses. It may be shorter than Length.
	Data []byte
}

// A Completion records a finished access.
type Completion struct {
	Op

	Result       []byte
	IssueTime    sim.VTimeInCycle
	CompleteTime sim.VTimeInCycle
	FastComplete bool
}

// Latency returns the number of cycles the access took.
func (c Completion) Latency() sim.VTimeInCycle {
	return c.CompleteTime - c.IssueTime
}

// A Cache is what an agent submits its accesses to.
type Cache interface {
	mem.ForwardHandler
	SubmitTransaction(trans *mem.Transaction) l1.SubmitResult
}

// Agent issues a list of accesses to an L1 cache, one at a time.
type Agent struct {
	*sim.TickingComponent

	cache         Cache
	ops           []Op
	issueInterval sim.VTimeInCycle
	nextIssueTime sim.VTimeInCycle

	pending        *mem.Transaction
	pendingOp      Op
	pendingSince   sim.VTimeInCycle
	awaitingEndReq bool

	Completions []Completion
	Retries     uint64
}

// SetCache sets the L1 cache the agent submits to.
func (a *Agent) SetCache(cache Cache) {
	a.cache = cache
}

// Enqueue adds accesses to the end of the list.
func (a *Agent) Enqueue(ops ...Op) {
	a.ops = append(a.ops, ops...)
	a.TickLater()
}

// Done tells if every access has completed.
func (a *Agent) Done() bool {
	return len(a.ops) == 0 && a.pending == nil
}

// AwaitingRequestEnd tells if the pending access has not been taken over by
// the cache yet.
func (a *Agent) AwaitingRequestEnd() bool {
	return a.awaitingEndReq
}

// HasPending tells if an access has been handed to the cache and has not
// completed yet.
func (a *Agent) HasPending() bool {
	return a.pending != nil
}

// NumLeft returns the number of accesses not yet submitted.
func (a *Agent) NumLeft() int {
	return len(a.ops)
}

// Tick submits the next access.
func (a *Agent) Tick() bool {
	if a.pending != nil || len(a.ops) == 0 {
		return false
	}

	now := a.CurrentTime()
	if now < a.nextIssueTime {
		return true
	}

	op := a.ops[0]
	trans := newTransaction(op)
	result := a.cache.SubmitTransaction(trans)

	switch result.Status {
	case l1.FastComplete:
		a.ops = a.ops[1:]
		a.Completions = append(a.Completions, Completion{
			Op:           op,
			Result:       result.Data,
			IssueTime:    now,
			CompleteTime: now + result.Latency,
			FastComplete: true,
		})
		a.nextIssueTime = now + max(result.Latency, a.issueInterval)
	case l1.Queued:
		a.ops = a.ops[1:]
		a.pending = trans
		a.pendingOp = op
		a.pendingSince = now
		a.awaitingEndReq = true

		tracing.StartTask(tracing.ReqOutTaskID(trans.ID), "",
			a, "req_out", op.Command.String(), trans)
	case l1.Rejected:
		a.Retries++
		a.nextIssueTime = now + 1
	}

	return true
}

func newTransaction(op Op) *mem.Transaction {
	kind := mem.OpLoad
	if op.Command == mem.CmdWrite {
		kind = mem.OpStore
	}

	trans := mem.NewTransaction(op.Address, op.Command, op.Length,
		mem.Tags{OpKind: kind, PipelineKind: mem.PipelineMSHRFill})
	copy(trans.Data, op.Data)

	return trans
}

// Handle delivers Response-End to the cache.
func (a *Agent) Handle(e sim.Event) error {
	evt, ok := e.(*mem.PhaseEvent)
	if !ok {
		return a.TickingComponent.Handle(e)
	}

	a.cache.HandleForward(evt.Trans, evt.Phase)

	return nil
}

// HandleBackward receives Request-End and Response-Begin from the cache.
func (a *Agent) HandleBackward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveTags(trans, a.Name())

	if trans != a.pending {
		log.Panicf("%s: phase %s for %s that is not pending",
			a.Name(), phase, trans.ID)
	}

	switch phase {
	case mem.EndReq:
		a.awaitingEndReq = false
	case mem.BeginResp:
		a.complete(trans)
	default:
		log.Panicf("%s: phase %s cannot travel backward", a.Name(), phase)
	}

	return mem.Accepted
}

func (a *Agent) complete(trans *mem.Transaction) {
	now := a.CurrentTime()

	a.Completions = append(a.Completions, Completion{
		Op:           a.pendingOp,
		Result:       trans.Data,
		IssueTime:    a.pendingSince,
		CompleteTime: now,
	})

	tracing.EndTask(tracing.ReqOutTaskID(trans.ID), a)
	mem.SchedulePhase(a.Engine, a, trans, mem.EndResp, 0)

	a.pending = nil
	a.nextIssueTime = now + a.issueInterval
	a.TickLater()
}
