// Package l1 implements the private first-level cache that sits between a
// requester and the bus.
package l1

import (
	"log"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
	"github.com/sarchlab/msisim/mem/cache/internal/tagging"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

// SubmitStatus is the immediate outcome of a submission.
type SubmitStatus int

// A list of all submission outcomes.
const (
	// FastComplete means the access hit and its result is already available.
	FastComplete SubmitStatus = iota

	// Queued means the access missed and the result is delivered later with a
	// Response-Begin.
	Queued

	// Rejected means the access cannot be taken now. Nothing has changed and
	// the caller may retry.
	Rejected
)

func (s SubmitStatus) String() string {
	switch s {
	case FastComplete:
		return "FastComplete"
	case Queued:
		return "Queued"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// SubmitResult is what Submit returns.
type SubmitResult struct {
	Status SubmitStatus
	Trans  *mem.Transaction

	// Data and Latency are only set for FastComplete.
	Data    []byte
	Latency sim.VTimeInCycle
}

// Comp is an L1 cache.
type Comp struct {
	*sim.TickingComponent

	core *cache.Core
	top  mem.BackwardHandler
	bus  mem.ForwardHandler

	// inflight holds the requests whose response has been delivered and not
	// yet acknowledged by the requester.
	inflight map[string]*mem.Transaction
}

// Tick sends requests and write-backs to the bus.
func (c *Comp) Tick() bool {
	return c.core.Tick()
}

// Handle delivers the phases this cache has scheduled. Tick events go to the
// embedded ticking component.
func (c *Comp) Handle(e sim.Event) error {
	evt, ok := e.(*mem.PhaseEvent)
	if !ok {
		return c.TickingComponent.Handle(e)
	}

	if evt.Phase.IsForward() {
		c.bus.HandleForward(evt.Trans, evt.Phase)
	} else {
		c.top.HandleBackward(evt.Trans, evt.Phase)
	}

	return nil
}

// SetTop sets the requester that receives the responses.
func (c *Comp) SetTop(top mem.BackwardHandler) {
	c.top = top
}

// SetBottom sets the bus port the cache sends its requests to.
func (c *Comp) SetBottom(bus mem.ForwardHandler) {
	c.bus = bus
	c.core.SetBottom(bus)
}

// Stats returns the counters of the cache.
func (c *Comp) Stats() cache.Stats {
	return c.core.Stats
}

// State returns the MSI state of the line holding the address.
func (c *Comp) State(addr uint64) cache.State {
	return c.core.State(addr)
}

// MSHROccupancy returns the number of pending MSHR entries.
func (c *Comp) MSHROccupancy() int {
	return c.core.MSHROccupancy()
}

// NumPendingFor returns the number of pending MSHR entries for the line of the
// address.
func (c *Comp) NumPendingFor(addr uint64) int {
	return c.core.NumPendingFor(addr)
}

// WritebackQueueSize returns the number of write-backs not yet sent.
func (c *Comp) WritebackQueueSize() int {
	return c.core.WritebackQueueSize()
}

// NumInflight returns the number of responses awaiting acknowledgment.
func (c *Comp) NumInflight() int {
	return len(c.inflight)
}

// Buffers returns the write-back and request queues.
func (c *Comp) Buffers() []sim.Buffer {
	return c.core.Buffers()
}

// Submit issues an access from the requester.
func (c *Comp) Submit(
	addr uint64,
	cmd mem.Command,
	length int,
) SubmitResult {
	op := mem.OpLoad
	if cmd == mem.CmdWrite {
		op = mem.OpStore
	}

	trans := mem.NewTransaction(addr, cmd, length,
		mem.Tags{OpKind: op, PipelineKind: mem.PipelineMSHRFill})

	return c.SubmitTransaction(trans)
}

// SubmitTransaction issues a prepared access from the requester. Write data
// is taken from the transaction.
func (c *Comp) SubmitTransaction(trans *mem.Transaction) SubmitResult {
	result := SubmitResult{Trans: trans}

	switch c.HandleForward(trans, mem.BeginReq) {
	case mem.Updated:
		result.Status = FastComplete
		result.Data = trans.Data
		result.Latency = c.core.Config().HitLatency
	case mem.Accepted:
		result.Status = Queued
	default:
		result.Status = Rejected
	}

	return result
}

// HandleForward receives Request-Begin and Response-End from the requester.
func (c *Comp) HandleForward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveTags(trans, c.Name())

	switch phase {
	case mem.BeginReq:
		return c.handleRequest(trans)
	case mem.EndResp:
		c.handleResponseEnd(trans)
		return mem.Accepted
	default:
		log.Panicf("%s: phase %s cannot travel forward", c.Name(), phase)
	}

	return mem.Completed
}

func (c *Comp) handleRequest(trans *mem.Transaction) mem.SyncStatus {
	line, hit := c.core.Lookup(trans.Address)

	if trans.IsRead() {
		if hit {
			return c.readHit(trans, line)
		}

		return c.miss(trans, mshr.KindRead)
	}

	if !hit {
		return c.miss(trans, mshr.KindWrite)
	}

	if line.State == cache.Shared && !c.upgrade(trans) {
		return mem.Completed
	}

	return c.writeHit(trans, line)
}

func (c *Comp) readHit(
	trans *mem.Transaction,
	line *tagging.Line,
) mem.SyncStatus {
	_, _, offset := c.core.Geometry().Decompose(trans.Address)
	copy(trans.Data, line.Data[offset:])
	trans.Status = mem.RespOK

	c.core.Stats.ReadHits++
	c.traceHit(trans)

	return mem.Updated
}

func (c *Comp) writeHit(
	trans *mem.Transaction,
	line *tagging.Line,
) mem.SyncStatus {
	_, _, offset := c.core.Geometry().Decompose(trans.Address)
	copy(line.Data[offset:], trans.Data)
	trans.Status = mem.RespOK

	c.core.Stats.WriteHits++
	c.traceHit(trans)

	return mem.Updated
}

// upgrade gains ownership of a Shared line by invalidating every other copy.
func (c *Comp) upgrade(trans *mem.Transaction) bool {
	if !c.core.CanDirty() {
		c.core.Stats.WritebackStalls++
		return false
	}

	lineAddr := c.core.LineAddress(trans.Address)
	inv := mem.NewTransaction(lineAddr, mem.CmdWrite, 0, mem.Tags{
		OpKind:       mem.OpInvalidate,
		PipelineKind: mem.PipelineMSHRFill,
	})

	if c.bus.HandleForward(inv, mem.BeginReq) != mem.Updated {
		return false
	}

	line, found := c.core.Lookup(lineAddr)
	if !found {
		return false
	}

	c.core.SetState(line, cache.Modified)
	c.core.Stats.Upgrades++

	return true
}

func (c *Comp) miss(trans *mem.Transaction, kind mshr.Kind) mem.SyncStatus {
	if err := c.core.AllocateMiss(trans, kind); err != nil {
		return mem.Completed
	}

	tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
		c, "req_in", trans.Command.String(), trans)
	tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "cache_miss")

	mem.ScheduleRequestEnd(c.Engine, c, trans, c.core.Config().HandshakeDelay)

	return mem.Accepted
}

func (c *Comp) traceHit(trans *mem.Transaction) {
	id := tracing.ReqInTaskID(trans.ID, c)
	tracing.StartTask(id, "", c, "req_in", trans.Command.String(), trans)
	tracing.AddTaskStep(id, c, "cache_hit")
	tracing.EndTask(id, c)
}

func (c *Comp) handleResponseEnd(trans *mem.Transaction) {
	if _, found := c.inflight[trans.ID]; !found {
		log.Panicf("%s: Response-End for %s that was never delivered",
			c.Name(), trans.ID)
	}

	delete(c.inflight, trans.ID)
	tracing.EndTask(tracing.ReqInTaskID(trans.ID, c), c)
}

// HandleBackward receives Request-End and Response-Begin from the bus.
func (c *Comp) HandleBackward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveTags(trans, c.Name())

	switch phase {
	case mem.EndReq:
		c.core.RequestEnded(trans)
	case mem.BeginResp:
		c.core.HandleResponse(trans)
	default:
		log.Panicf("%s: phase %s cannot travel backward", c.Name(), phase)
	}

	return mem.Accepted
}

// Invalidate drops the line of the address on behalf of another cache. A
// Modified line is written back first.
func (c *Comp) Invalidate(addr uint64) {
	c.core.Invalidate(addr)
}

// Downgrade makes a Modified line Shared on behalf of another cache that
// reads it. The data is written back.
func (c *Comp) Downgrade(addr uint64) {
	c.core.Downgrade(addr)
}

func (c *Comp) deliver(trans *mem.Transaction) {
	trans.Status = mem.RespOK
	c.inflight[trans.ID] = trans
	tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "fill")
	mem.ScheduleResponse(c.Engine, c, trans, 0)
}
