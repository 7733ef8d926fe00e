// Package l2 implements the shared second-level cache that sits between the
// bus and the main memory.
package l2

import (
	"log"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

// Comp is an L2 cache.
type Comp struct {
	*sim.TickingComponent

	core   *cache.Core
	top    mem.BackwardHandler
	bottom mem.ForwardHandler

	// owners maps a line address to the L1 cache that may hold it Modified.
	owners map[uint64]int

	// inflight holds the responses sent to the bus and not yet acknowledged.
	inflight map[string]*mem.Transaction

	// AcceptedWritebacks counts the write-backs received from the L1 caches.
	AcceptedWritebacks uint64
}

// Tick sends requests and write-backs to the memory.
func (c *Comp) Tick() bool {
	return c.core.Tick()
}

// Handle delivers the phases this cache has scheduled.
func (c *Comp) Handle(e sim.Event) error {
	evt, ok := e.(*mem.PhaseEvent)
	if !ok {
		return c.TickingComponent.Handle(e)
	}

	if evt.Phase.IsForward() {
		c.bottom.HandleForward(evt.Trans, evt.Phase)
	} else {
		c.top.HandleBackward(evt.Trans, evt.Phase)
	}

	return nil
}

// SetTop sets where responses go, normally the bus.
func (c *Comp) SetTop(top mem.BackwardHandler) {
	c.top = top
}

// SetBottom sets the memory the cache sends its requests to.
func (c *Comp) SetBottom(bottom mem.ForwardHandler) {
	c.bottom = bottom
	c.core.SetBottom(bottom)
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

// Buffers returns the write-back and request queues.
func (c *Comp) Buffers() []sim.Buffer {
	return c.core.Buffers()
}

// Owner returns the L1 cache that was last granted the line of the address
// for writing, by a store or by an upgrade.
func (c *Comp) Owner(addr uint64) (int, bool) {
	owner, found := c.owners[c.core.LineAddress(addr)]
	return owner, found
}

// HandleForward receives Request-Begin and Response-End from the bus.
func (c *Comp) HandleForward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveSource(trans, c.Name())

	switch phase {
	case mem.BeginReq:
		if trans.Tags.PipelineKind == mem.PipelineWriteback {
			return c.acceptWriteback(trans)
		}

		return c.handleRequest(trans)
	case mem.EndResp:
		c.handleResponseEnd(trans)
		return mem.Accepted
	default:
		log.Panicf("%s: phase %s cannot travel forward", c.Name(), phase)
	}

	return mem.Completed
}

// RecordOwner notes that an L1 cache has upgraded the line of the address to
// Modified.
func (c *Comp) RecordOwner(addr uint64, owner int) {
	c.owners[c.core.LineAddress(addr)] = owner
}

// acceptWriteback takes the dirty line an L1 cache has given up. The owner is
// cleared only if the writer still owns the line. A stale write-back from a
// cache that has since been invalidated leaves the new owner in place.
func (c *Comp) acceptWriteback(trans *mem.Transaction) mem.SyncStatus {
	lineAddr := c.core.LineAddress(trans.Address)
	if c.core.HasPending(lineAddr) {
		return mem.Completed
	}

	if c.core.State(lineAddr) != cache.Modified && !c.core.CanDirty() {
		c.core.Stats.WritebackStalls++
		return mem.Completed
	}

	c.core.Install(lineAddr, cache.Modified, trans.Data)
	c.AcceptedWritebacks++

	if owner, found := c.owners[lineAddr]; found && owner == trans.Tags.SourceID {
		delete(c.owners, lineAddr)
	}

	tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
		c, "req_in", "writeback", trans)

	c.respond(trans, c.core.Config().HitLatency)

	return mem.Updated
}

func (c *Comp) handleRequest(trans *mem.Transaction) mem.SyncStatus {
	lineAddr := c.core.LineAddress(trans.Address)

	line, hit := c.core.Lookup(lineAddr)
	if hit {
		copy(trans.Data, line.Data)

		if trans.IsRead() {
			c.core.Stats.ReadHits++
		} else {
			c.core.Stats.WriteHits++
			c.owners[lineAddr] = trans.Tags.SourceID
		}

		tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
			c, "req_in", trans.Command.String(), trans)
		tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "cache_hit")

		c.respond(trans, c.core.Config().HitLatency)

		return mem.Updated
	}

	if c.core.IsWritebackQueued(lineAddr) {
		return mem.Completed
	}

	// The line is always fetched with a read. Ownership is recorded here.
	if err := c.core.AllocateMiss(trans, mshr.KindRead); err != nil {
		return mem.Completed
	}

	tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
		c, "req_in", trans.Command.String(), trans)
	tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "cache_miss")

	mem.ScheduleRequestEnd(c.Engine, c, trans, c.core.Config().HandshakeDelay)

	return mem.Accepted
}

func (c *Comp) respond(trans *mem.Transaction, delay sim.VTimeInCycle) {
	trans.Status = mem.RespOK
	c.inflight[trans.ID] = trans
	mem.ScheduleResponse(c.Engine, c, trans, delay)
}

func (c *Comp) handleResponseEnd(trans *mem.Transaction) {
	if _, found := c.inflight[trans.ID]; !found {
		log.Panicf("%s: Response-End for %s that was never delivered",
			c.Name(), trans.ID)
	}

	delete(c.inflight, trans.ID)
	tracing.EndTask(tracing.ReqInTaskID(trans.ID, c), c)
}

// HandleBackward receives Request-End and Response-Begin from the memory.
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
