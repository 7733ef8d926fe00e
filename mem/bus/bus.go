// Package bus implements the shared bus that connects the L1 caches to the L2
// cache.
//
// The bus serializes the Load and Store requests of all the L1 caches on a
// single channel to the L2 cache and stamps every request with the index of
// the L1 that sent it. Responses coming back from the L2 cache are routed by
// that index. Invalidations are not queued for the L2 cache. They are
// broadcast to the other L1 caches as soon as they arrive, and the directory
// learns the new owner of the line.
package bus

import (
	"log"
	"sort"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

// A Client is an L1 cache attached to the bus.
type Client interface {
	mem.BackwardHandler

	// Invalidate drops the line of the address.
	Invalidate(addr uint64)

	// Downgrade makes a Modified line Shared.
	Downgrade(addr uint64)
}

// A Directory keeps track of which L1 cache may hold a line Modified.
type Directory interface {
	RecordOwner(addr uint64, owner int)
}

// Stats counts what the bus has done.
type Stats struct {
	Grants        uint64
	Rejections    uint64
	Retries       uint64
	Invalidations uint64
	Downgrades    uint64
}

// Comp is a snooping bus.
type Comp struct {
	*sim.TickingComponent

	clients   map[int]Client
	bottom    mem.ForwardHandler
	directory Directory

	queue               sim.Buffer
	awaitingEndReq      *mem.Transaction
	arbitrationInterval sim.VTimeInCycle
	nextGrantTime       sim.VTimeInCycle

	Stats Stats
}

// Register attaches an L1 cache to a numbered port.
func (c *Comp) Register(index int, client Client) {
	if _, found := c.clients[index]; found {
		log.Panicf("%s: port %d is already registered", c.Name(), index)
	}

	c.clients[index] = client
}

// SetBottom sets the L2 cache the bus sends requests to.
func (c *Comp) SetBottom(bottom mem.ForwardHandler) {
	c.bottom = bottom
}

// SetDirectory sets who is told about the L1 caches that upgrade a line.
func (c *Comp) SetDirectory(directory Directory) {
	c.directory = directory
}

// Port returns the handler an L1 cache uses to send phases to the bus.
func (c *Comp) Port(index int) mem.ForwardHandler {
	return port{bus: c, index: index}
}

// QueueSize returns the number of requests waiting for the L2 cache.
func (c *Comp) QueueSize() int {
	return c.queue.Size()
}

// Buffers returns the arbitration queue.
func (c *Comp) Buffers() []sim.Buffer {
	return []sim.Buffer{c.queue}
}

// Forward receives a phase from the L1 cache registered at sourceID.
func (c *Comp) Forward(
	sourceID int,
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveTags(trans, c.Name())

	switch phase {
	case mem.BeginReq:
		return c.acceptRequest(sourceID, trans)
	case mem.EndResp:
		return c.bottom.HandleForward(trans, mem.EndResp)
	default:
		log.Panicf("%s: phase %s cannot travel forward", c.Name(), phase)
	}

	return mem.Completed
}

func (c *Comp) acceptRequest(
	sourceID int,
	trans *mem.Transaction,
) mem.SyncStatus {
	switch trans.Tags.OpKind {
	case mem.OpInvalidate:
		c.BroadcastInvalidate(trans.Address, sourceID)

		if c.directory != nil {
			c.directory.RecordOwner(trans.Address, sourceID)
		}

		return mem.Updated
	case mem.OpLoad, mem.OpStore:
	default:
		log.Panicf("%s: unknown operation %s", c.Name(), trans.Tags.OpKind)
	}

	if !c.queue.CanPush() {
		c.Stats.Rejections++
		return mem.Completed
	}

	trans.Tags = trans.Tags.WithSource(sourceID)
	c.queue.Push(trans)
	c.TickLater()

	tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
		c, "req_in", trans.Tags.OpKind.String(), trans)

	return mem.Accepted
}

// BroadcastInvalidate invalidates the line of the address in every registered
// L1 cache except the one at exclude.
func (c *Comp) BroadcastInvalidate(addr uint64, exclude int) {
	for _, index := range c.sortedClientIndices() {
		if index == exclude {
			continue
		}

		c.clients[index].Invalidate(addr)
		c.Stats.Invalidations++
	}
}

func (c *Comp) broadcastDowngrade(addr uint64, exclude int) {
	for _, index := range c.sortedClientIndices() {
		if index == exclude {
			continue
		}

		c.clients[index].Downgrade(addr)
		c.Stats.Downgrades++
	}
}

func (c *Comp) sortedClientIndices() []int {
	indices := make([]int, 0, len(c.clients))
	for index := range c.clients {
		indices = append(indices, index)
	}

	sort.Ints(indices)

	return indices
}

// HandleBackward routes a phase coming from the L2 cache to the L1 cache that
// sent the transaction.
func (c *Comp) HandleBackward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveSource(trans, c.Name())

	client := c.client(trans)

	switch phase {
	case mem.EndReq:
		if c.awaitingEndReq != trans {
			log.Panicf("%s: unexpected Request-End for %s", c.Name(), trans.ID)
		}

		c.awaitingEndReq = nil
		c.TickLater()
	case mem.BeginResp:
		tracing.EndTask(tracing.ReqInTaskID(trans.ID, c), c)
	default:
		log.Panicf("%s: phase %s cannot travel backward", c.Name(), phase)
	}

	return client.HandleBackward(trans, phase)
}

func (c *Comp) client(trans *mem.Transaction) Client {
	client, found := c.clients[trans.Tags.SourceID]
	if !found {
		log.Panicf("%s: transaction %s is tagged with unknown source %d",
			c.Name(), trans.ID, trans.Tags.SourceID)
	}

	return client
}

// Tick grants the channel to the L2 cache to the oldest request.
func (c *Comp) Tick() bool {
	if c.queue.Size() == 0 || c.awaitingEndReq != nil {
		return false
	}

	now := c.CurrentTime()
	if now < c.nextGrantTime {
		return true
	}

	trans := c.queue.Peek().(*mem.Transaction)

	status := c.bottom.HandleForward(trans, mem.BeginReq)
	switch status {
	case mem.Completed:
		c.Stats.Retries++
		return true
	case mem.Accepted:
		c.awaitingEndReq = trans
	case mem.Updated:
		c.client(trans).HandleBackward(trans, mem.EndReq)
	default:
		log.Panicf("%s: unknown status %s", c.Name(), status)
	}

	c.queue.Pop()
	c.Stats.Grants++
	c.nextGrantTime = now + c.arbitrationInterval
	tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "granted")

	c.snoop(trans)

	return true
}

// snoop keeps the other L1 caches coherent with a granted fill request.
func (c *Comp) snoop(trans *mem.Transaction) {
	if trans.Tags.PipelineKind != mem.PipelineMSHRFill {
		return
	}

	switch trans.Tags.OpKind {
	case mem.OpLoad:
		c.broadcastDowngrade(trans.Address, trans.Tags.SourceID)
	case mem.OpStore:
		c.BroadcastInvalidate(trans.Address, trans.Tags.SourceID)
	}
}

type port struct {
	bus   *Comp
	index int
}

func (p port) HandleForward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	return p.bus.Forward(p.index, trans, phase)
}
