// Package cache provides the set-associative store and miss tracking that
// every cache level is built on. The level-specific behavior lives in the
// l1 and l2 packages and is plugged in as a Policy.
package cache

import (
	"errors"
	"log"
	"sync"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
	"github.com/sarchlab/msisim/mem/cache/internal/tagging"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

// ErrWritebackQueueFull is returned when the write-back queue has no slot for
// the line a request would bring in.
var ErrWritebackQueueFull = errors.New("write-back queue has no free slot")

// State is the MSI state of a cache line.
type State = tagging.State

// A list of all MSI states.
const (
	Invalid  = tagging.Invalid
	Shared   = tagging.Shared
	Modified = tagging.Modified
)

// WritebackRequest is a snapshot of a dirty line on its way to the next
// level.
type WritebackRequest struct {
	Address  uint64
	Data     []byte
	LineSize int
}

// Owner is the component a Core works for. The Core schedules its phase
// events on the owner and wakes it up when new work arrives.
type Owner interface {
	sim.Handler
	tracing.NamedHookable
	TickLater()
}

// Policy is the level-specific part of a cache.
type Policy interface {
	// PrepareWriteback turns a queued write-back into a downstream
	// transaction. It returns false if the write-back has to wait.
	PrepareWriteback(wb *WritebackRequest) (*mem.Transaction, bool)

	// Filled is called after a fill has been installed and its MSHR entry
	// has been freed.
	Filled(entry mshr.Entry, fill *mem.Transaction)

	// WritebackAcked is called when the next level acknowledges a
	// write-back.
	WritebackAcked(trans *mem.Transaction)
}

// Core is the store, MSHR table, write-back queue, and downstream request
// channel of one cache.
type Core struct {
	config Config
	engine sim.EventScheduler
	owner  Owner
	policy Policy
	bottom mem.ForwardHandler

	store *tagging.Store
	mshr  *mshr.Table

	writebackQueue   sim.Buffer
	queuedWritebacks map[uint64]int
	requestQueue     sim.Buffer

	inflightRequest *mem.Transaction
	nextIssueTime   sim.VTimeInCycle

	// allocLock makes allocating an entry and dispatching it one step.
	allocLock sync.Mutex

	Stats Stats
}

// NewCore creates a Core.
func NewCore(
	config Config,
	engine sim.EventScheduler,
	owner Owner,
	policy Policy,
) (*Core, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	geometry, _ := config.geometry()
	victimFinder, _ := tagging.NewVictimFinder(config.VictimPolicy)

	c := &Core{
		config: config,
		engine: engine,
		owner:  owner,
		policy: policy,
		store:  tagging.NewStore(geometry, victimFinder),
		mshr:   mshr.NewTable(config.NumMSHREntry),

		queuedWritebacks: make(map[uint64]int),
	}

	// CanDirty keeps the queued write-backs, the Modified lines, and the fills
	// in flight within this size.
	c.writebackQueue = sim.NewBuffer(
		owner.Name()+".WritebackQueue",
		geometry.NumLines()+config.NumMSHREntry)
	c.requestQueue = sim.NewBuffer(
		owner.Name()+".RequestQueue", config.RequestQueueSize)

	return c, nil
}

// Config returns the configuration the core was built with.
func (c *Core) Config() Config {
	return c.config
}

// Geometry returns how addresses map onto the store.
func (c *Core) Geometry() tagging.Geometry {
	return c.store.Geometry()
}

// SetBottom sets where downstream requests go.
func (c *Core) SetBottom(bottom mem.ForwardHandler) {
	c.bottom = bottom
}

// LineAddress aligns an address to its line.
func (c *Core) LineAddress(addr uint64) uint64 {
	return c.store.Geometry().LineAddress(addr)
}

// Lookup returns the valid line that holds the address and marks it as
// recently used.
func (c *Core) Lookup(addr uint64) (*tagging.Line, bool) {
	line, found := c.store.LookupAddress(addr)
	if found {
		c.store.Visit(line.SetID, line.WayID)
	}

	return line, found
}

// State returns the MSI state of the line holding the address.
func (c *Core) State(addr uint64) State {
	line, found := c.store.LookupAddress(addr)
	if !found {
		return Invalid
	}

	return line.State
}

// SetState changes the MSI state of a line.
func (c *Core) SetState(line *tagging.Line, state State) {
	c.store.SetState(line, state)
}

// HasPending tells if the line of the address has a pending MSHR entry.
func (c *Core) HasPending(addr uint64) bool {
	_, found := c.mshr.FindByAddress(c.LineAddress(addr))
	return found
}

// NumPendingFor returns the number of pending MSHR entries for the line of the
// address.
func (c *Core) NumPendingFor(addr uint64) int {
	return c.mshr.CountAddress(c.LineAddress(addr))
}

// MSHROccupancy returns the number of occupied MSHR entries.
func (c *Core) MSHROccupancy() int {
	return c.mshr.NumPending()
}

// WritebackQueueSize returns the number of write-backs waiting to be sent.
func (c *Core) WritebackQueueSize() int {
	return c.writebackQueue.Size()
}

// IsWritebackQueued tells if a write-back of the line of the address is waiting
// to be sent.
func (c *Core) IsWritebackQueued(addr uint64) bool {
	return c.queuedWritebacks[c.LineAddress(addr)] > 0
}

// RequestQueueSize returns the number of requests waiting to be sent.
func (c *Core) RequestQueueSize() int {
	return c.requestQueue.Size()
}

// Buffers returns the queues of the core.
func (c *Core) Buffers() []sim.Buffer {
	return []sim.Buffer{c.writebackQueue, c.requestQueue}
}

// CanDirty tells if one more line may become Modified. A write-back queue slot
// is held for each Modified line and each fill in flight, so the eviction or
// snoop that later writes the line back always finds room.
func (c *Core) CanDirty() bool {
	held := c.writebackQueue.Size() + c.store.NumModified() + c.mshr.NumFills()
	return held < c.writebackQueue.Capacity()
}

// AllocateMiss reserves an MSHR entry for the line of the transaction. The
// entry is sent downstream by a later Tick. On error nothing changes.
func (c *Core) AllocateMiss(trans *mem.Transaction, kind mshr.Kind) error {
	c.allocLock.Lock()
	defer c.allocLock.Unlock()

	if !c.CanDirty() {
		c.Stats.WritebackStalls++
		return ErrWritebackQueueFull
	}

	_, err := c.mshr.Allocate(
		c.LineAddress(trans.Address), kind, trans, c.engine.CurrentTime())

	switch {
	case errors.Is(err, mshr.ErrAddressPending):
		c.Stats.AddressConflicts++
		return err
	case errors.Is(err, mshr.ErrFull):
		c.Stats.CapacityRejections++
		return err
	case err != nil:
		return err
	}

	if trans.Command == mem.CmdWrite {
		c.Stats.WriteMisses++
	} else {
		c.Stats.ReadMisses++
	}

	c.owner.TickLater()

	return nil
}

// TrackWriteback reserves an MSHR entry for a write-back so that no fill of
// the same line can overtake it. It returns false if no entry is available.
func (c *Core) TrackWriteback(
	wb *WritebackRequest,
	trans *mem.Transaction,
) bool {
	c.allocLock.Lock()
	defer c.allocLock.Unlock()

	index, err := c.mshr.Allocate(
		wb.Address, mshr.KindWriteback, trans, c.engine.CurrentTime())
	if err != nil {
		return false
	}

	c.mshr.MarkIssued(index)

	return true
}

// ReleaseWriteback frees the MSHR entry of an acknowledged write-back.
func (c *Core) ReleaseWriteback(addr uint64) {
	index, found := c.mshr.FindByAddress(addr)
	if !found || c.mshr.Entry(index).Kind != mshr.KindWriteback {
		log.Panicf("%s: write-back acknowledgment for 0x%x is not tracked",
			c.owner.Name(), addr)
	}

	c.freeEntry(index)
}

func (c *Core) freeEntry(index int) {
	if err := c.mshr.Free(index); err != nil {
		log.Panicf("%s: %v", c.owner.Name(), err)
	}

	c.owner.TickLater()
}

// WritebackTransaction creates the downstream transaction of a write-back.
func (c *Core) WritebackTransaction(wb *WritebackRequest) *mem.Transaction {
	trans := mem.NewTransaction(wb.Address, mem.CmdWrite, wb.LineSize,
		mem.Tags{OpKind: mem.OpStore, PipelineKind: mem.PipelineWriteback})
	copy(trans.Data, wb.Data)

	return trans
}

// Install places a line. If the set has no room, a victim is evicted first and
// a Modified victim is queued for write-back.
func (c *Core) Install(addr uint64, state State, data []byte) *tagging.Line {
	tag, setIndex, _ := c.Geometry().Decompose(addr)

	way, found := c.store.Lookup(setIndex, tag)
	if !found {
		way = c.store.ChooseVictim(setIndex)
		c.evict(c.store.Line(setIndex, way))
	}

	return c.store.Install(setIndex, way, tag, state, data)
}

func (c *Core) evict(line *tagging.Line) {
	if !line.IsValid {
		return
	}

	c.Stats.Evictions++

	if line.State == Modified {
		c.enqueueWriteback(line)
	}

	c.store.SetState(line, Invalid)
}

func (c *Core) enqueueWriteback(line *tagging.Line) {
	wb := &WritebackRequest{
		Address:  c.store.LineAddress(line),
		Data:     append([]byte(nil), line.Data...),
		LineSize: c.Geometry().LineSize,
	}

	c.writebackQueue.Push(wb)
	c.queuedWritebacks[wb.Address]++
	c.Stats.Writebacks++
	c.owner.TickLater()
}

// Invalidate drops the line of the address. A Modified line is queued for
// write-back before it is dropped.
func (c *Core) Invalidate(addr uint64) bool {
	line, found := c.store.LookupAddress(addr)
	if !found {
		c.snoopPending(addr, mshr.SnoopInvalidate)
		return false
	}

	if line.State == Modified {
		c.enqueueWriteback(line)
	}

	c.store.SetState(line, Invalid)
	c.Stats.Invalidations++

	return true
}

// Downgrade turns a Modified line into a Shared one, queueing its data for
// write-back.
func (c *Core) Downgrade(addr uint64) bool {
	line, found := c.store.LookupAddress(addr)
	if !found {
		c.snoopPending(addr, mshr.SnoopDowngrade)
		return false
	}

	if line.State != Modified {
		return false
	}

	c.enqueueWriteback(line)
	c.store.SetState(line, Shared)
	c.Stats.Downgrades++

	return true
}

// snoopPending records a snoop on a fill that the next level has already taken
// over. A fill taken later is ordered after the snooping request and needs no
// record.
func (c *Core) snoopPending(addr uint64, snoop mshr.Snoop) {
	index, found := c.mshr.FindByAddress(c.LineAddress(addr))
	if !found {
		return
	}

	entry := c.mshr.Entry(index)
	if entry.Kind == mshr.KindWriteback || !entry.Taken {
		return
	}

	c.mshr.RecordSnoop(index, snoop)
}

// RequestEnded handles the Request-End of the request in flight downstream.
func (c *Core) RequestEnded(trans *mem.Transaction) {
	mem.MustHaveTags(trans, c.owner.Name())

	if c.inflightRequest != trans {
		log.Panicf("%s: unexpected Request-End for %s",
			c.owner.Name(), trans.ID)
	}

	c.inflightRequest = nil
	c.requestTaken(trans)
	c.owner.TickLater()
}

func (c *Core) requestTaken(trans *mem.Transaction) {
	if trans.Tags.PipelineKind != mem.PipelineMSHRFill {
		return
	}

	index, found := c.mshr.FindByAddress(trans.Address)
	if found {
		c.mshr.MarkTaken(index)
	}
}

// HandleResponse handles the Response-Begin of a downstream transaction and
// acknowledges it with a Response-End.
func (c *Core) HandleResponse(trans *mem.Transaction) {
	mem.MustHaveTags(trans, c.owner.Name())

	if c.inflightRequest == trans {
		c.inflightRequest = nil
		c.owner.TickLater()
	}

	switch trans.Tags.PipelineKind {
	case mem.PipelineMSHRFill:
		c.fill(trans)
	case mem.PipelineWriteback:
		c.policy.WritebackAcked(trans)
	}

	tracing.EndTask(tracing.ReqOutTaskID(trans.ID), c.owner)
	mem.SchedulePhase(c.engine, c.owner, trans, mem.EndResp, 0)
}

func (c *Core) fill(trans *mem.Transaction) {
	lineAddr := c.LineAddress(trans.Address)

	index, found := c.mshr.FindByAddress(lineAddr)
	if !found {
		log.Panicf("%s: fill for 0x%x has no MSHR entry",
			c.owner.Name(), lineAddr)
	}

	entry := c.mshr.Entry(index)
	if entry.Kind == mshr.KindWriteback {
		log.Panicf("%s: fill for 0x%x matches a write-back entry",
			c.owner.Name(), lineAddr)
	}

	state := Shared
	if entry.Kind == mshr.KindWrite {
		state = Modified
	}

	c.Install(lineAddr, state, trans.Data)
	c.Stats.Fills++

	c.freeEntry(index)
	c.policy.Filled(entry, trans)

	switch entry.Snoop {
	case mshr.SnoopInvalidate:
		c.Invalidate(lineAddr)
	case mshr.SnoopDowngrade:
		c.Downgrade(lineAddr)
	}
}

// SendDown delivers a forward phase to the next level.
func (c *Core) SendDown(trans *mem.Transaction, phase mem.Phase) mem.SyncStatus {
	return c.bottom.HandleForward(trans, phase)
}

// Tick sends the request at the head of the request queue and refills the
// queue from the write-back queue and the MSHR table.
func (c *Core) Tick() bool {
	madeProgress := false

	madeProgress = c.sendRequest() || madeProgress
	madeProgress = c.drainWriteback() || madeProgress
	madeProgress = c.dispatchMiss() || madeProgress

	return madeProgress
}

func (c *Core) sendRequest() bool {
	if c.requestQueue.Size() == 0 || c.inflightRequest != nil {
		return false
	}

	now := c.engine.CurrentTime()
	if now < c.nextIssueTime {
		return true
	}

	trans := c.requestQueue.Peek().(*mem.Transaction)
	trans.IssueTime = now

	status := c.bottom.HandleForward(trans, mem.BeginReq)
	switch status {
	case mem.Completed:
		c.Stats.Retries++
		return true
	case mem.Accepted:
		c.inflightRequest = trans
	case mem.Updated:
		c.requestTaken(trans)
	default:
		log.Panicf("%s: unknown status %s", c.owner.Name(), status)
	}

	c.requestQueue.Pop()
	c.nextIssueTime = now + c.config.IssueInterval

	return true
}

func (c *Core) drainWriteback() bool {
	if c.writebackQueue.Size() == 0 || !c.requestQueue.CanPush() {
		return false
	}

	wb := c.writebackQueue.Peek().(*WritebackRequest)

	trans, ok := c.policy.PrepareWriteback(wb)
	if !ok {
		return false
	}

	c.writebackQueue.Pop()
	c.requestQueue.Push(trans)

	c.queuedWritebacks[wb.Address]--
	if c.queuedWritebacks[wb.Address] == 0 {
		delete(c.queuedWritebacks, wb.Address)
	}

	tracing.StartTask(tracing.ReqOutTaskID(trans.ID), "",
		c.owner, "req_out", "writeback", wb)

	return true
}

func (c *Core) dispatchMiss() bool {
	if !c.requestQueue.CanPush() {
		return false
	}

	c.allocLock.Lock()
	defer c.allocLock.Unlock()

	index, found := c.mshr.NextUnissued()
	if !found {
		return false
	}

	entry := c.mshr.Entry(index)

	cmd, op := mem.CmdRead, mem.OpLoad
	if entry.Kind == mshr.KindWrite {
		cmd, op = mem.CmdWrite, mem.OpStore
	}

	trans := mem.NewTransaction(entry.Address, cmd, c.Geometry().LineSize,
		mem.Tags{OpKind: op, PipelineKind: mem.PipelineMSHRFill})

	c.mshr.MarkIssued(index)
	c.requestQueue.Push(trans)

	tracing.StartTask(tracing.ReqOutTaskID(trans.ID),
		tracing.ReqInTaskID(entry.Trans.ID, c.owner),
		c.owner, "req_out", cmd.String(), nil)

	return true
}
