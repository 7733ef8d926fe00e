// Package idealmemcontroller implements the main memory at the bottom of the
// hierarchy.
package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/tracing"
)

type respondEvent struct {
	*sim.EventBase
	trans *mem.Transaction
}

func newRespondEvent(
	time sim.VTimeInCycle,
	handler sim.Handler,
	trans *mem.Transaction,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), trans}
}

// Stats counts the accesses the memory has served.
type Stats struct {
	Reads     uint64
	Writes    uint64
	Completed uint64
}

// An Comp is an ideal memory controller. It responds to every request in a
// fixed number of cycles and never refuses one. There is no limitation on the
// concurrency of this unit.
//
// Bytes that have never been written read as the low byte of their address.
type Comp struct {
	*sim.ComponentBase

	engine         sim.EventScheduler
	top            mem.BackwardHandler
	Latency        sim.VTimeInCycle
	HandshakeDelay sim.VTimeInCycle

	written  map[uint64]byte
	inflight map[string]*mem.Transaction

	Stats Stats
}

// SetTop sets where responses go.
func (c *Comp) SetTop(top mem.BackwardHandler) {
	c.top = top
}

// NumInflight returns the number of requests not yet acknowledged.
func (c *Comp) NumInflight() int {
	return len(c.inflight)
}

// Access reads or writes memory at once.
func (c *Comp) Access(addr uint64, cmd mem.Command, data []byte) []byte {
	if cmd == mem.CmdWrite {
		for i, b := range data {
			c.written[addr+uint64(i)] = b
		}

		c.Stats.Writes++

		return data
	}

	for i := range data {
		b, found := c.written[addr+uint64(i)]
		if !found {
			b = byte(addr + uint64(i))
		}

		data[i] = b
	}

	c.Stats.Reads++

	return data
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		c.respond(e.trans)
	case *mem.PhaseEvent:
		c.top.HandleBackward(e.Trans, e.Phase)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Comp) respond(trans *mem.Transaction) {
	c.Access(trans.Address, trans.Command, trans.Data)
	trans.Status = mem.RespOK

	c.top.HandleBackward(trans, mem.BeginResp)
}

// HandleForward receives Request-Begin and Response-End.
func (c *Comp) HandleForward(
	trans *mem.Transaction,
	phase mem.Phase,
) mem.SyncStatus {
	mem.MustHaveTags(trans, c.Name())

	switch phase {
	case mem.BeginReq:
		c.inflight[trans.ID] = trans

		tracing.StartTask(tracing.ReqInTaskID(trans.ID, c), "",
			c, "req_in", trans.Command.String(), trans)

		mem.ScheduleRequestEnd(c.engine, c, trans, c.HandshakeDelay)
		c.engine.Schedule(newRespondEvent(
			mem.ResponseTime(c.engine, trans, c.Latency), c, trans))

		return mem.Accepted
	case mem.EndResp:
		if _, found := c.inflight[trans.ID]; !found {
			log.Panicf("%s: Response-End for %s that was never delivered",
				c.Name(), trans.ID)
		}

		delete(c.inflight, trans.ID)
		c.Stats.Completed++
		tracing.EndTask(tracing.ReqInTaskID(trans.ID, c), c)

		return mem.Accepted
	default:
		log.Panicf("%s: phase %s cannot travel forward", c.Name(), phase)
	}

	return mem.Completed
}
