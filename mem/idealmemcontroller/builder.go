package idealmemcontroller

import (
	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
)

// A Builder can build ideal memory controllers.
type Builder struct {
	engine         sim.EventScheduler
	latency        sim.VTimeInCycle
	handshakeDelay sim.VTimeInCycle
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		latency:        100,
		handshakeDelay: 5,
	}
}

// WithEngine sets the engine of the memory controller
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithLatency sets the latency of the memory controller
func (b Builder) WithLatency(latency sim.VTimeInCycle) Builder {
	b.latency = latency
	return b
}

// WithHandshakeDelay sets the number of cycles before Request-End is sent.
func (b Builder) WithHandshakeDelay(delay sim.VTimeInCycle) Builder {
	b.handshakeDelay = delay
	return b
}

// Build builds a new Comp
func (b Builder) Build(name string) *Comp {
	return &Comp{
		ComponentBase:  sim.NewComponentBase(name),
		engine:         b.engine,
		Latency:        b.latency,
		HandshakeDelay: b.handshakeDelay,
		written:        make(map[uint64]byte),
		inflight:       make(map[string]*mem.Transaction),
	}
}
