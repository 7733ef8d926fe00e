// Package system assembles requesters, L1 caches, the bus, the L2 cache, and
// the main memory into a coherent memory hierarchy.
package system

import (
	"fmt"

	"github.com/sarchlab/msisim/mem/bus"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/l1"
	"github.com/sarchlab/msisim/mem/cache/l2"
	"github.com/sarchlab/msisim/mem/idealmemcontroller"
	"github.com/sarchlab/msisim/requester"
	"github.com/sarchlab/msisim/sim"
)

// System is a built memory hierarchy. Requesters[i] is served by L1s[i], which
// is registered on the bus at port i.
type System struct {
	Requesters []*requester.Agent
	L1s        []*l1.Comp
	Bus        *bus.Comp
	L2         *l2.Comp
	Memory     *idealmemcontroller.Comp
}

// Components returns every component of the system.
func (s *System) Components() []sim.Component {
	var comps []sim.Component

	for _, r := range s.Requesters {
		comps = append(comps, r)
	}

	for _, c := range s.L1s {
		comps = append(comps, c)
	}

	comps = append(comps, s.Bus, s.L2, s.Memory)

	return comps
}

// Done tells if every requester has finished its accesses.
func (s *System) Done() bool {
	for _, r := range s.Requesters {
		if !r.Done() {
			return false
		}
	}

	return true
}

// Builder can build systems.
type Builder struct {
	engine              sim.Engine
	numRequesters       int
	l1Config            cache.Config
	l2Config            cache.Config
	busQueueSize        int
	arbitrationInterval sim.VTimeInCycle
	memoryLatency       sim.VTimeInCycle
	handshakeDelay      sim.VTimeInCycle
	issueInterval       sim.VTimeInCycle
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numRequesters:       2,
		l1Config:            cache.DefaultL1Config(),
		l2Config:            cache.DefaultL2Config(),
		busQueueSize:        16,
		arbitrationInterval: 2,
		memoryLatency:       100,
		handshakeDelay:      5,
		issueInterval:       2,
	}
}

// WithEngine sets the engine that all the components use.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithNumRequesters sets how many requester and L1 cache pairs to build.
func (b Builder) WithNumRequesters(n int) Builder {
	b.numRequesters = n
	return b
}

// WithL1Config sets the configuration of every L1 cache.
func (b Builder) WithL1Config(config cache.Config) Builder {
	b.l1Config = config
	return b
}

// WithL2Config sets the configuration of the L2 cache.
func (b Builder) WithL2Config(config cache.Config) Builder {
	b.l2Config = config
	return b
}

// WithBusQueueSize sets how many requests can wait on the bus.
func (b Builder) WithBusQueueSize(size int) Builder {
	b.busQueueSize = size
	return b
}

// WithMemoryLatency sets the number of cycles a memory access takes.
func (b Builder) WithMemoryLatency(latency sim.VTimeInCycle) Builder {
	b.memoryLatency = latency
	return b
}

// WithIssueInterval sets the minimum number of cycles between two accesses of
// a requester.
func (b Builder) WithIssueInterval(cycles sim.VTimeInCycle) Builder {
	b.issueInterval = cycles
	return b
}

// Build creates and wires a system.
func (b Builder) Build(name string) *System {
	s := &System{}

	b.buildMemory(name, s)
	b.buildL2(name, s)
	b.buildBus(name, s)
	b.buildL1s(name, s)

	return s
}

func (b Builder) buildMemory(name string, s *System) {
	s.Memory = idealmemcontroller.MakeBuilder().
		WithEngine(b.engine).
		WithLatency(b.memoryLatency).
		WithHandshakeDelay(b.handshakeDelay).
		Build(name + ".Memory")
}

func (b Builder) buildL2(name string, s *System) {
	s.L2 = l2.MakeBuilder().
		WithEngine(b.engine).
		WithConfig(b.l2Config).
		Build(name + ".L2")

	s.L2.SetBottom(s.Memory)
	s.Memory.SetTop(s.L2)
}

func (b Builder) buildBus(name string, s *System) {
	s.Bus = bus.MakeBuilder().
		WithEngine(b.engine).
		WithQueueSize(b.busQueueSize).
		WithArbitrationInterval(b.arbitrationInterval).
		Build(name + ".Bus")

	s.Bus.SetBottom(s.L2)
	s.Bus.SetDirectory(s.L2)
	s.L2.SetTop(s.Bus)
}

func (b Builder) buildL1s(name string, s *System) {
	for i := 0; i < b.numRequesters; i++ {
		l1Cache := l1.MakeBuilder().
			WithEngine(b.engine).
			WithConfig(b.l1Config).
			Build(fmt.Sprintf("%s.L1[%d]", name, i))

		agent := requester.MakeBuilder().
			WithEngine(b.engine).
			WithIssueInterval(b.issueInterval).
			Build(fmt.Sprintf("%s.Requester[%d]", name, i))

		agent.SetCache(l1Cache)
		l1Cache.SetTop(agent)
		l1Cache.SetBottom(s.Bus.Port(i))
		s.Bus.Register(i, l1Cache)

		s.Requesters = append(s.Requesters, agent)
		s.L1s = append(s.L1s, l1Cache)
	}
}
