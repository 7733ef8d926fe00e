package bus

import (
	"github.com/sarchlab/msisim/sim"
)

// A Builder can build buses.
type Builder struct {
	engine              sim.Engine
	queueSize           int
	arbitrationInterval sim.VTimeInCycle
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		queueSize:           16,
		arbitrationInterval: 2,
	}
}

// WithEngine sets the engine that the bus uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithQueueSize sets how many requests can wait for the L2 cache.
func (b Builder) WithQueueSize(size int) Builder {
	b.queueSize = size
	return b
}

// WithArbitrationInterval sets the number of cycles between two grants.
func (b Builder) WithArbitrationInterval(cycles sim.VTimeInCycle) Builder {
	b.arbitrationInterval = cycles
	return b
}

// Build creates a bus.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		clients:             make(map[int]Client),
		arbitrationInterval: b.arbitrationInterval,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)
	c.queue = sim.NewBuffer(name+".Queue", b.queueSize)

	return c
}
