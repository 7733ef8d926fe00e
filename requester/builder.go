package requester

import (
	"github.com/sarchlab/msisim/sim"
)

// A Builder can build agents.
type Builder struct {
	engine        sim.Engine
	issueInterval sim.VTimeInCycle
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		issueInterval: 2,
	}
}

// WithEngine sets the engine that the agent uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithIssueInterval sets the minimum number of cycles between two accesses.
func (b Builder) WithIssueInterval(cycles sim.VTimeInCycle) Builder {
	b.issueInterval = cycles
	return b
}

// Build creates an agent.
func (b Builder) Build(name string) *Agent {
	a := &Agent{
		issueInterval: b.issueInterval,
	}
	a.TickingComponent = sim.NewTickingComponent(name, b.engine, a)

	return a
}
