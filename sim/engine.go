package sim

// TimeTeller reports the current cycle.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler puts events on the timeline. Caches and memories only need
// this much of an engine to send their phases.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// A SimulationEndHandler runs once the engine has been told the run is over.
type SimulationEndHandler interface {
	Handle(now VTimeInCycle)
}

// An Engine drives a simulation by handling events in cycle order.
type Engine interface {
	Hookable
	EventScheduler

	// Run handles events until none are left.
	Run() error

	// Pause blocks Run before its next event. The monitor uses it.
	Pause()

	// Continue lets a paused Run go on.
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls every registered SimulationEndHandler.
	Finished()
}
