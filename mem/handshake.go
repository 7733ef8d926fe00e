package mem

import (
	"fmt"
	"log"

	"github.com/sarchlab/msisim/sim"
)

// Phase is one of the four phases of the split-transaction handshake.
type Phase int

// A list of all phases.
const (
	BeginReq Phase = iota
	EndReq
	BeginResp
	EndResp
)

func (p Phase) String() string {
	switch p {
	case BeginReq:
		return "BEGIN_REQ"
	case EndReq:
		return "END_REQ"
	case BeginResp:
		return "BEGIN_RESP"
	case EndResp:
		return "END_RESP"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// IsForward tells if the phase travels from the issuer to the receiver.
func (p Phase) IsForward() bool {
	switch p {
	case BeginReq, EndResp:
		return true
	case EndReq, BeginResp:
		return false
	default:
		log.Panicf("unknown phase %s", p)
		return false
	}
}

// SyncStatus is the immediate answer to a phase delivery.
type SyncStatus int

// A list of all sync status.
const (
	// Accepted means the receiver took the transaction and will answer with
	// a later phase.
	Accepted SyncStatus = iota

	// Updated means the request phase is already over. No Request-End will
	// follow.
	Updated

	// Completed means the transaction was rejected outright. Nothing has
	// changed in the receiver and the issuer may retry later.
	Completed
)

func (s SyncStatus) String() string {
	switch s {
	case Accepted:
		return "ACCEPTED"
	case Updated:
		return "UPDATED"
	case Completed:
		return "COMPLETED"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// A ForwardHandler receives the phases that travel from the issuer to the
// receiver (Request-Begin and Response-End).
type ForwardHandler interface {
	HandleForward(trans *Transaction, phase Phase) SyncStatus
}

// A BackwardHandler receives the phases that travel from the receiver back to
// the issuer (Request-End and Response-Begin).
type BackwardHandler interface {
	HandleBackward(trans *Transaction, phase Phase) SyncStatus
}

// PhaseEvent delivers a phase of a transaction at a later cycle. The handler
// is always the component that sends the phase.
type PhaseEvent struct {
	*sim.EventBase

	Trans *Transaction
	Phase Phase
}

// NewPhaseEvent creates a new PhaseEvent.
func NewPhaseEvent(
	time sim.VTimeInCycle,
	handler sim.Handler,
	trans *Transaction,
	phase Phase,
) *PhaseEvent {
	return &PhaseEvent{
		EventBase: sim.NewEventBase(time, handler),
		Trans:     trans,
		Phase:     phase,
	}
}

// SchedulePhase schedules a phase delivery a number of cycles from now.
func SchedulePhase(
	engine sim.EventScheduler,
	handler sim.Handler,
	trans *Transaction,
	phase Phase,
	delay sim.VTimeInCycle,
) {
	now := engine.CurrentTime()
	engine.Schedule(NewPhaseEvent(now+delay, handler, trans, phase))
}

// ScheduleRequestEnd schedules the Request-End of an accepted request and
// records its cycle on the transaction.
func ScheduleRequestEnd(
	engine sim.EventScheduler,
	handler sim.Handler,
	trans *Transaction,
	delay sim.VTimeInCycle,
) {
	trans.RequestEndTime = engine.CurrentTime() + delay
	SchedulePhase(engine, handler, trans, EndReq, delay)
}

// ResponseTime returns the cycle at which a response that is ready in delay
// cycles may begin. It is never earlier than the Request-End of the
// transaction.
func ResponseTime(
	engine sim.EventScheduler,
	trans *Transaction,
	delay sim.VTimeInCycle,
) sim.VTimeInCycle {
	return max(engine.CurrentTime()+delay, trans.RequestEndTime)
}

// ScheduleResponse schedules the Response-Begin of a transaction at
// ResponseTime.
func ScheduleResponse(
	engine sim.EventScheduler,
	handler sim.Handler,
	trans *Transaction,
	delay sim.VTimeInCycle,
) {
	at := ResponseTime(engine, trans, delay)
	engine.Schedule(NewPhaseEvent(at, handler, trans, BeginResp))
}
