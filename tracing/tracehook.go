package tracing

import (
	"log"

	"github.com/sarchlab/msisim/sim"
)

// CollectTrace attaches a tracer to a component. A component may carry several
// tracers, but attaching the same tracer twice panics.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	if tracedBy(domain, tracer) {
		log.Panicf("%s is already traced by %T", domain.Name(), tracer)
	}

	domain.AcceptHook(&traceHook{tracer: tracer})
}

// CollectTraceFrom attaches one tracer to every component given.
func CollectTraceFrom(tracer Tracer, domains ...NamedHookable) {
	for _, domain := range domains {
		CollectTrace(domain, tracer)
	}
}

func tracedBy(domain NamedHookable, tracer Tracer) bool {
	for _, hook := range domain.Hooks() {
		if h, ok := hook.(*traceHook); ok && h.tracer == tracer {
			return true
		}
	}

	return false
}

// traceHook hands task hooks to a tracer and ignores the rest.
type traceHook struct {
	tracer Tracer
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskStep:
		h.tracer.StepTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
