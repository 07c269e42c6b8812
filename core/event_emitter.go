package orchestration

import "github.com/koscakluka/ema-dialogue/core/events"

type eventEmitter func(events.Event)

func (e eventEmitter) with(next eventEmitter) eventEmitter {
	if e == nil {
		return next
	}
	return func(event events.Event) {
		e(event)
		next(event)
	}
}

func (o *Orchestrator) emit(event events.Event) {
	if o.emitEvent == nil {
		return
	}
	o.emitEvent(event)
}
