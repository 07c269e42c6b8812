package orchestration

import (
	"time"

	"github.com/koscakluka/ema-dialogue/core/events"
)

type OrchestratorOption func(*Orchestrator)

func WithListener(listener Listener) OrchestratorOption {
	return func(o *Orchestrator) { o.listener = listener }
}

func WithResponseEngine(engine ResponseEngine) OrchestratorOption {
	return func(o *Orchestrator) { o.engine = engine }
}

func WithSpeaker(speaker Speaker) OrchestratorOption {
	return func(o *Orchestrator) { o.speaker = speaker }
}

func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

// WithExitPhrases replaces the exit vocabulary. Passing no phrases leaves the
// default in place.
func WithExitPhrases(phrases ...string) OrchestratorOption {
	return func(o *Orchestrator) {
		if vocabulary := NewExitVocabulary(phrases...); len(vocabulary.phrases) > 0 {
			o.exitPhrases = vocabulary
		}
	}
}

func WithFarewell(farewell string) OrchestratorOption {
	return func(o *Orchestrator) { o.farewell = farewell }
}

// WithFallbackReply sets what is spoken when no reply could be produced.
func WithFallbackReply(fallback string) OrchestratorOption {
	return func(o *Orchestrator) {
		if fallback != "" {
			o.fallbackReply = fallback
		}
	}
}

// WithReplyTimeout bounds each reply request. Zero waits indefinitely.
func WithReplyTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.replyTimeout = max(timeout, 0) }
}

// WithSpeechTimeout bounds each synthesized utterance, playback included.
// Zero waits indefinitely.
func WithSpeechTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.speechTimeout = max(timeout, 0) }
}

// WithHistoryWindow limits how many past turns are sent with each request.
// The stored history is never truncated. Zero sends everything.
func WithHistoryWindow(turns int) OrchestratorOption {
	return func(o *Orchestrator) { o.historyWindow = max(turns, 0) }
}

// WithEventHandler registers a handler for session events. Handlers are
// called in registration order.
func WithEventHandler(handler events.Handler) OrchestratorOption {
	return func(o *Orchestrator) {
		if handler != nil {
			o.emitEvent = o.emitEvent.with(eventEmitter(handler))
		}
	}
}
