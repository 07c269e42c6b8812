package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-dialogue/core/events"
	"github.com/koscakluka/ema-dialogue/core/llms"
)

// scriptedListener returns utterances in order. Once they run out it returns
// err, or blocks until ctx is done when err is nil.
type scriptedListener struct {
	utterances []string
	err        error
	onCall     func(call int)

	calls int
}

func (l *scriptedListener) AwaitUtterance(ctx context.Context) (string, error) {
	l.calls++
	if l.onCall != nil {
		l.onCall(l.calls)
	}
	if l.calls <= len(l.utterances) {
		return l.utterances[l.calls-1], nil
	}
	if l.err != nil {
		return "", l.err
	}
	<-ctx.Done()
	return "", ctx.Err()
}

type engineFunc func(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error)

func (f engineFunc) Reply(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error) {
	return f(ctx, history, userText, systemPrompt)
}

func staticEngine(reply string) engineFunc {
	return func(context.Context, []llms.Turn, string, string) (string, error) { return reply, nil }
}

type recordingSpeaker struct {
	err    error
	onSay  func(text string)
	spoken []string
}

func (s *recordingSpeaker) Say(_ context.Context, text string) error {
	s.spoken = append(s.spoken, text)
	if s.onSay != nil {
		s.onSay(text)
	}
	return s.err
}

type speakerFunc func(ctx context.Context, text string) error

func (f speakerFunc) Say(ctx context.Context, text string) error { return f(ctx, text) }

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) transitions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var transitions []string
	for _, event := range r.events {
		if changed, ok := event.(events.SessionStateChanged); ok {
			transitions = append(transitions, changed.From+"->"+changed.To)
		}
	}
	return transitions
}

func (r *eventRecorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func (r *eventRecorder) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matching []events.Event
	for _, event := range r.events {
		if event.Kind() == kind {
			matching = append(matching, event)
		}
	}
	return matching
}
