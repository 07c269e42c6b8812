package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-dialogue/core/conversations"
	"github.com/koscakluka/ema-dialogue/core/events"
	"github.com/koscakluka/ema-dialogue/core/llms"
	"github.com/koscakluka/ema-dialogue/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSystemPrompt  = "You are a helpful assistant."
	DefaultFarewell      = "Goodbye."
	DefaultFallbackReply = "Sorry, I could not come up with an answer. Please try again."
)

var (
	ErrAlreadyRunning   = errors.New("orchestrator already running")
	ErrMissingComponent = errors.New("missing component")
)

// Listener blocks until the user has said something.
type Listener interface {
	AwaitUtterance(ctx context.Context) (string, error)
}

// ResponseEngine produces the assistant's reply to userText given the
// committed history. It must not modify history.
type ResponseEngine interface {
	Reply(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error)
}

// Speaker says text out loud and returns once playback has finished.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Orchestrator runs one spoken dialogue session. Listening, replying and
// speaking strictly alternate on the goroutine that called Run, so the
// microphone is never consumed while the assistant is thinking or speaking.
type Orchestrator struct {
	listener Listener
	engine   ResponseEngine
	speaker  Speaker

	history     *DialogueHistory
	exitPhrases ExitVocabulary

	systemPrompt  string
	farewell      string
	fallbackReply string

	replyTimeout  time.Duration
	speechTimeout time.Duration
	historyWindow int

	emitEvent eventEmitter

	state     atomic.Int32
	running   atomic.Bool
	sessionID atomic.Value
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		history:       NewDialogueHistory(),
		exitPhrases:   NewExitVocabulary(DefaultExitPhrases...),
		systemPrompt:  DefaultSystemPrompt,
		farewell:      DefaultFarewell,
		fallbackReply: DefaultFallbackReply,
	}
	o.state.Store(int32(StateListening))
	o.sessionID.Store("")

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State is safe to call from any goroutine.
func (o *Orchestrator) State() SessionState {
	return SessionState(o.state.Load())
}

// History returns a read-only view of the committed dialogue.
func (o *Orchestrator) History() conversations.HistoryView {
	return o.history
}

// ExitPhrases returns the normalized phrases that end the session.
func (o *Orchestrator) ExitPhrases() []string {
	return o.exitPhrases.Phrases()
}

// SessionID is empty until Run has been called.
func (o *Orchestrator) SessionID() string {
	return o.sessionID.Load().(string)
}

type turnOutcome int

const (
	turnCompleted turnOutcome = iota
	turnFallback
	turnExit
	turnInterrupted
	turnFailed
)

func (t turnOutcome) String() string {
	switch t {
	case turnCompleted:
		return "completed"
	case turnFallback:
		return "fallback"
	case turnExit:
		return "exit"
	case turnInterrupted:
		return "interrupted"
	case turnFailed:
		return "failed"
	}
	return "unknown"
}

// Run drives the session until an exit phrase is heard, ctx is cancelled or
// listening fails. It returns nil for the first two and the listening error
// otherwise. Run may only be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.validate(); err != nil {
		return err
	}
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	sessionID := uuid.NewString()
	o.sessionID.Store(sessionID)
	log := logger.With("session_id", sessionID)

	ctx, span := tracer.Start(ctx, "dialogue session", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	log.Info("Session started", "exit_phrases", o.exitPhrases.Phrases())
	for {
		outcome, err := o.runTurn(ctx, log)
		turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))

		switch outcome {
		case turnCompleted, turnFallback:
			continue
		case turnExit:
			o.terminate(events.TerminationExitPhrase, nil)
			log.Info("Session ended by exit phrase", "turns", o.history.Len())
			return nil
		case turnInterrupted:
			o.terminate(events.TerminationInterrupt, nil)
			log.Info("Session interrupted", "turns", o.history.Len())
			return nil
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "session failed")
			o.terminate(events.TerminationFailure, err)
			log.Error("Session failed", "error", err)
			return err
		}
	}
}

func (o *Orchestrator) validate() error {
	var missing []string
	if o.listener == nil {
		missing = append(missing, "listener")
	}
	if o.engine == nil {
		missing = append(missing, "response engine")
	}
	if o.speaker == nil {
		missing = append(missing, "speaker")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingComponent, strings.Join(missing, ", "))
	}
	return nil
}

func (o *Orchestrator) runTurn(ctx context.Context, log *slog.Logger) (turnOutcome, error) {
	o.setState(StateListening)

	userText, err := o.listener.AwaitUtterance(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return turnInterrupted, nil
		}
		return turnFailed, fmt.Errorf("failed to listen: %w", err)
	}

	ctx, span := tracer.Start(ctx, "turn")
	defer span.End()

	log.Info("User said", "transcript", userText)
	o.emit(events.NewUserTranscriptFinal(userText))
	o.setState(StateThinking)

	if o.exitPhrases.Matches(userText) {
		o.emit(events.NewUserExitRequested(userText))
		// The farewell is spoken but never becomes part of the dialogue.
		_ = o.say(ctx, o.farewell)
		return turnExit, nil
	}

	outcome := turnCompleted
	speech, err := o.reply(ctx, userText)
	if err != nil {
		if ctx.Err() != nil {
			return turnInterrupted, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply failed")
		log.Warn("Failed to get a reply, speaking fallback", "error", err)
		o.emit(events.NewAssistantResponseFailed(err, o.fallbackReply))
		speech, outcome = o.fallbackReply, turnFallback
	} else {
		o.history.AppendExchange(userText, speech)
		log.Info("Assistant replied", "reply", speech)
		o.emit(events.NewAssistantResponseFinal(speech))
	}

	o.setState(StateSpeaking)
	if err := o.say(ctx, speech); err != nil {
		if ctx.Err() != nil {
			return turnInterrupted, nil
		}
		span.RecordError(err)
	}
	return outcome, nil
}

// reply asks the engine for a reply. Every error it returns is an
// [*llms.EngineError].
func (o *Orchestrator) reply(ctx context.Context, userText string) (string, error) {
	replyCtx := ctx
	if o.replyTimeout > 0 {
		var cancel context.CancelFunc
		replyCtx, cancel = context.WithTimeout(ctx, o.replyTimeout)
		defer cancel()
	}

	o.emit(events.NewAssistantResponseStarted(userText))
	reply, err := o.engine.Reply(replyCtx, o.history.Window(o.historyWindow), userText, o.systemPrompt)
	if err != nil {
		var engineErr *llms.EngineError
		if errors.As(err, &engineErr) {
			return "", err
		}
		if errors.Is(replyCtx.Err(), context.DeadlineExceeded) {
			return "", llms.NewEngineError(llms.Timeout, err)
		}
		return "", llms.NewEngineError(llms.Unreachable, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", llms.NewEngineError(llms.MalformedResponse, errors.New("empty reply"))
	}
	return reply, nil
}

// say speaks text. Failures are reported and returned, but never end the
// session.
func (o *Orchestrator) say(ctx context.Context, text string) error {
	sayCtx := ctx
	if o.speechTimeout > 0 {
		var cancel context.CancelFunc
		sayCtx, cancel = context.WithTimeout(ctx, o.speechTimeout)
		defer cancel()
	}

	o.emit(events.NewAssistantSpeechStarted(text))
	err := o.speaker.Say(sayCtx, text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var speechErr *texttospeech.SpeechOutputError
		if !errors.As(err, &speechErr) {
			err = &texttospeech.SpeechOutputError{Stage: texttospeech.StagePlayback, Err: err}
		}
		logger.Warn("Failed to speak", "error", err)
		o.emit(events.NewAssistantSpeechFailed(text, err))
		return err
	}

	o.emit(events.NewAssistantSpeechEnded(text))
	return nil
}

func (o *Orchestrator) setState(state SessionState) {
	previous := SessionState(o.state.Swap(int32(state)))
	if previous != state {
		o.emit(events.NewSessionStateChanged(previous.String(), state.String()))
	}
}

func (o *Orchestrator) terminate(reason events.TerminationReason, err error) {
	o.setState(StateTerminated)
	o.emit(events.NewSessionTerminated(reason, err))
}
