package events

const (
	KindSessionStateChanged Kind = "session.state_changed"
	KindSessionTerminated   Kind = "session.terminated"
)

type SessionStateChanged struct {
	Base
	From string
	To   string
}

func NewSessionStateChanged(from, to string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
}

type TerminationReason string

const (
	TerminationExitPhrase TerminationReason = "exit_phrase"
	TerminationInterrupt  TerminationReason = "interrupt"
	TerminationFailure    TerminationReason = "failure"
)

// SessionTerminated is the last event of every session. Err is only set when
// Reason is TerminationFailure.
type SessionTerminated struct {
	Base
	Reason TerminationReason
	Err    error
}

func NewSessionTerminated(reason TerminationReason, err error) SessionTerminated {
	return SessionTerminated{Base: NewBase(KindSessionTerminated), Reason: reason, Err: err}
}
