package orchestration

type SessionState int32

const (
	StateListening SessionState = iota
	StateThinking
	StateSpeaking
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}
