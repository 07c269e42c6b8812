package events

const (
	// KindUserTranscriptFinal identifies the final transcript for the utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindUserExitRequested identifies an utterance that ends the session.
	KindUserExitRequested Kind = "user_input.exit_requested"
)

// UserTranscriptFinal carries the final transcript for the utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserExitRequested carries the utterance that matched the exit vocabulary.
type UserExitRequested struct {
	Base
	Transcript string
}

func NewUserExitRequested(transcript string) UserExitRequested {
	return UserExitRequested{Base: NewBase(KindUserExitRequested), Transcript: transcript}
}
