package events

const (
	KindAssistantSpeechStarted Kind = "assistant_speech.started"
	KindAssistantSpeechEnded   Kind = "assistant_speech.ended"
	KindAssistantSpeechFailed  Kind = "assistant_speech.failed"
)

type AssistantSpeechStarted struct {
	Base
	Text string
}

func NewAssistantSpeechStarted(text string) AssistantSpeechStarted {
	return AssistantSpeechStarted{Base: NewBase(KindAssistantSpeechStarted), Text: text}
}

type AssistantSpeechEnded struct {
	Base
	Text string
}

func NewAssistantSpeechEnded(text string) AssistantSpeechEnded {
	return AssistantSpeechEnded{Base: NewBase(KindAssistantSpeechEnded), Text: text}
}

type AssistantSpeechFailed struct {
	Base
	Text string
	Err  error
}

func NewAssistantSpeechFailed(text string, err error) AssistantSpeechFailed {
	return AssistantSpeechFailed{Base: NewBase(KindAssistantSpeechFailed), Text: text, Err: err}
}
