package events

const (
	// KindAssistantResponseStarted identifies a reply request being sent.
	KindAssistantResponseStarted Kind = "assistant_response.started"
	// KindAssistantResponseFinal identifies a reply that was committed to history.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantResponseFailed identifies a reply that could not be produced.
	KindAssistantResponseFailed Kind = "assistant_response.failed"
)

type AssistantResponseStarted struct {
	Base
	Prompt string
}

func NewAssistantResponseStarted(prompt string) AssistantResponseStarted {
	return AssistantResponseStarted{Base: NewBase(KindAssistantResponseStarted), Prompt: prompt}
}

// AssistantResponseFinal carries the reply committed to history.
type AssistantResponseFinal struct {
	Base
	Response string
}

func NewAssistantResponseFinal(response string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Response: response}
}

// AssistantResponseFailed carries the failure and the fallback spoken in
// place of a reply.
type AssistantResponseFailed struct {
	Base
	Err      error
	Fallback string
}

func NewAssistantResponseFailed(err error, fallback string) AssistantResponseFailed {
	return AssistantResponseFailed{Base: NewBase(KindAssistantResponseFailed), Err: err, Fallback: fallback}
}
