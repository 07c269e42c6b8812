package events

import (
	"errors"
	"testing"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "session state changed", event: NewSessionStateChanged("listening", "thinking"), expected: KindSessionStateChanged},
		{name: "session terminated", event: NewSessionTerminated(TerminationExitPhrase, nil), expected: KindSessionTerminated},
		{name: "user transcript final", event: NewUserTranscriptFinal("text"), expected: KindUserTranscriptFinal},
		{name: "user exit requested", event: NewUserExitRequested("exit"), expected: KindUserExitRequested},
		{name: "assistant response started", event: NewAssistantResponseStarted("text"), expected: KindAssistantResponseStarted},
		{name: "assistant response final", event: NewAssistantResponseFinal("text"), expected: KindAssistantResponseFinal},
		{name: "assistant response failed", event: NewAssistantResponseFailed(errors.New("down"), "sorry"), expected: KindAssistantResponseFailed},
		{name: "assistant speech started", event: NewAssistantSpeechStarted("text"), expected: KindAssistantSpeechStarted},
		{name: "assistant speech ended", event: NewAssistantSpeechEnded("text"), expected: KindAssistantSpeechEnded},
		{name: "assistant speech failed", event: NewAssistantSpeechFailed("text", errors.New("no device")), expected: KindAssistantSpeechFailed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestKindsAreUnique(t *testing.T) {
	kinds := []Kind{
		KindSessionStateChanged, KindSessionTerminated,
		KindUserTranscriptFinal, KindUserExitRequested,
		KindAssistantResponseStarted, KindAssistantResponseFinal, KindAssistantResponseFailed,
		KindAssistantSpeechStarted, KindAssistantSpeechEnded, KindAssistantSpeechFailed,
	}

	seen := map[Kind]bool{}
	for _, kind := range kinds {
		if seen[kind] {
			t.Fatalf("expected kind %q to be unique", kind)
		}
		seen[kind] = true
	}
}
