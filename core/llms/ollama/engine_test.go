package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/koscakluka/ema-dialogue/core/llms"
)

func TestReplySendsSystemHistoryAndUserText(t *testing.T) {
	var received requestBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("expected /api/chat, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":" It is sunny. "},"done":true}`))
	}))
	defer srv.Close()

	engine := NewEngine(llms.WithBaseURL(srv.URL))
	history := []llms.Turn{llms.UserTurn("hi"), llms.AssistantTurn("hello")}

	reply, err := engine.Reply(context.Background(), history, "weather?", "You are a helpful assistant.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "It is sunny." {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}

	if received.Model != DefaultModel {
		t.Fatalf("expected default model, got %q", received.Model)
	}
	if received.Stream {
		t.Fatalf("expected non-streaming request")
	}
	if received.Options.Temperature != llms.DefaultTemperature {
		t.Fatalf("expected temperature %v, got %v", llms.DefaultTemperature, received.Options.Temperature)
	}

	expected := []message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "weather?"},
	}
	if len(received.Messages) != len(expected) {
		t.Fatalf("expected %d messages, got %+v", len(expected), received.Messages)
	}
	for i := range expected {
		if received.Messages[i] != expected[i] {
			t.Fatalf("expected message %d to be %+v, got %+v", i, expected[i], received.Messages[i])
		}
	}
	if len(history) != 2 {
		t.Fatalf("expected history to be untouched, got %d turns", len(history))
	}
}

func TestReplyUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewEngine(llms.WithBaseURL(url)).Reply(context.Background(), nil, "hello", "")
	if !llms.IsKind(err, llms.Unreachable) {
		t.Fatalf("expected Unreachable, got %v", err)
	}
}

func TestReplyMalformedResponses(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"not json":      {status: http.StatusOK, body: `<html>`},
		"empty content": {status: http.StatusOK, body: `{"message":{"role":"assistant","content":"   "},"done":true}`},
		"error status":  {status: http.StatusNotFound, body: `{"error":"model \"nope\" not found"}`},
		"bare 500":      {status: http.StatusInternalServerError, body: `oops`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewEngine(llms.WithBaseURL(srv.URL)).Reply(context.Background(), nil, "hello", "")
			if !llms.IsKind(err, llms.MalformedResponse) {
				t.Fatalf("expected MalformedResponse, got %v", err)
			}
		})
	}
}

func TestReplyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewEngine(llms.WithBaseURL(srv.URL)).Reply(ctx, nil, "hello", "")
	if !llms.IsKind(err, llms.Timeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
}
