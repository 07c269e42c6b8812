package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-dialogue/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL = "http://127.0.0.1:11434"
	DefaultModel   = "llama3.2"

	chatPath = "/api/chat"
)

// Engine replies through a local Ollama server's chat endpoint.
type Engine struct {
	options llms.EngineOptions
	client  *http.Client
}

func NewEngine(opts ...llms.EngineOption) *Engine {
	options := llms.EngineOptions{
		Model:       DefaultModel,
		Temperature: llms.DefaultTemperature,
		BaseURL:     DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &Engine{options: options, client: client}
}

func (e *Engine) Model() string { return e.options.Model }

// Reply sends the dialogue so far plus userText and returns the assistant's
// reply. Every failure is an [*llms.EngineError].
func (e *Engine) Reply(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "ollama reply")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", e.options.Model),
		attribute.Int("llm.history_length", len(history)),
	)

	reply, err := e.reply(ctx, history, userText, systemPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply failed")
		return "", err
	}
	return reply, nil
}

func (e *Engine) reply(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error) {
	messages, err := toMessages(llms.BuildMessages(history, userText, systemPrompt))
	if err != nil {
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("error converting messages: %w", err))
	}

	requestBodyBytes, err := json.Marshal(requestBody{
		Model:    e.options.Model,
		Messages: messages,
		Stream:   false,
		Options:  requestOptions{Temperature: e.options.Temperature},
	})
	if err != nil {
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("error marshalling JSON: %w", err))
	}

	url := strings.TrimRight(e.options.BaseURL, "/") + chatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", llms.NewEngineError(llms.Unreachable, fmt.Errorf("error creating HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", llms.TransportError(fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", llms.TransportError(fmt.Errorf("error reading response body: %w", ctx.Err()))
		}
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("error reading response body: %w", err))
	}

	var responseBody responseBody
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("non-OK HTTP status: %s", resp.Status))
		}
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("error unmarshalling response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("Ollama returned an error", "status", resp.Status, "error", responseBody.Error)
		return "", llms.NewEngineError(llms.MalformedResponse,
			fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, responseBody.Error))
	}

	reply := strings.TrimSpace(responseBody.Message.Content)
	if reply == "" {
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("response has no message content"))
	}
	return reply, nil
}
