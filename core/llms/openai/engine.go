package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-dialogue/core/llms"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultModel = "gpt-4o-mini"

// Engine replies through any OpenAI compatible chat completions endpoint.
type Engine struct {
	options llms.EngineOptions
	client  openai.Client
}

// NewEngine builds an engine. Without an explicit API key the client falls
// back to OPENAI_API_KEY.
func NewEngine(opts ...llms.EngineOption) *Engine {
	options := llms.EngineOptions{
		Model:       DefaultModel,
		Temperature: llms.DefaultTemperature,
		MaxRetries:  2,
	}
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	clientOpts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(options.MaxRetries),
	}
	if options.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(options.APIKey))
	}
	if options.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(options.BaseURL))
	}

	return &Engine{options: options, client: openai.NewClient(clientOpts...)}
}

func (e *Engine) Model() string { return e.options.Model }

func (e *Engine) Reply(ctx context.Context, history []llms.Turn, userText, systemPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "openai reply")
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
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       e.options.Model,
		Messages:    toOpenAIMessages(llms.BuildMessages(history, userText, systemPrompt)),
		Temperature: openai.Float(e.options.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Warn("Chat completion rejected", "status", apiErr.StatusCode, "error", err)
			return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("chat completion failed: %w", err))
		}
		return "", llms.TransportError(fmt.Errorf("chat completion failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("response has no choices"))
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", llms.NewEngineError(llms.MalformedResponse, fmt.Errorf("response has no message content"))
	}
	return reply, nil
}
