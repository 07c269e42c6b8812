package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/koscakluka/ema-dialogue/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	speakEndpoint     = "https://api.deepgram.com/v1/speak"
	defaultSampleRate = 24000
)

// Synthesizer renders text through the Deepgram speak REST endpoint as raw
// linear16 audio.
type Synthesizer struct {
	apiKey     string
	endpoint   string
	sampleRate int
	client     *http.Client
}

var _ texttospeech.Synthesizer = (*Synthesizer)(nil)

type SynthesizerOption func(*Synthesizer)

func WithEndpoint(endpoint string) SynthesizerOption {
	return func(s *Synthesizer) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

func WithSampleRate(sampleRate int) SynthesizerOption {
	return func(s *Synthesizer) {
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
	}
}

func WithHTTPClient(client *http.Client) SynthesizerOption {
	return func(s *Synthesizer) {
		if client != nil {
			s.client = client
		}
	}
}

// NewSynthesizer creates a synthesizer. If apiKey is empty the
// DEEPGRAM_API_KEY environment variable is used.
func NewSynthesizer(apiKey string, opts ...SynthesizerOption) (*Synthesizer, error) {
	if apiKey == "" {
		if apiKey = os.Getenv("DEEPGRAM_API_KEY"); apiKey == "" {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}

	s := &Synthesizer{
		apiKey:     apiKey,
		endpoint:   speakEndpoint,
		sampleRate: defaultSampleRate,
		client:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakError struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// Synthesize renders text with the given voice, or the default voice if
// voice is empty.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (texttospeech.Waveform, error) {
	if voice == "" {
		voice = string(defaultVoice)
	} else if !IsAvailableVoice(voice) {
		logger.Warn("Voice is not in the known voice list, sending anyway", "voice", voice)
	}

	speakUrl, err := url.Parse(s.endpoint)
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("invalid speak endpoint: %w", err)
	}
	urlValues := speakUrl.Query()
	urlValues.Set("model", voice)
	urlValues.Set("encoding", "linear16")
	urlValues.Set("sample_rate", strconv.Itoa(s.sampleRate))
	urlValues.Set("container", "none")
	speakUrl.RawQuery = urlValues.Encode()

	body, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakUrl.String(), bytes.NewReader(body))
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return texttospeech.Waveform{}, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr speakError
		if json.Unmarshal(pcm, &apiErr) == nil && apiErr.ErrMsg != "" {
			return texttospeech.Waveform{}, fmt.Errorf("non-OK HTTP status: %s: %s: %s", resp.Status, apiErr.ErrCode, apiErr.ErrMsg)
		}
		return texttospeech.Waveform{}, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	return texttospeech.Waveform{PCM: pcm, SampleRate: s.sampleRate}, nil
}
