// Package config loads the settings of an ema-dialogue session.
//
// Settings are resolved in this order, later sources winning:
//
//	built-in defaults
//	YAML config file (optional)
//	environment, including a .env file in the working directory
//
// Command line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	ttsdeepgram "github.com/koscakluka/ema-dialogue/core/texttospeech/deepgram"
)

const (
	AudioBackendPortAudio = "portaudio"
	AudioBackendMiniaudio = "miniaudio"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	// ProviderGroq is an OpenAI compatible endpoint with its own defaults.
	ProviderGroq = "groq"

	SpeechProviderDeepgram = "deepgram"
	SpeechProviderPiper    = "piper"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1/"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Audio    AudioConfig    `yaml:"audio" jsonschema:"description=Microphone and speaker devices"`
	Listen   ListenConfig   `yaml:"listen" jsonschema:"description=Streaming speech recognition"`
	LLM      LLMConfig      `yaml:"llm" jsonschema:"description=Reply generation backend"`
	Speech   SpeechConfig   `yaml:"speech" jsonschema:"description=Speech synthesis backend"`
	Dialogue DialogueConfig `yaml:"dialogue" jsonschema:"description=Conversation behaviour"`
}

type AudioConfig struct {
	Backend            string `yaml:"backend" jsonschema:"enum=portaudio,enum=miniaudio,default=portaudio"`
	FrameSize          int    `yaml:"frame_size" jsonschema:"minimum=1,default=4096,description=Samples read from the microphone at a time"`
	PlaybackSampleRate int    `yaml:"playback_sample_rate" jsonschema:"minimum=1,default=24000"`
}

type ListenConfig struct {
	APIKey         string `yaml:"api_key,omitempty" jsonschema:"description=Deepgram API key; DEEPGRAM_API_KEY overrides it"`
	Model          string `yaml:"model" jsonschema:"default=nova-3"`
	Language       string `yaml:"language" jsonschema:"default=en-US"`
	EndpointingMs  int    `yaml:"endpointing_ms" jsonschema:"minimum=1,default=300"`
	UtteranceEndMs int    `yaml:"utterance_end_ms" jsonschema:"minimum=1000,default=1000"`
}

type LLMConfig struct {
	Provider    string   `yaml:"provider" jsonschema:"enum=ollama,enum=openai,enum=groq,default=ollama"`
	Model       string   `yaml:"model,omitempty" jsonschema:"description=Defaults to the provider's default model"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty"`
	Temperature float64  `yaml:"temperature" jsonschema:"minimum=0,maximum=2,default=0.2"`
	MaxRetries  int      `yaml:"max_retries" jsonschema:"minimum=0,default=2"`
	Timeout     Duration `yaml:"timeout,omitempty" jsonschema:"description=Bound on a single reply; empty waits indefinitely"`

	HistoryWindow int `yaml:"history_window,omitempty" jsonschema:"minimum=0,description=Past turns sent with each request; 0 sends all"`
}

type SpeechConfig struct {
	Provider    string   `yaml:"provider" jsonschema:"enum=deepgram,enum=piper,default=deepgram"`
	Voice       string   `yaml:"voice" jsonschema:"description=Deepgram Aura voice or path to a Piper .onnx model"`
	APIKey      string   `yaml:"api_key,omitempty"`
	PiperBinary string   `yaml:"piper_binary,omitempty" jsonschema:"default=piper"`
	Timeout     Duration `yaml:"timeout,omitempty"`
}

type DialogueConfig struct {
	SystemPrompt  string   `yaml:"system_prompt"`
	ExitPhrases   []string `yaml:"exit_phrases" jsonschema:"minItems=1"`
	Farewell      string   `yaml:"farewell"`
	FallbackReply string   `yaml:"fallback_reply"`
}

func Default() Config {
	return Config{
		Audio: AudioConfig{
			Backend:            AudioBackendPortAudio,
			FrameSize:          4096,
			PlaybackSampleRate: 24000,
		},
		Listen: ListenConfig{
			Model:          "nova-3",
			Language:       "en-US",
			EndpointingMs:  300,
			UtteranceEndMs: 1000,
		},
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			Temperature: 0.2,
			MaxRetries:  2,
		},
		Speech: SpeechConfig{
			Provider:    SpeechProviderDeepgram,
			Voice:       "aura-asteria-en",
			PiperBinary: "piper",
		},
		Dialogue: DialogueConfig{
			SystemPrompt:  "You are a helpful assistant.",
			ExitPhrases:   []string{"exit", "quit"},
			Farewell:      "Goodbye.",
			FallbackReply: "Sorry, I could not come up with an answer. Please try again.",
		},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DEEPGRAM_API_KEY"); v != "" {
		c.Listen.APIKey = v
		if c.Speech.Provider == SpeechProviderDeepgram {
			c.Speech.APIKey = v
		}
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	case ProviderGroq:
		if v := os.Getenv("GROQ_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	case ProviderOllama:
		if v := os.Getenv("OLLAMA_HOST"); v != "" {
			c.LLM.BaseURL = ollamaURL(v)
		}
	}
	if v := os.Getenv("EMA_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("EMA_TTS_VOICE"); v != "" {
		c.Speech.Voice = v
	}
}

func (c *Config) applyProviderDefaults() {
	if c.LLM.Provider != ProviderGroq {
		return
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = groqBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = groqDefaultModel
	}
}

// ollamaURL accepts OLLAMA_HOST in the forms the ollama CLI does, a bare
// host:port included.
func ollamaURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !slices.Contains([]string{AudioBackendPortAudio, AudioBackendMiniaudio}, c.Audio.Backend) {
		invalid("unknown audio backend %q", c.Audio.Backend)
	}
	if c.Audio.FrameSize <= 0 {
		invalid("audio.frame_size must be positive")
	}
	if c.Audio.PlaybackSampleRate <= 0 {
		invalid("audio.playback_sample_rate must be positive")
	}

	if c.Listen.UtteranceEndMs != 0 && c.Listen.UtteranceEndMs < 1000 {
		invalid("listen.utterance_end_ms must be at least 1000")
	}

	if !slices.Contains([]string{ProviderOllama, ProviderOpenAI, ProviderGroq}, c.LLM.Provider) {
		invalid("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		invalid("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxRetries < 0 || c.LLM.HistoryWindow < 0 {
		invalid("llm.max_retries and llm.history_window cannot be negative")
	}
	if c.LLM.Timeout < 0 {
		invalid("llm.timeout cannot be negative")
	}

	switch c.Speech.Provider {
	case SpeechProviderDeepgram:
		if !ttsdeepgram.IsAvailableVoice(c.Speech.Voice) {
			invalid("unknown deepgram voice %q", c.Speech.Voice)
		}
	case SpeechProviderPiper:
		if c.Speech.Voice == "" {
			invalid("speech.voice must name a piper model")
		}
	default:
		invalid("unknown speech provider %q", c.Speech.Provider)
	}
	if c.Speech.Timeout < 0 {
		invalid("speech.timeout cannot be negative")
	}

	if len(c.Dialogue.ExitPhrases) == 0 {
		invalid("dialogue.exit_phrases cannot be empty")
	}

	return errors.Join(errs...)
}

// Marshal renders the config as YAML with secrets masked.
func (c Config) Marshal() ([]byte, error) {
	c.Listen.APIKey = mask(c.Listen.APIKey)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Speech.APIKey = mask(c.Speech.APIKey)
	return yaml.Marshal(c)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

// Duration is a time.Duration written as a Go duration string, e.g. "30s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	if d == 0 {
		return []byte{}, nil
	}
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
