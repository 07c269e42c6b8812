package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	orchestration "github.com/koscakluka/ema-dialogue/core"
	"github.com/koscakluka/ema-dialogue/core/audio/miniaudio"
	"github.com/koscakluka/ema-dialogue/core/audio/portaudio"
	"github.com/koscakluka/ema-dialogue/core/llms"
	"github.com/koscakluka/ema-dialogue/core/llms/ollama"
	"github.com/koscakluka/ema-dialogue/core/llms/openai"
	"github.com/koscakluka/ema-dialogue/core/speechtotext"
	sttdeepgram "github.com/koscakluka/ema-dialogue/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-dialogue/core/texttospeech"
	ttsdeepgram "github.com/koscakluka/ema-dialogue/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-dialogue/core/texttospeech/piper"
	"github.com/koscakluka/ema-dialogue/internal/config"
)

// audioDevice is a full duplex device: frames in, PCM out.
type audioDevice interface {
	orchestration.AudioSource
	orchestration.CapturePauser
	texttospeech.Player
	io.Closer
}

var (
	_ audioDevice = (*portaudio.Client)(nil)
	_ audioDevice = (*miniaudio.Client)(nil)
)

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := openAudioDevice(cfg.Audio)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			slog.Warn("failed to close audio device", "error", err)
		}
	}()

	decoder, err := sttdeepgram.NewDecoder(ctx, cfg.Listen.APIKey,
		speechtotext.WithModel(cfg.Listen.Model),
		speechtotext.WithLanguage(cfg.Listen.Language),
		speechtotext.WithEndpointing(cfg.Listen.EndpointingMs),
		speechtotext.WithUtteranceEnd(cfg.Listen.UtteranceEndMs),
	)
	if err != nil {
		return fmt.Errorf("failed to start speech recognition: %w", err)
	}
	defer func() {
		if err := decoder.Close(); err != nil {
			slog.Debug("failed to close speech recognition", "error", err)
		}
	}()

	synthesizer, err := newSynthesizer(cfg.Speech)
	if err != nil {
		return err
	}

	out := newConsole(cmd.OutOrStdout())
	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithListener(orchestration.NewUtteranceDetector(device, decoder)),
		orchestration.WithResponseEngine(newResponseEngine(cfg.LLM)),
		orchestration.WithSpeaker(texttospeech.NewSpeaker(synthesizer, device, texttospeech.WithVoice(cfg.Speech.Voice))),
		orchestration.WithSystemPrompt(cfg.Dialogue.SystemPrompt),
		orchestration.WithExitPhrases(cfg.Dialogue.ExitPhrases...),
		orchestration.WithFarewell(cfg.Dialogue.Farewell),
		orchestration.WithFallbackReply(cfg.Dialogue.FallbackReply),
		orchestration.WithReplyTimeout(cfg.LLM.Timeout.Std()),
		orchestration.WithSpeechTimeout(cfg.Speech.Timeout.Std()),
		orchestration.WithHistoryWindow(cfg.LLM.HistoryWindow),
		orchestration.WithEventHandler(out.Handle),
	)

	slog.Debug("starting session",
		"audio", cfg.Audio.Backend,
		"llm", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"speech", cfg.Speech.Provider,
		"voice", cfg.Speech.Voice,
	)
	out.Banner(orchestrator.ExitPhrases()[0])

	return orchestrator.Run(ctx)
}

func openAudioDevice(cfg config.AudioConfig) (audioDevice, error) {
	var (
		device audioDevice
		err    error
	)
	switch cfg.Backend {
	case config.AudioBackendMiniaudio:
		device, err = miniaudio.NewClient(cfg.FrameSize, cfg.PlaybackSampleRate)
	case config.AudioBackendPortAudio:
		device, err = portaudio.NewClient(cfg.FrameSize, cfg.PlaybackSampleRate)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s audio device: %w", cfg.Backend, err)
	}
	return device, nil
}

func newResponseEngine(cfg config.LLMConfig) orchestration.ResponseEngine {
	opts := []llms.EngineOption{
		llms.WithModel(cfg.Model),
		llms.WithTemperature(cfg.Temperature),
		llms.WithBaseURL(cfg.BaseURL),
		llms.WithAPIKey(cfg.APIKey),
		llms.WithMaxRetries(cfg.MaxRetries),
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderGroq:
		return openai.NewEngine(opts...)
	default:
		return ollama.NewEngine(opts...)
	}
}

func newSynthesizer(cfg config.SpeechConfig) (texttospeech.Synthesizer, error) {
	switch cfg.Provider {
	case config.SpeechProviderPiper:
		return piper.NewSynthesizer(cfg.PiperBinary), nil
	case config.SpeechProviderDeepgram:
		synthesizer, err := ttsdeepgram.NewSynthesizer(cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to set up speech synthesis: %w", err)
		}
		return synthesizer, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}
