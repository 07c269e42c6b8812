package texttospeech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-dialogue/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errEmptyWaveform = errors.New("synthesizer returned no audio")

// Speaker says one utterance at a time: it synthesizes the whole text, adapts
// the waveform to the output device and blocks until it has been played.
type Speaker struct {
	synthesizer Synthesizer
	player      Player
	voice       string
}

type SpeakerOption func(*Speaker)

func WithVoice(voice string) SpeakerOption {
	return func(s *Speaker) { s.voice = voice }
}

func NewSpeaker(synthesizer Synthesizer, player Player, opts ...SpeakerOption) *Speaker {
	s := &Speaker{synthesizer: synthesizer, player: player}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Say speaks text and returns after playback has drained. Empty text is
// not spoken. Failures are returned as [*SpeechOutputError].
func (s *Speaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "say")
	defer span.End()
	span.SetAttributes(attribute.Int("speech.text_length", len(text)))

	if err := s.say(ctx, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "speech output failed")
		return err
	}
	return nil
}

func (s *Speaker) say(ctx context.Context, text string) error {
	waveform, err := s.synthesizer.Synthesize(ctx, text, s.voice)
	if err != nil {
		return &SpeechOutputError{Stage: StageSynthesis, Err: err}
	}
	if len(waveform.PCM) == 0 {
		return &SpeechOutputError{Stage: StageSynthesis, Err: errEmptyWaveform}
	}

	pcm := waveform.PCM
	playbackRate := s.player.PlaybackEncodingInfo().SampleRate
	if waveform.SampleRate != playbackRate {
		logger.Debug("Resampling synthesized speech", "from", waveform.SampleRate, "to", playbackRate)
		if pcm, err = audio.Resample(pcm, waveform.SampleRate, playbackRate); err != nil {
			return &SpeechOutputError{Stage: StageSynthesis, Err: fmt.Errorf("failed to resample speech: %w", err)}
		}
	}

	if err := s.player.Play(ctx, pcm); err != nil {
		return &SpeechOutputError{Stage: StagePlayback, Err: err}
	}
	return nil
}
