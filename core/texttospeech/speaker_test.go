package texttospeech

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/koscakluka/ema-dialogue/core/audio"
)

type stubSynthesizer struct {
	waveform Waveform
	err      error
	calls    atomic.Int32
	voice    string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, voice string) (Waveform, error) {
	s.calls.Add(1)
	s.voice = voice
	return s.waveform, s.err
}

type stubPlayer struct {
	rate   int
	err    error
	played [][]byte
}

func (p *stubPlayer) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: p.rate, Format: audio.EncodingLinear16}
}

func (p *stubPlayer) Play(_ context.Context, pcm []byte) error {
	p.played = append(p.played, pcm)
	return p.err
}

func TestSayEmptyTextIsNoop(t *testing.T) {
	synth := &stubSynthesizer{}
	player := &stubPlayer{rate: 16000}

	if err := NewSpeaker(synth, player).Say(context.Background(), "   "); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if synth.calls.Load() != 0 || len(player.played) != 0 {
		t.Fatalf("expected nothing to be synthesized or played")
	}
}

func TestSayPlaysWaveformAtMatchingRate(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	synth := &stubSynthesizer{waveform: Waveform{PCM: pcm, SampleRate: 16000}}
	player := &stubPlayer{rate: 16000}

	if err := NewSpeaker(synth, player, WithVoice("aura-luna-en")).Say(context.Background(), "Goodbye."); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if synth.voice != "aura-luna-en" {
		t.Fatalf("expected configured voice, got %q", synth.voice)
	}
	if len(player.played) != 1 || !bytes.Equal(player.played[0], pcm) {
		t.Fatalf("expected waveform to be played unchanged, got %v", player.played)
	}
}

func TestSayResamplesToPlaybackRate(t *testing.T) {
	pcm := make([]byte, 24000*2/10) // 100ms at 24kHz
	synth := &stubSynthesizer{waveform: Waveform{PCM: pcm, SampleRate: 24000}}
	player := &stubPlayer{rate: 16000}

	if err := NewSpeaker(synth, player).Say(context.Background(), "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(player.played) != 1 {
		t.Fatalf("expected one playback, got %d", len(player.played))
	}
	expected := 16000 * 2 / 10
	if got := len(player.played[0]); got == 0 || got > expected {
		t.Fatalf("expected up to %d resampled bytes, got %d", expected, got)
	}
}

func TestSaySynthesisFailure(t *testing.T) {
	synth := &stubSynthesizer{err: errors.New("quota exceeded")}
	player := &stubPlayer{rate: 16000}

	err := NewSpeaker(synth, player).Say(context.Background(), "hello")

	var speechErr *SpeechOutputError
	if !errors.As(err, &speechErr) || speechErr.Stage != StageSynthesis {
		t.Fatalf("expected synthesis SpeechOutputError, got %v", err)
	}
	if len(player.played) != 0 {
		t.Fatalf("expected nothing to be played")
	}
}

func TestSayEmptyWaveformIsSynthesisFailure(t *testing.T) {
	synth := &stubSynthesizer{waveform: Waveform{SampleRate: 16000}}

	err := NewSpeaker(synth, &stubPlayer{rate: 16000}).Say(context.Background(), "hello")

	var speechErr *SpeechOutputError
	if !errors.As(err, &speechErr) || speechErr.Stage != StageSynthesis {
		t.Fatalf("expected synthesis SpeechOutputError, got %v", err)
	}
}

func TestSayPlaybackFailure(t *testing.T) {
	deviceErr := audio.NewDeviceError("write", errors.New("device unplugged"))
	synth := &stubSynthesizer{waveform: Waveform{PCM: []byte{1, 0}, SampleRate: 16000}}
	player := &stubPlayer{rate: 16000, err: deviceErr}

	err := NewSpeaker(synth, player).Say(context.Background(), "hello")

	var speechErr *SpeechOutputError
	if !errors.As(err, &speechErr) || speechErr.Stage != StagePlayback {
		t.Fatalf("expected playback SpeechOutputError, got %v", err)
	}
	var unwrapped *audio.DeviceError
	if !errors.As(err, &unwrapped) {
		t.Fatalf("expected the device error to stay reachable, got %v", err)
	}
}

func TestWaveformDuration(t *testing.T) {
	w := Waveform{PCM: make([]byte, 32000), SampleRate: 16000}

	if got := w.Duration().Milliseconds(); got != 1000 {
		t.Fatalf("expected 1000ms, got %d", got)
	}
}
