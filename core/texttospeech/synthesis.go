package texttospeech

import (
	"context"
	"time"

	"github.com/koscakluka/ema-dialogue/core/audio"
)

// Waveform is synthesized mono linear16 audio.
type Waveform struct {
	PCM        []byte
	SampleRate int
}

func (w Waveform) Duration() time.Duration {
	return audio.EncodingInfo{SampleRate: w.SampleRate, Format: audio.EncodingLinear16}.Duration(len(w.PCM))
}

// Synthesizer turns text into a complete waveform in one call.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (Waveform, error)
}

// Player plays linear16 PCM on an output device and returns once it has been
// played out.
type Player interface {
	PlaybackEncodingInfo() audio.EncodingInfo
	Play(ctx context.Context, pcm []byte) error
}
