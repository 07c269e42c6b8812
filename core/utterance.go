package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/koscakluka/ema-dialogue/core/audio"
	"github.com/koscakluka/ema-dialogue/core/speechtotext"
)

// AudioSource delivers fixed-size frames of 16 kHz mono linear16 audio.
type AudioSource interface {
	ReadFrame(ctx context.Context) ([]byte, error)
}

// CapturePauser is implemented by sources that can stop recording between
// turns.
type CapturePauser interface {
	PauseCapture() error
	ResumeCapture() error
}

// DecoderResetter is implemented by decoders that can drop results finalized
// while nobody was listening.
type DecoderResetter interface {
	Reset()
}

// UtteranceResult is the outcome of feeding one frame: either the decoder
// finalized a segment (Final, possibly with empty Text) or it is still
// listening.
type UtteranceResult struct {
	Final bool
	Text  string
}

func continuing() UtteranceResult           { return UtteranceResult{} }
func final(text string) UtteranceResult     { return UtteranceResult{Final: true, Text: text} }
func (r UtteranceResult) IsUtterance() bool { return r.Final && r.Text != "" }

// UtteranceDetector turns a stream of audio frames into whole utterances
// using the decoder's own endpointing.
type UtteranceDetector struct {
	source  AudioSource
	decoder speechtotext.Decoder
}

func NewUtteranceDetector(source AudioSource, decoder speechtotext.Decoder) *UtteranceDetector {
	return &UtteranceDetector{source: source, decoder: decoder}
}

// Feed passes one frame to the decoder.
func (d *UtteranceDetector) Feed(frame []byte) (UtteranceResult, error) {
	isFinal, err := d.decoder.AcceptWaveform(frame)
	if err != nil {
		return UtteranceResult{}, &speechtotext.DecoderError{Err: err}
	}
	if !isFinal {
		return continuing(), nil
	}
	return final(strings.TrimSpace(d.decoder.Result())), nil
}

// AwaitUtterance reads frames until the decoder finalizes a segment with
// text and returns that text. Silent segments are skipped. A frame that
// cannot be read is an [*audio.DeviceError], a failing decoder a
// [*speechtotext.DecoderError].
func (d *UtteranceDetector) AwaitUtterance(ctx context.Context) (string, error) {
	if pauser, ok := d.source.(CapturePauser); ok {
		if err := pauser.ResumeCapture(); err != nil {
			return "", asDeviceError("resume capture", err)
		}
		defer func() {
			if err := pauser.PauseCapture(); err != nil {
				logger.Warn("Failed to pause capture", "error", err)
			}
		}()
	}
	if resetter, ok := d.decoder.(DecoderResetter); ok {
		resetter.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		frame, err := d.source.ReadFrame(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", asDeviceError("read", err)
		}

		result, err := d.Feed(frame)
		if err != nil {
			return "", err
		}
		if result.IsUtterance() {
			return result.Text, nil
		}
		if result.Final {
			logger.Debug("Skipping silent segment")
		}
	}
}

func asDeviceError(op string, err error) error {
	var deviceErr *audio.DeviceError
	if errors.As(err, &deviceErr) {
		return err
	}
	return audio.NewDeviceError(op, err)
}
