package speechtotext

import (
	"errors"
	"fmt"
)

// Decoder is an incremental speech-to-text decoder. It is fed raw PCM frames
// one at a time and decides on its own, using its endpointing, when an
// utterance has ended.
type Decoder interface {
	// AcceptWaveform feeds one frame to the decoder and reports whether the
	// current utterance has been finalized.
	AcceptWaveform(frame []byte) (bool, error)
	// Result returns the text of the most recently finalized utterance. It may
	// be empty when the finalized segment contained only silence or noise.
	Result() string
}

// ErrDecoderClosed is returned when audio is fed to a decoder that has
// already been closed or lost its connection.
var ErrDecoderClosed = errors.New("decoder closed")

// DecoderError reports that the recognizer itself failed, as opposed to the
// audio device feeding it.
type DecoderError struct {
	Err error
}

func (e *DecoderError) Error() string {
	return fmt.Sprintf("speech decoder failed: %v", e.Err)
}

func (e *DecoderError) Unwrap() error { return e.Err }
