package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
	// DefaultFrameSize is the number of samples pulled from the input device
	// per read.
	DefaultFrameSize = 4096
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case encodingFormat("alaw"):
		return 0x55
	case encodingFormat("mulaw"):
		return 0xFF
	case encodingFormat("linear16"):
		return 0
	}

	return 0
}

// FrameBytes returns the size in bytes of a mono frame holding the given
// number of samples.
func (e EncodingInfo) FrameBytes(samples int) int {
	return samples * e.Format.ByteSize()
}

// Duration returns how long the given number of bytes of mono audio plays
// for.
func (e EncodingInfo) Duration(bytes int) time.Duration {
	if e.SampleRate <= 0 || e.Format.ByteSize() <= 0 {
		return 0
	}
	samples := bytes / e.Format.ByteSize()
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case encodingFormat("mulaw"), encodingFormat("alaw"):
		return 1
	case encodingFormat("linear16"):
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
