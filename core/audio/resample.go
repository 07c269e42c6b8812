package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// resampleTailMs is the silence appended before resampling so the filter's
// internal delay line is flushed and the end of the utterance is not cut.
const resampleTailMs = 50

// Resample converts mono linear16 PCM from one sample rate to another. When
// the rates match, pcm is returned unchanged.
func Resample(pcm []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate || len(pcm) < 2 {
		return pcm, nil
	}

	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	samples := make([]int16, len(pcm)/2)
	BytesToInt16(samples, pcm)

	input := make([]float64, len(samples)+fromRate*resampleTailMs/1000)
	for i, sample := range samples {
		input[i] = float64(sample) / 32768.0
	}

	output, err := resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	// Drop whatever the tail padding produced beyond the expected length.
	expected := int(int64(len(samples)) * int64(toRate) / int64(fromRate))
	if len(output) > expected {
		output = output[:expected]
	}

	converted := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s > 1.0:
			converted[i] = 32767
		case s < -1.0:
			converted[i] = -32768
		default:
			converted[i] = int16(s * 32767.0)
		}
	}
	return Int16ToBytes(converted), nil
}
