package deepgram

import (
	"fmt"
	"slices"

	"github.com/koscakluka/ema-dialogue/core/audio"
)

// listenSampleRates lists the rates the listen endpoint accepts for raw audio
// of each encoding.
var listenSampleRates = map[string][]int{
	audio.EncodingLinear16.Name(): {8000, 16000, 24000, 32000, 48000},
	audio.EncodingALaw.Name():     {8000},
	audio.EncodingMulaw.Name():    {8000},
}

// listenEncoding returns the encoding and sample_rate query values for raw
// audio described by info.
func listenEncoding(info audio.EncodingInfo) (string, int, error) {
	name := info.Format.Name()
	rates, ok := listenSampleRates[name]
	if !ok {
		return "", 0, fmt.Errorf("unsupported encoding %q", name)
	}
	if !slices.Contains(rates, info.SampleRate) {
		return "", 0, fmt.Errorf("unsupported sample rate %d for %s audio", info.SampleRate, name)
	}
	return name, info.SampleRate, nil
}
