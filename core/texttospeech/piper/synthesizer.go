// Package piper synthesizes speech offline by running the piper binary.
package piper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/koscakluka/ema-dialogue/core/texttospeech"
)

const (
	DefaultBinary     = "piper"
	defaultSampleRate = 22050
)

type Synthesizer struct {
	binary string
}

var _ texttospeech.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(binary string) *Synthesizer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Synthesizer{binary: binary}
}

// Synthesize runs piper with voice as the path to an .onnx voice model and
// reads raw 16-bit mono audio from its stdout. The sample rate is taken from
// the model's .onnx.json config when present.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (texttospeech.Waveform, error) {
	if voice == "" {
		return texttospeech.Waveform{}, errors.New("piper needs a voice model path")
	}

	cmd := exec.CommandContext(ctx, s.binary, "--model", voice, "--output_raw")
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return texttospeech.Waveform{}, fmt.Errorf("piper interrupted: %w", ctx.Err())
		}
		return texttospeech.Waveform{}, fmt.Errorf("piper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return texttospeech.Waveform{PCM: stdout.Bytes(), SampleRate: modelSampleRate(voice)}, nil
}

type modelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
}

func modelSampleRate(model string) int {
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		return defaultSampleRate
	}
	var config modelConfig
	if err := json.Unmarshal(data, &config); err != nil || config.Audio.SampleRate <= 0 {
		return defaultSampleRate
	}
	return config.Audio.SampleRate
}
