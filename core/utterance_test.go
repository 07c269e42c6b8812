package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/koscakluka/ema-dialogue/core/audio"
	"github.com/koscakluka/ema-dialogue/core/speechtotext"
)

type frameSource struct {
	err     error
	reads   int
	maxRead int

	paused  int
	resumed int
}

func (s *frameSource) ReadFrame(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.reads++
	if s.maxRead > 0 && s.reads > s.maxRead {
		return nil, errors.New("source exhausted")
	}
	return make([]byte, audio.GetDefaultEncodingInfo().FrameBytes(audio.DefaultFrameSize)), nil
}

type pausableSource struct{ frameSource }

func (s *pausableSource) PauseCapture() error  { s.paused++; return nil }
func (s *pausableSource) ResumeCapture() error { s.resumed++; return nil }

type decoderStep struct {
	final bool
	text  string
	err   error
}

// scriptedDecoder answers each accepted frame with the next step and keeps
// answering "not final" once the script runs out.
type scriptedDecoder struct {
	steps  []decoderStep
	fed    int
	result string
	resets int
}

func (d *scriptedDecoder) AcceptWaveform([]byte) (bool, error) {
	d.fed++
	if d.fed > len(d.steps) {
		return false, nil
	}
	step := d.steps[d.fed-1]
	if step.err != nil {
		return false, step.err
	}
	if step.final {
		d.result = step.text
	}
	return step.final, nil
}

func (d *scriptedDecoder) Result() string { return d.result }

type resettableDecoder struct{ scriptedDecoder }

func (d *resettableDecoder) Reset() { d.resets++ }

func TestAwaitUtteranceSkipsSilentSegments(t *testing.T) {
	decoder := &scriptedDecoder{steps: []decoderStep{
		{},
		{final: true, text: ""},
		{},
		{final: true, text: "   "},
		{},
		{},
		{final: true, text: "hello"},
		{final: true, text: "too late"},
	}}
	source := &frameSource{}

	text, err := NewUtteranceDetector(source, decoder).AwaitUtterance(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected %q, got %q", "hello", text)
	}
	if source.reads != 7 {
		t.Fatalf("expected to stop reading at the final frame, read %d", source.reads)
	}
}

func TestFeedReportsContinuingAndFinal(t *testing.T) {
	detector := NewUtteranceDetector(&frameSource{}, &scriptedDecoder{steps: []decoderStep{
		{},
		{final: true, text: " hello there "},
	}})

	result, err := detector.Feed(nil)
	if err != nil || result.Final {
		t.Fatalf("expected continuing result, got %+v (%v)", result, err)
	}
	result, err = detector.Feed(nil)
	if err != nil || !result.IsUtterance() || result.Text != "hello there" {
		t.Fatalf("expected trimmed final utterance, got %+v (%v)", result, err)
	}
}

func TestAwaitUtteranceDeviceFailure(t *testing.T) {
	source := &frameSource{err: errors.New("stream closed")}

	_, err := NewUtteranceDetector(source, &scriptedDecoder{}).AwaitUtterance(context.Background())

	var deviceErr *audio.DeviceError
	if !errors.As(err, &deviceErr) || deviceErr.Op != "read" {
		t.Fatalf("expected read DeviceError, got %v", err)
	}
}

func TestAwaitUtteranceKeepsExistingDeviceError(t *testing.T) {
	source := &frameSource{err: audio.NewDeviceError("start input", errors.New("busy"))}

	_, err := NewUtteranceDetector(source, &scriptedDecoder{}).AwaitUtterance(context.Background())

	var deviceErr *audio.DeviceError
	if !errors.As(err, &deviceErr) || deviceErr.Op != "start input" {
		t.Fatalf("expected original DeviceError, got %v", err)
	}
}

func TestAwaitUtteranceDecoderFailure(t *testing.T) {
	decoder := &scriptedDecoder{steps: []decoderStep{{err: speechtotext.ErrDecoderClosed}}}

	_, err := NewUtteranceDetector(&frameSource{}, decoder).AwaitUtterance(context.Background())

	var decoderErr *speechtotext.DecoderError
	if !errors.As(err, &decoderErr) {
		t.Fatalf("expected DecoderError, got %v", err)
	}
	if !errors.Is(err, speechtotext.ErrDecoderClosed) {
		t.Fatalf("expected the cause to stay reachable, got %v", err)
	}
}

func TestAwaitUtteranceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUtteranceDetector(&frameSource{}, &scriptedDecoder{}).AwaitUtterance(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAwaitUtteranceResumesAndPausesCapture(t *testing.T) {
	source := &pausableSource{}
	decoder := &resettableDecoder{scriptedDecoder{steps: []decoderStep{{final: true, text: "hi"}}}}

	if _, err := NewUtteranceDetector(source, decoder).AwaitUtterance(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if source.resumed != 1 || source.paused != 1 {
		t.Fatalf("expected capture to be resumed and paused once, got resumed=%d paused=%d", source.resumed, source.paused)
	}
	if decoder.resets != 1 {
		t.Fatalf("expected decoder to be reset before listening, got %d", decoder.resets)
	}
}

func TestAwaitUtterancePausesCaptureOnFailure(t *testing.T) {
	source := &pausableSource{frameSource{err: errors.New("overrun")}}

	if _, err := NewUtteranceDetector(source, &scriptedDecoder{}).AwaitUtterance(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
	if source.paused != 1 {
		t.Fatalf("expected capture to be paused after a failure, got %d", source.paused)
	}
}
