package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-dialogue/core/audio"
	"github.com/koscakluka/ema-dialogue/core/speechtotext"
)

func finalResult(transcript string, speechFinal bool) []byte {
	sf := "false"
	if speechFinal {
		sf = "true"
	}
	return []byte(`{"type":"Results","is_final":true,"speech_final":` + sf +
		`,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`)
}

func TestProcessMessageAccumulatesUntilSpeechFinal(t *testing.T) {
	d := newDecoder()

	d.processMessage([]byte(`{"type":"SpeechStarted"}`))
	d.processMessage(finalResult("what is", false))
	d.processMessage(finalResult("the weather", true))

	select {
	case got := <-d.finals:
		if got != "what is the weather" {
			t.Fatalf("expected accumulated transcript, got %q", got)
		}
	default:
		t.Fatalf("expected a finalized transcript")
	}

	if d.unendedSegment {
		t.Fatalf("expected segment to be closed after speech_final")
	}
}

func TestProcessMessageUtteranceEndFinalizesUnendedSegment(t *testing.T) {
	d := newDecoder()

	d.processMessage([]byte(`{"type":"SpeechStarted"}`))
	d.processMessage(finalResult("hello", false))
	d.processMessage([]byte(`{"type":"UtteranceEnd","last_word_end":1.2}`))

	select {
	case got := <-d.finals:
		if got != "hello" {
			t.Fatalf("expected %q, got %q", "hello", got)
		}
	default:
		t.Fatalf("expected utterance end to finalize the segment")
	}
}

func TestProcessMessageUtteranceEndWithoutSegmentIsIgnored(t *testing.T) {
	d := newDecoder()

	d.processMessage(finalResult("hello", true))
	<-d.finals
	d.processMessage([]byte(`{"type":"UtteranceEnd","last_word_end":1.2}`))

	select {
	case got := <-d.finals:
		t.Fatalf("expected no second final, got %q", got)
	default:
	}
}

func TestProcessMessageSilentSegmentYieldsEmptyFinal(t *testing.T) {
	d := newDecoder()

	d.processMessage(finalResult("", true))

	select {
	case got := <-d.finals:
		if got != "" {
			t.Fatalf("expected empty transcript, got %q", got)
		}
	default:
		t.Fatalf("expected a finalized empty transcript")
	}
}

func TestProcessMessageIgnoresInterimAndGarbage(t *testing.T) {
	d := newDecoder()

	d.processMessage([]byte(`not json`))
	d.processMessage([]byte(`{"type":"Results","is_final":false,"speech_final":false,"channel":{"alternatives":[{"transcript":"hel"}]}}`))

	if d.accumulatedTranscript != "" {
		t.Fatalf("expected interim results to be ignored, got %q", d.accumulatedTranscript)
	}
}

func TestResetDropsUncollectedFinals(t *testing.T) {
	d := newDecoder()
	d.finals <- "stale"
	d.finals <- "also stale"
	d.result = "old"

	d.Reset()

	if len(d.finals) != 0 {
		t.Fatalf("expected finals to be drained, got %d", len(d.finals))
	}
	if d.Result() != "" {
		t.Fatalf("expected result to be cleared, got %q", d.Result())
	}
}

func TestResetDropsPartialSegment(t *testing.T) {
	d := newDecoder()
	d.processMessage([]byte(`{"type":"SpeechStarted"}`))
	d.processMessage([]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"um"}]}}`))

	d.Reset()

	d.processMessage([]byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"hello"}]}}`))

	select {
	case got := <-d.finals:
		if got != "hello" {
			t.Fatalf("expected only the new utterance, got %q", got)
		}
	default:
		t.Fatalf("expected a final after speech_final")
	}

	d.processMessage([]byte(`{"type":"UtteranceEnd"}`))
	if len(d.finals) != 0 {
		t.Fatalf("expected no segment left open after reset, got %d finals", len(d.finals))
	}
}

func newTestServer(t *testing.T, handle func(conn *websocket.Conn)) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("expected token auth header, got %q", got)
		}
		query := r.URL.Query()
		if got := query.Get("encoding"); got != "linear16" {
			t.Errorf("expected linear16 encoding, got %q", got)
		}
		if got := query.Get("sample_rate"); got != "16000" {
			t.Errorf("expected 16000 sample rate, got %q", got)
		}
		if got := query.Get("model"); got != "nova-2" {
			t.Errorf("expected configured model, got %q", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	previous := listenEndpoint
	listenEndpoint = "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/listen"
	t.Cleanup(func() { listenEndpoint = previous })
}

func TestDecoderFinalizesUtteranceFromServer(t *testing.T) {
	newTestServer(t, func(conn *websocket.Conn) {
		for frames := 0; ; frames++ {
			msgType, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			if frames == 1 {
				_ = conn.WriteMessage(websocket.TextMessage, finalResult("hello there", true))
			}
		}
	})

	d, err := NewDecoder(context.Background(), "test-key", speechtotext.WithModel("nova-2"))
	if err != nil {
		t.Fatalf("expected decoder, got %v", err)
	}
	defer d.Close()

	frame := make([]byte, 640)
	deadline := time.Now().Add(2 * time.Second)
	for {
		final, err := d.AcceptWaveform(frame)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if final {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for finalized utterance")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := d.Result(); got != "hello there" {
		t.Fatalf("expected %q, got %q", "hello there", got)
	}
}

func TestDecoderReportsClosedConnection(t *testing.T) {
	newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
	})

	d, err := NewDecoder(context.Background(), "test-key", speechtotext.WithModel("nova-2"))
	if err != nil {
		t.Fatalf("expected decoder, got %v", err)
	}
	defer d.Close()

	frame := make([]byte, 640)
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := d.AcceptWaveform(frame)
		if err != nil {
			if !errors.Is(err, speechtotext.ErrDecoderClosed) {
				t.Fatalf("expected ErrDecoderClosed, got %v", err)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the decoder to notice the closed socket")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewDecoderRejectsUnsupportedSampleRate(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	_, err := NewDecoder(context.Background(), "", speechtotext.WithEncodingInfo(audioAt(11025)))
	if err == nil {
		t.Fatalf("expected unsupported sample rate to fail")
	}
}

func audioAt(sampleRate int) audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16}
}

func TestListenEncodingAcceptsOnlySupportedRates(t *testing.T) {
	testCases := []struct {
		info    audio.EncodingInfo
		allowed bool
	}{
		{info: audioAt(16000), allowed: true},
		{info: audioAt(48000), allowed: true},
		{info: audioAt(22050), allowed: false},
		{info: audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}, allowed: true},
		{info: audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingALaw}, allowed: false},
	}

	for _, testCase := range testCases {
		encoding, sampleRate, err := listenEncoding(testCase.info)
		if !testCase.allowed {
			if err == nil {
				t.Fatalf("expected %+v to be rejected", testCase.info)
			}
			continue
		}
		if err != nil {
			t.Fatalf("expected %+v to be accepted, got %v", testCase.info, err)
		}
		if encoding != testCase.info.Format.Name() || sampleRate != testCase.info.SampleRate {
			t.Fatalf("expected %s at %d, got %s at %d", testCase.info.Format.Name(), testCase.info.SampleRate, encoding, sampleRate)
		}
	}
}
