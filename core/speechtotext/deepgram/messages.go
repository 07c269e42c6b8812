package deepgram

import (
	"encoding/json"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
)

func (d *Decoder) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("Failed to unmarshal deepgram message", "error", err)
		return
	}

	d.segmentMu.Lock()
	defer d.segmentMu.Unlock()

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("Failed to unmarshal deepgram message", "error", err)
			return
		}
		if !msgResp.IsFinal {
			return
		}
		if len(msgResp.Channel.Alternatives) > 0 {
			transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
			if len(transcript) > 0 {
				d.accumulatedTranscript += " " + transcript
			}
		}
		if msgResp.SpeechFinal {
			d.onSpeechEnded()
		}

	case api.TypeUtteranceEndResponse:
		if d.unendedSegment {
			d.onSpeechEnded()
		}

	case api.TypeSpeechStartedResponse:
		d.unendedSegment = true
	}
}

// onSpeechEnded finalizes the accumulated transcript. An empty transcript is
// still delivered so callers can tell a silent segment from no segment.
// Must be called with segmentMu held.
func (d *Decoder) onSpeechEnded() {
	d.unendedSegment = false
	fullTranscript := strings.TrimSpace(d.accumulatedTranscript)
	d.accumulatedTranscript = ""

	select {
	case d.finals <- fullTranscript:
	default:
		logger.Warn("Dropping finalized transcript, nobody is collecting", "transcript", fullTranscript)
	}
}
