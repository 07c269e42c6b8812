package texttospeech

import "fmt"

type Stage string

const (
	StageSynthesis Stage = "synthesis"
	StagePlayback  Stage = "playback"
)

// SpeechOutputError reports that an utterance could not be spoken. It never
// ends a session.
type SpeechOutputError struct {
	Stage Stage
	Err   error
}

func (e *SpeechOutputError) Error() string {
	return fmt.Sprintf("speech output failed during %s: %v", e.Stage, e.Err)
}

func (e *SpeechOutputError) Unwrap() error { return e.Err }
