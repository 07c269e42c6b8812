// Package events defines the typed events a dialogue session reports.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//
// session events
//
//   - SessionStateChanged (session.state_changed): the session moved between
//     listening, thinking, speaking and terminated.
//   - SessionTerminated (session.terminated): the session ended; carries the
//     reason and, for fatal failures, the error.
//
// user_input events
//
//   - UserTranscriptFinal (user_input.transcript_final): a finalized,
//     non-empty utterance.
//   - UserExitRequested (user_input.exit_requested): the utterance matched the
//     exit vocabulary.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): the language
//     model was asked for a reply.
//   - AssistantResponseFinal (assistant_response.final): reply text that was
//     committed to history.
//   - AssistantResponseFailed (assistant_response.failed): no reply could be
//     produced; carries the fallback text spoken instead.
//
// assistant_speech events
//
//   - AssistantSpeechStarted (assistant_speech.started): an utterance is being
//     synthesized and played.
//   - AssistantSpeechEnded (assistant_speech.ended): playback drained.
//   - AssistantSpeechFailed (assistant_speech.failed): the utterance could not
//     be spoken.
package events
