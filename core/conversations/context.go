package conversations

import "github.com/koscakluka/ema-dialogue/core/llms"

// HistoryView exposes the committed dialogue to observers without allowing
// them to modify it.
type HistoryView interface {
	// Turns returns a copy of the committed turns. Ordering: oldest -> newest.
	Turns() []llms.Turn
	// Len is the number of committed turns. It is always even.
	Len() int

	Values(yield func(llms.Turn) bool)
	RValues(yield func(llms.Turn) bool)
}
