package orchestration

import (
	"slices"
	"sync"

	"github.com/koscakluka/ema-dialogue/core/conversations"
	"github.com/koscakluka/ema-dialogue/core/llms"
)

// DialogueHistory is the committed conversation. It only grows, and only by
// whole exchanges, so readers never see a user turn without its reply.
type DialogueHistory struct {
	turns []llms.Turn
	mu    sync.RWMutex
}

var _ conversations.HistoryView = (*DialogueHistory)(nil)

func NewDialogueHistory() *DialogueHistory {
	return &DialogueHistory{}
}

// AppendExchange commits a user turn and the assistant's reply together.
func (h *DialogueHistory) AppendExchange(userText, assistantText string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, llms.UserTurn(userText), llms.AssistantTurn(assistantText))
}

func (h *DialogueHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

func (h *DialogueHistory) Turns() []llms.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.turns)
}

// Window returns a copy of at most the last n turns, rounded down to whole
// exchanges. n <= 0 returns everything.
func (h *DialogueHistory) Window(n int) []llms.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n >= len(h.turns) {
		return slices.Clone(h.turns)
	}
	n -= n % 2
	return slices.Clone(h.turns[len(h.turns)-n:])
}

// Values is an iterator that goes over a snapshot of the turns starting from
// the earliest towards the latest
func (h *DialogueHistory) Values(yield func(llms.Turn) bool) {
	for _, turn := range h.Turns() {
		if !yield(turn) {
			return
		}
	}
}

// RValues is an iterator that goes over a snapshot of the turns starting from
// the latest towards the earliest
func (h *DialogueHistory) RValues(yield func(llms.Turn) bool) {
	for _, turn := range slices.Backward(h.Turns()) {
		if !yield(turn) {
			return
		}
	}
}
