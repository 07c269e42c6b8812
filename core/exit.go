package orchestration

import (
	"slices"
	"strings"
	"unicode"
)

var DefaultExitPhrases = []string{"exit", "quit"}

// ExitVocabulary is the set of utterances that end a session. Matching is
// case-insensitive and ignores surrounding whitespace and punctuation, so
// "Exit." matches "exit" but "exit now" does not.
type ExitVocabulary struct {
	phrases []string
}

func NewExitVocabulary(phrases ...string) ExitVocabulary {
	v := ExitVocabulary{}
	for _, phrase := range phrases {
		if normalized := normalizeUtterance(phrase); normalized != "" && !slices.Contains(v.phrases, normalized) {
			v.phrases = append(v.phrases, normalized)
		}
	}
	return v
}

func (v ExitVocabulary) Matches(transcript string) bool {
	return slices.Contains(v.phrases, normalizeUtterance(transcript))
}

func (v ExitVocabulary) Phrases() []string {
	return slices.Clone(v.phrases)
}

func normalizeUtterance(text string) string {
	return strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}
