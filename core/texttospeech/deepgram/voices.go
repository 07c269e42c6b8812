package deepgram

import "slices"

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-asteria-en"

var availableVoices = []deepgramVoice{
	"aura-asteria-en",
	"aura-luna-en",
	"aura-stella-en",
	"aura-athena-en",
	"aura-hera-en",
	"aura-orion-en",
	"aura-arcas-en",
	"aura-perseus-en",
	"aura-angus-en",
	"aura-orpheus-en",
	"aura-helios-en",
	"aura-zeus-en",
	"aura-2-thalia-en",
	"aura-2-andromeda-en",
	"aura-2-helena-en",
	"aura-2-apollo-en",
	"aura-2-arcas-en",
	"aura-2-aries-en",
}

func GetAvailableVoices() []deepgramVoice {
	return slices.Clone(availableVoices)
}

// IsAvailableVoice reports whether voice is one of the known Aura voices.
func IsAvailableVoice(voice string) bool {
	return slices.Contains(availableVoices, deepgramVoice(voice))
}
