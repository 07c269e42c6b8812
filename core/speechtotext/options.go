package speechtotext

import "github.com/koscakluka/ema-dialogue/core/audio"

type DecoderOptions struct {
	// Model is the recognition model name, provider specific.
	Model string
	// Language is a BCP-47 language tag, e.g. "en-US".
	Language string
	// EndpointingMs is how much trailing silence ends a speech segment.
	EndpointingMs int
	// UtteranceEndMs is the gap between words after which an utterance is
	// considered complete even without a clean endpoint.
	UtteranceEndMs int

	EncodingInfo audio.EncodingInfo
}

type DecoderOption func(*DecoderOptions)

func DefaultDecoderOptions() DecoderOptions {
	return DecoderOptions{
		Model:          "nova-3",
		Language:       "en-US",
		EndpointingMs:  300,
		UtteranceEndMs: 1000,
		EncodingInfo:   audio.GetDefaultEncodingInfo(),
	}
}

func WithModel(model string) DecoderOption {
	return func(o *DecoderOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithLanguage(language string) DecoderOption {
	return func(o *DecoderOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

func WithEndpointing(ms int) DecoderOption {
	return func(o *DecoderOptions) {
		if ms > 0 {
			o.EndpointingMs = ms
		}
	}
}

func WithUtteranceEnd(ms int) DecoderOption {
	return func(o *DecoderOptions) {
		if ms > 0 {
			o.UtteranceEndMs = ms
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) DecoderOption {
	return func(o *DecoderOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}
