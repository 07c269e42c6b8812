package openai

import (
	"github.com/koscakluka/ema-dialogue/core/llms"
	"github.com/openai/openai-go"
)

func toOpenAIMessages(turns []llms.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case llms.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case llms.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case llms.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			logger.Warn("Skipping turn with unknown role", "role", turn.Role)
		}
	}
	return messages
}
