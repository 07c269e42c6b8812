package ollama

import (
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-dialogue/core/llms"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

func toMessages(turns []llms.Turn) ([]message, error) {
	messages := []message{}
	if err := copier.Copy(&messages, turns); err != nil {
		return nil, err
	}
	return messages, nil
}

type requestBody struct {
	Model    string         `json:"model"`
	Messages []message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  requestOptions `json:"options"`
}

type requestOptions struct {
	Temperature float64 `json:"temperature"`
}

type responseBody struct {
	Model   string  `json:"model"`
	Message message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}
