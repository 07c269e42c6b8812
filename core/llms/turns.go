package llms

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in the dialogue. Turns are values and are never
// modified once created.
type Turn struct {
	Role Role
	// Content is the prompt in the user's turn, the reply in the assistant's
	// turn and the instructions in a system turn.
	Content string
}

func UserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }
func SystemTurn(content string) Turn    { return Turn{Role: RoleSystem, Content: content} }

// BuildMessages returns the sequence sent to a chat backend: the system
// prompt, the prior history and the new user text. The history slice is
// copied, never appended to.
func BuildMessages(history []Turn, userText, systemPrompt string) []Turn {
	messages := make([]Turn, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, SystemTurn(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserTurn(userText))
	return messages
}
