package llm

// ConversationTurn is one user message paired with the generated answer.
type ConversationTurn struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}
