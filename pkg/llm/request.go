package llm

// ChatRequest is the body of POST /chat.
// Message is a pointer so a missing field can be told apart from an empty one.
type ChatRequest struct {
	Message *string `json:"message"`
}

// CompletionRequest is a single prompt submitted to the completion provider.
type CompletionRequest struct {
	Model   string  `json:"model"`   // Model identifier (e.g., "gpt-3.5-turbo-instruct")
	Prompt  string  `json:"prompt"`  // Fully assembled prompt text
	Options Options `json:"options"` // Generation parameters
}
