package llm

// ChatResponse is the body returned by a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// WelcomeResponse is the body returned by GET /.
type WelcomeResponse struct {
	Message string `json:"message"`
}

// WelcomeMessage greets clients hitting the service root.
const WelcomeMessage = "Welcome to the chatbot API. Use the /chat endpoint to interact."
