package llm

// Options contains model inference parameters.
type Options struct {
	MaxTokens   int      `json:"max_tokens"`  // Max tokens to generate
	Temperature float64  `json:"temperature"` // Sampling temperature
	Stop        []string `json:"stop"`        // Stop generation at these sequences
}

// Markers that open a new turn in the prompt transcript. The model is stopped
// as soon as it tries to write either one.
const (
	UserMarker = "User:"
	AIMarker   = "AI:"
)

// DefaultOptions returns the fixed generation parameters used for every chat
// completion. They are process-wide and never set per request.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   300,
		Temperature: 0.7,
		Stop:        []string{UserMarker, AIMarker},
	}
}
