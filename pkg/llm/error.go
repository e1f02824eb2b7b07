// Package llm provides the request and response shapes exchanged with chat
// clients and the text-completion provider.
package llm

// ErrorResponse represents an error returned to HTTP clients.
type ErrorResponse struct {
	Error string `json:"error"`
}
