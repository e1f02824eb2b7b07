// Package prompt assembles the completion prompt from conversation history,
// the new user message and the search digest.
package prompt

import (
	"strings"

	"github.com/papercomputeco/hybridchat/pkg/llm"
)

// Preamble opens every prompt.
const Preamble = "You are a helpful assistant."

// Build renders the transcript the completion model continues from. The result
// always ends with the bare AI marker so the model writes the next answer.
// Build is pure; its output grows with the length of history.
func Build(history []llm.ConversationTurn, message, digest string) string {
	var b strings.Builder

	b.WriteString(Preamble)
	b.WriteString("\n")

	for _, turn := range history {
		b.WriteString(llm.UserMarker + " " + turn.User + "\n")
		b.WriteString(llm.AIMarker + " " + turn.AI + "\n")
	}

	b.WriteString(llm.UserMarker + " " + message + "\n")
	b.WriteString("Relevant info:\n")
	b.WriteString(digest + "\n")
	b.WriteString(llm.AIMarker)

	return b.String()
}
