// Package history holds the process-wide conversation log.
//
// Turns are chained by content hash: every entry records the hash of the
// entry appended before it, so the log's order is tamper-evident and a turn
// can be addressed by its hash.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/papercomputeco/hybridchat/pkg/llm"
)

// Entry is a single conversation turn stored in the log.
type Entry struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previously appended entry.
	// This will be nil for the first entry.
	ParentHash *string `json:"parent_hash"`

	// Turn is the stored user message and answer
	Turn llm.ConversationTurn `json:"turn"`
}

type hashInput struct {
	Turn   llm.ConversationTurn `json:"turn"`
	Parent string               `json:"parent,omitempty"`
}

// NewEntry creates an entry for turn linked to parent, with its hash computed.
func NewEntry(turn llm.ConversationTurn, parent *Entry) *Entry {
	e := &Entry{
		Turn: turn,
	}

	if parent != nil {
		parentHash := parent.Hash
		e.ParentHash = &parentHash
	}

	e.Hash = e.computeHash()
	return e
}

// clone returns a deep copy of e that shares no memory with it.
func (e *Entry) clone() *Entry {
	c := *e
	if e.ParentHash != nil {
		parentHash := *e.ParentHash
		c.ParentHash = &parentHash
	}
	return &c
}

func (e *Entry) computeHash() string {
	in := &hashInput{
		Turn: e.Turn,
	}

	if e.ParentHash != nil {
		in.Parent = *e.ParentHash
	}

	// Struct fields marshal in declaration order, which keeps the encoding canonical
	data, err := json.Marshal(in)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
