package history

import (
	"sync"

	"github.com/papercomputeco/hybridchat/pkg/llm"
)

// Log is an append-only, ordered sequence of conversation turns shared by all
// requests. Entries are never removed or reordered. Reads and appends are
// serialized, but a caller that snapshots, does slow work, then appends may
// race with other callers: its snapshot can miss turns appended meanwhile.
type Log struct {
	mu      sync.RWMutex
	entries []*Entry
	index   map[string]*Entry
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{
		index: make(map[string]*Entry),
	}
}

// Append links turn to the current head and stores it as the new head.
// The returned entry is a copy; changing it does not affect the log.
func (l *Log) Append(turn llm.ConversationTurn) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var parent *Entry
	if n := len(l.entries); n > 0 {
		parent = l.entries[n-1]
	}

	entry := NewEntry(turn, parent)
	l.entries = append(l.entries, entry)
	l.index[entry.Hash] = entry
	return entry.clone()
}

// Snapshot returns a copy of every stored turn, oldest first.
func (l *Log) Snapshot() []llm.ConversationTurn {
	return l.Window(0)
}

// Window returns a copy of the newest n turns, oldest first.
// Any n <= 0 returns the whole log.
func (l *Log) Window(n int) []llm.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if n > 0 && n < len(l.entries) {
		start = len(l.entries) - n
	}

	turns := make([]llm.ConversationTurn, 0, len(l.entries)-start)
	for _, e := range l.entries[start:] {
		turns = append(turns, e.Turn)
	}
	return turns
}

// Entries returns copies of the stored entries, oldest first.
func (l *Log) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e.clone())
	}
	return entries
}

// Get retrieves an entry by its hash. Returns ErrNotFound if it doesn't exist.
func (l *Log) Get(hash string) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.index[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	return entry.clone(), nil
}

// Head returns the most recently appended entry, or nil for an empty log.
func (l *Log) Head() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[len(l.entries)-1].clone()
}

// Len returns the number of stored turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ErrNotFound is returned when an entry doesn't exist in the log.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "entry not found"
	}

	return "entry not found: " + e.Hash
}
