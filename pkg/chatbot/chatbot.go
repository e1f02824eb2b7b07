// Package chatbot orchestrates a single chat exchange: search for grounding,
// build the prompt, ask the completion provider and record the turn.
package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/hybridchat/pkg/history"
	"github.com/papercomputeco/hybridchat/pkg/llm"
	"github.com/papercomputeco/hybridchat/pkg/prompt"
)

// Searcher reduces a query to a short text digest.
type Searcher interface {
	Digest(ctx context.Context, query string) (string, error)
}

// Completer continues a prompt and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tunes a Bot.
type Options struct {
	// HistoryWindow caps how many of the newest turns are put in the prompt.
	// Zero or less sends the whole history.
	HistoryWindow int
}

// Bot runs chat exchanges against a shared history.
type Bot struct {
	searcher  Searcher
	completer Completer
	history   *history.Log
	options   Options
	logger    *zap.Logger
}

// New creates a Bot. The history is owned by the Bot from here on.
func New(searcher Searcher, completer Completer, log *history.Log, options Options, logger *zap.Logger) *Bot {
	return &Bot{
		searcher:  searcher,
		completer: completer,
		history:   log,
		options:   options,
		logger:    logger,
	}
}

// History returns the log the Bot appends to.
func (b *Bot) History() *history.Log {
	return b.history
}

// Chat answers message. On any failure the error is returned and the history
// is left unchanged.
func (b *Bot) Chat(ctx context.Context, message string) (string, error) {
	startTime := time.Now()

	digest, err := b.searcher.Digest(ctx, message)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}

	// The snapshot may miss turns appended by requests still in flight
	turns := b.history.Window(b.options.HistoryWindow)
	text := prompt.Build(turns, message, digest)

	b.logger.Debug("prompt assembled",
		zap.Int("history_turns", len(turns)),
		zap.Int("prompt_size", len(text)),
		zap.String("digest_preview", truncate(digest, 100)),
	)

	completion, err := b.completer.Complete(ctx, text)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	answer := strings.TrimSpace(completion)
	entry := b.history.Append(llm.ConversationTurn{User: message, AI: answer})

	b.logger.Info("turn recorded",
		zap.String("hash", truncate(entry.Hash, 16)),
		zap.String("answer_preview", truncate(answer, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return answer, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
