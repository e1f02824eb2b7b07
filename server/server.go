// Package server exposes the chatbot over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/papercomputeco/hybridchat/pkg/chatbot"
	"github.com/papercomputeco/hybridchat/pkg/history"
	"github.com/papercomputeco/hybridchat/pkg/llm"
)

// Server serves the chat API backed by a chatbot.Bot.
type Server struct {
	config Config
	bot    *chatbot.Bot
	logger *zap.Logger
	server *fiber.App
}

// New creates a new Server.
func New(config Config, bot *chatbot.Bot, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		bot:    bot,
		logger: logger,
		server: app,
	}

	app.Use(cors.New(cors.Config{
		// Reflect every origin; a literal "*" cannot be combined with credentials
		AllowOriginsFunc: func(string) bool { return true },
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowCredentials: true,
	}))

	s.registerRoutes(app)

	return s
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Get("/", s.handleRoot)
	app.Post("/chat", s.handleChat)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// History inspection endpoints
	app.Get("/history", s.handleListHistory)
	app.Get("/history/:hash", s.handleGetEntry)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server",
		zap.String("listen", s.config.ListenAddr),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(llm.WelcomeResponse{Message: llm.WelcomeMessage})
}

// handleChat answers a single chat message. Provider failures are not retried
// and leave the history untouched.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req llm.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Debug("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Error: "field required: message"})
	}

	s.logger.Debug("received chat request",
		zap.String("message_preview", truncate(*req.Message, 100)),
	)

	answer, err := s.bot.Chat(c.UserContext(), *req.Message)
	if err != nil {
		s.logger.Error("chat failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	return c.JSON(llm.ChatResponse{Response: answer})
}

// HistoryResponse lists the stored conversation.
type HistoryResponse struct {
	// Turns in chronological order (oldest first)
	Turns []HistoryEntry `json:"turns"`
	// HeadHash is the hash of the newest turn, empty when nothing is stored
	HeadHash string `json:"head_hash"`
	// Count is the number of stored turns
	Count int `json:"count"`
}

// HistoryEntry represents a stored turn.
type HistoryEntry struct {
	Hash       string  `json:"hash"`
	ParentHash *string `json:"parent_hash,omitempty"`
	User       string  `json:"user"`
	AI         string  `json:"ai"`
}

func newHistoryEntry(e *history.Entry) HistoryEntry {
	return HistoryEntry{
		Hash:       e.Hash,
		ParentHash: e.ParentHash,
		User:       e.Turn.User,
		AI:         e.Turn.AI,
	}
}

// handleListHistory returns every stored turn.
func (s *Server) handleListHistory(c *fiber.Ctx) error {
	entries := s.bot.History().Entries()

	resp := HistoryResponse{
		Turns: make([]HistoryEntry, 0, len(entries)),
		Count: len(entries),
	}
	for _, e := range entries {
		resp.Turns = append(resp.Turns, newHistoryEntry(e))
	}
	if len(entries) > 0 {
		resp.HeadHash = entries[len(entries)-1].Hash
	}

	return c.JSON(resp)
}

// handleGetEntry returns a single stored turn by its hash.
func (s *Server) handleGetEntry(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "hash parameter required"})
	}

	entry, err := s.bot.History().Get(hash)
	if err != nil {
		var notFound history.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "turn not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(newHistoryEntry(entry))
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
