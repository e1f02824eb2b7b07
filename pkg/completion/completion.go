// Package completion sends assembled prompts to an OpenAI-compatible text
// completion endpoint.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/papercomputeco/hybridchat/pkg/llm"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is an instruct model served by the legacy completions endpoint.
	DefaultModel = "gpt-3.5-turbo-instruct"
)

// ErrNoChoices is returned when the provider answers without any choice.
var ErrNoChoices = errors.New("completion response has no choices")

// Config configures a Client.
type Config struct {
	// APIKey authenticates against the provider
	APIKey string

	// BaseURL overrides DefaultBaseURL
	BaseURL string

	// Model overrides DefaultModel
	Model string

	// Timeout bounds a single completion request. Zero means no timeout.
	Timeout time.Duration
}

// Client calls the completions endpoint.
type Client struct {
	client  openai.Client
	model   string
	options llm.Options
	logger  *zap.Logger
}

// New creates a Client that uses the fixed llm.DefaultOptions for every call.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("completion api key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
		// Provider failures surface to the caller as-is
		option.WithMaxRetries(0),
	)

	return &Client{
		client:  client,
		model:   config.Model,
		options: llm.DefaultOptions(),
		logger:  logger,
	}, nil
}

// Complete submits prompt and returns the text of the first choice, untrimmed.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := llm.CompletionRequest{
		Model:   c.model,
		Prompt:  prompt,
		Options: c.options,
	}

	c.logger.Debug("requesting completion",
		zap.String("model", req.Model),
		zap.Int("prompt_size", len(req.Prompt)),
	)

	resp, err := c.client.Completions.New(ctx, newParams(req))
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Debug("completion received",
		zap.String("model", resp.Model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return resp.Choices[0].Text, nil
}

func newParams(req llm.CompletionRequest) openai.CompletionNewParams {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(req.Model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(req.Prompt),
		},
		Temperature: openai.Float(req.Options.Temperature),
	}

	if req.Options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Options.MaxTokens))
	}
	if len(req.Options.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{
			OfStringArray: req.Options.Stop,
		}
	}

	return params
}
