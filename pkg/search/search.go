// Package search queries the Google Custom Search JSON API and reduces its
// results to a short text digest for prompt grounding.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Google APIs host serving Custom Search.
	DefaultBaseURL = "https://www.googleapis.com"

	// NoResults is the digest used when the provider returns no items.
	NoResults = "No results."

	// MaxSnippets caps how many result snippets make it into a digest.
	MaxSnippets = 3
)

// Result is a single item returned by the search provider.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// ErrMissingSnippet is returned when a result that would enter the digest has
// no snippet field.
var ErrMissingSnippet = errors.New("search item missing snippet")

// StatusError is returned when the provider answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search provider returned %d: %s", e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	// APIKey is the Google API key
	APIKey string

	// EngineID is the programmable search engine identifier (cx)
	EngineID string

	// BaseURL overrides DefaultBaseURL; used to point at a test server
	BaseURL string

	// Timeout bounds a single search request. Zero means no timeout.
	Timeout time.Duration
}

// Client issues searches against the Custom Search API.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a Client.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("search api key is required")
	}
	if strings.TrimSpace(config.EngineID) == "" {
		return nil, errors.New("search engine id is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Search runs query and returns the provider's items in provider order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", c.config.APIKey)
	params.Set("cx", c.config.EngineID)
	params.Set("q", query)

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/customsearch/v1?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("querying search provider",
		zap.String("query", query),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Items []struct {
			Title   string  `json:"title"`
			Link    string  `json:"link"`
			Snippet *string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.logger.Debug("search provider answered",
		zap.Int("items", len(payload.Items)),
	)

	results := make([]Result, 0, len(payload.Items))
	for i, item := range payload.Items {
		if item.Snippet == nil {
			// Only the items that reach the digest must carry a snippet.
			if i < MaxSnippets {
				return nil, fmt.Errorf("item %d: %w", i, ErrMissingSnippet)
			}
			continue
		}
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: *item.Snippet})
	}

	return results, nil
}

// redact masks the API key in the URL carried by transport errors so it
// never reaches logs.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.config.APIKey), "REDACTED"),
		Err: urlErr.Err,
	}
}

// Digest runs query and summarizes the results.
func (c *Client) Digest(ctx context.Context, query string) (string, error) {
	results, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return Summarize(results), nil
}

// Summarize joins the snippets of the first MaxSnippets results with newlines.
// An empty result set yields NoResults.
func Summarize(results []Result) string {
	if len(results) > MaxSnippets {
		results = results[:MaxSnippets]
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
	}

	digest := strings.Join(snippets, "\n")
	if digest == "" {
		return NoResults
	}
	return digest
}
