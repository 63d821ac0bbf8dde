// Package newsapi implements a client for the newsapi.org search API.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/samber/lo"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/store"
)

// DefaultEndpoint is the search endpoint of newsapi.org.
const DefaultEndpoint = "https://newsapi.org/v2/everything"

// ErrUnknownCategory is returned when the requested category is not configured.
var ErrUnknownCategory = errors.New("unknown category")

// NetworkError is returned when the search request could not be completed
// or its response could not be understood.
type NetworkError struct {
	Query string
	Err   error
}

// Error implements error.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("search news %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Params describes the connection to the API.
type Params struct {
	Endpoint   string
	APIKey     string
	Categories []string
}

// Client searches articles in the news API.
// It makes a single attempt for every query, there are no retries.
type Client struct {
	log *slog.Logger
	cl  *http.Client
	Params
}

// NewClient makes new Client.
func NewClient(lg *slog.Logger, cl *http.Client, params Params) *Client {
	if params.Endpoint == "" {
		params.Endpoint = DefaultEndpoint
	}
	return &Client{log: lg, cl: cl, Params: params}
}

type searchResponse struct {
	Status       string          `json:"status"`
	Code         string          `json:"code"`
	Message      string          `json:"message"`
	TotalResults int             `json:"totalResults"`
	Articles     []store.Article `json:"articles"`
}

// Search returns articles matching the query in the order the API returned them.
func (c *Client) Search(ctx context.Context, query string) ([]store.Article, error) {
	articles, err := c.search(ctx, query)
	if err != nil {
		return nil, &NetworkError{Query: query, Err: err}
	}

	c.log.DebugCtx(ctx, "articles found",
		slog.String("query", query),
		slog.Int("count", len(articles)))

	return articles, nil
}

// Category returns articles of the configured category, categories are
// plain queries to the API.
func (c *Client) Category(ctx context.Context, id string) ([]store.Article, error) {
	if !lo.Contains(c.Categories, id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	return c.Search(ctx, id)
}

func (c *Client) search(ctx context.Context, query string) ([]store.Article, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("apiKey", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	var body searchResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("bad status code: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok || body.Status == "error" {
		return nil, fmt.Errorf("bad status code: %d, api code: %q, message: %q",
			resp.StatusCode, body.Code, body.Message)
	}

	return body.Articles, nil
}

// WithImage drops articles that have no image.
func WithImage(articles []store.Article) []store.Article {
	return lo.Filter(articles, func(a store.Article, _ int) bool { return a.HasImage() })
}
