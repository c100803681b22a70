// Package remote is the HTTP client for the quiz API: question batches,
// catalog metadata, learner stats and session result sync.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/outbox"
	"github.com/kihon/kuiz/internal/quiz"
)

const (
	batchPath   = "/api/v1/questions/batch"
	metaPath    = "/api/v1/meta"
	resultsPath = "/api/v1/session/results"
	statsPath   = "/api/v1/stats"
	healthPath  = "/health"

	maxErrorBody = 512
)

// Client talks to the quiz API.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry sets the retry policy for GET requests.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   DefaultRetryConfig(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

type batchResponse struct {
	Questions []quiz.Question `json:"questions"`
}

// FetchBatch requests a server-selected batch of questions. Questions that
// fail validation are dropped with a warning.
func (c *Client) FetchBatch(ctx context.Context, q catalog.Query) ([]quiz.Question, error) {
	params := url.Values{}
	params.Set("userId", q.UserID)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	params.Set("wrongOnly", strconv.FormatBool(q.WrongOnly))
	params.Set("avoidCorrect", strconv.FormatBool(q.AvoidCorrect))
	params.Set("randomMode", strconv.FormatBool(q.Random))

	resp, err := withRetry(ctx, c.retry, func() (*batchResponse, error) {
		var out batchResponse
		return &out, c.do(ctx, "fetch batch", http.MethodGet, batchPath+"?"+params.Encode(), nil, &out)
	})
	if err != nil {
		return nil, err
	}

	qs := make([]quiz.Question, 0, len(resp.Questions))
	for _, rq := range resp.Questions {
		if cat, err := quiz.ParseCategory(string(rq.Category)); err == nil {
			rq.Category = cat
		}
		if err := quiz.Validate(rq); err != nil {
			c.logger.Warn("drop invalid remote question", "error", err)
			continue
		}
		qs = append(qs, rq)
	}
	return qs, nil
}

// Load implements catalog.Loader.
func (c *Client) Load(ctx context.Context, q catalog.Query) (*catalog.Batch, error) {
	qs, err := c.FetchBatch(ctx, q)
	if err != nil {
		return nil, err
	}
	return &catalog.Batch{Questions: qs, Origin: catalog.OriginRemote}, nil
}

// FetchMeta returns the server's catalog metadata.
func (c *Client) FetchMeta(ctx context.Context) (*catalog.Meta, error) {
	return withRetry(ctx, c.retry, func() (*catalog.Meta, error) {
		var out catalog.Meta
		return &out, c.do(ctx, "fetch meta", http.MethodGet, metaPath, nil, &out)
	})
}

// Stats are the server-side totals for a learner.
type Stats struct {
	TotalAnswers int     `json:"totalAnswers"`
	CorrectCount int     `json:"correctCount"`
	Accuracy     float64 `json:"accuracy"`
}

// FetchStats returns the server's totals for userID.
func (c *Client) FetchStats(ctx context.Context, userID string) (*Stats, error) {
	path := statsPath + "?" + url.Values{"userId": {userID}}.Encode()
	return withRetry(ctx, c.retry, func() (*Stats, error) {
		var out Stats
		return &out, c.do(ctx, "fetch stats", http.MethodGet, path, nil, &out)
	})
}

// SubmitResponse is the server's acknowledgement of a result batch.
type SubmitResponse struct {
	TotalAnswers int `json:"totalAnswers"`
	CorrectCount int `json:"correctCount"`
}

// SubmitResults posts a batch of answer events. It is not retried: the
// outbox keeps the batch for the next flush instead.
func (c *Client) SubmitResults(ctx context.Context, b outbox.Batch) (*SubmitResponse, error) {
	if b.Results == nil {
		b.Results = []quiz.AnswerEvent{}
	}
	body, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	var out SubmitResponse
	if err := c.do(ctx, "submit results", http.MethodPost, resultsPath, body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("results synced", "sent", len(b.Results), "total", out.TotalAnswers, "correct", out.CorrectCount)
	return &out, nil
}

// Submit implements outbox.Sink.
func (c *Client) Submit(ctx context.Context, b outbox.Batch) error {
	_, err := c.SubmitResults(ctx, b)
	return err
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, healthPath, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Op: op, Err: err}
	}
	return nil
}
