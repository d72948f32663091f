// Package upstream talks to the x402 facilitator API and falls back to mock
// records whenever it is unreachable.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/internal/retry"
	"github.com/crogentx/crogentx/internal/traces"
	"github.com/crogentx/crogentx/pkg/x402"
)

// Endpoint names used for metrics, tracing and circuit breaker keys
const (
	EndpointTransactions = "transactions"
	EndpointAgents       = "agents"
	EndpointAgent        = "agent"
)

// maxResponseBytes bounds how much of a facilitator response is read
const maxResponseBytes = 32 << 20

// StatusError is returned when the facilitator answers with a non-2xx status
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// TransactionParams narrows a facilitator transaction fetch
type TransactionParams struct {
	Address    string `json:"address,omitempty"`
	StartBlock int64  `json:"startBlock,omitempty"`
	EndBlock   int64  `json:"endBlock,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// RetryPolicy retries a failed facilitator call n more times with backoff
// starting at 200ms. n <= 0 disables retries.
func RetryPolicy(n int) retry.Policy {
	if n <= 0 {
		return retry.None
	}
	return retry.Policy{Attempts: n + 1, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Client is an HTTP client for the x402 facilitator
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Policy
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRetry sets the retry policy. Clients make a single attempt by default.
func WithRetry(p retry.Policy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a facilitator client. timeout bounds every attempt.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry.None,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// FetchTransactions calls POST /transactions
func (c *Client) FetchTransactions(ctx context.Context, params TransactionParams) ([]x402.Transaction, error) {
	var out envelope[[]x402.Transaction]
	if err := c.do(ctx, EndpointTransactions, http.MethodPost, "/transactions", params, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []x402.Transaction{}
	}
	return out.Data, nil
}

// FetchAgents calls GET /agents
func (c *Client) FetchAgents(ctx context.Context) ([]x402.Agent, error) {
	var out envelope[[]x402.Agent]
	if err := c.do(ctx, EndpointAgents, http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []x402.Agent{}
	}
	return out.Data, nil
}

// FetchAgent calls GET /agents/:address
func (c *Client) FetchAgent(ctx context.Context, address string) (x402.Agent, error) {
	var out envelope[x402.Agent]
	if err := c.do(ctx, EndpointAgent, http.MethodGet, "/agents/"+url.PathEscape(address), nil, &out); err != nil {
		return x402.Agent{}, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) (err error) {
	ctx, span := traces.StartSpan(ctx, "upstream."+endpoint, traces.Endpoint(endpoint))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, result).Inc()
		traces.RecordError(span, err)
	}()

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("upstream: marshal %s request: %w", endpoint, err)
		}
	}

	return c.retry.Do(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, endpoint, method, path, payload, out)
	})
}

// attempt performs one HTTP exchange. Client errors other than 429 and
// undecodable bodies are permanent.
func (c *Client) attempt(ctx context.Context, endpoint, method, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return retry.Permanent(fmt.Errorf("upstream: create %s request: %w", endpoint, err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("upstream: read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		statusErr := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: snippet}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(statusErr)
		}
		return statusErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return retry.Permanent(fmt.Errorf("upstream: decode %s response: %w", endpoint, err))
	}
	return nil
}
