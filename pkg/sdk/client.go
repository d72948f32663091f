// Package sdk is a Go client for the crogentx HTTP API.
//
//	c := sdk.New("http://localhost:3000")
//	page, err := c.Transactions.List(ctx, sdk.TransactionListOptions{Limit: 20})
package sdk

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
)

// DefaultBaseURL is used when New is given an empty URL
const DefaultBaseURL = "http://localhost:3000"

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient
// says otherwise
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 32 << 20

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("crogentx: %d %s: %s", e.Status, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("crogentx: %d %s", e.Status, e.Code)
	default:
		return fmt.Sprintf("crogentx: %d %s", e.Status, http.StatusText(e.Status))
	}
}

// Client talks to a crogentx server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	Transactions *TransactionsService
	Agents       *AgentsService
	Graph        *GraphService
	Analytics    *AnalyticsService
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Transactions = &TransactionsService{c: c}
	c.Agents = &AgentsService{c: c}
	c.Graph = &GraphService{c: c}
	c.Analytics = &AnalyticsService{c: c}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends a request and decodes a 2xx JSON body into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("crogentx: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("crogentx: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crogentx: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("crogentx: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Code, apiErr.Message = eb.Error, eb.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("crogentx: decode %s response: %w", path, err)
	}
	return nil
}

// ResetMockData regenerates the server's mock dataset
func (c *Client) ResetMockData(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/mock/reset", nil, nil, nil)
}
