// Package httputil provides the HTTP client abstraction used for tile
// downloads and the JSON/attachment helpers used by API handlers.
package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPClient abstracts HTTP operations for testability.
// Use StandardClient in production and MockHTTPClient in tests.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement HTTPClient.
type StandardClient struct {
	*http.Client
}

// DefaultTimeout bounds a single tile request when no client is supplied.
const DefaultTimeout = 15 * time.Second

// NewStandardClient wraps c. A nil c gets a client with DefaultTimeout.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = &http.Client{Timeout: DefaultTimeout}
	}
	return &StandardClient{Client: c}
}

// Do sends an HTTP request.
func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// GetBytes issues a GET bound to ctx and returns the body of a 2xx response.
// Any other status is an error; the body is always closed.
func GetBytes(ctx context.Context, c HTTPClient, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// MockHTTPClient provides a testable HTTP client implementation. Requests
// are answered, in order of precedence, by DoFunc, DefaultError, a route
// registered for the exact URL, or a 404.
type MockHTTPClient struct {
	mu           sync.Mutex
	DoFunc       func(req *http.Request) (*http.Response, error)
	Requests     []*http.Request
	routes       map[string]*MockResponse
	DefaultError error
}

// MockResponse defines a canned HTTP response for testing.
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	Error      error
}

// NewMockHTTPClient creates a new mock HTTP client.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		Requests: []*http.Request{},
		routes:   make(map[string]*MockResponse),
	}
}

// Route answers every request for url with the given status and body.
func (m *MockHTTPClient) Route(url string, statusCode int, body []byte) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = &MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    make(http.Header),
	}
	return m
}

// RouteError fails every request for url with err.
func (m *MockHTTPClient) RouteError(url string, err error) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = &MockResponse{Error: err}
	return m
}

// Do records the request and returns the matching canned response.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	doFunc := m.DoFunc
	defaultErr := m.DefaultError
	resp, routed := m.routes[req.URL.String()]
	m.mu.Unlock()

	if doFunc != nil {
		return doFunc(req)
	}
	if defaultErr != nil {
		return nil, defaultErr
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if !routed {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &http.Response{
		StatusCode: resp.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(resp.Body)),
		Header:     resp.Headers,
		Request:    req,
	}, nil
}

// RequestCount returns the number of recorded requests.
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// RequestedURLs returns the URLs of every recorded request, in arrival order.
func (m *MockHTTPClient) RequestedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Requests))
	for i, r := range m.Requests {
		out[i] = r.URL.String()
	}
	return out
}
