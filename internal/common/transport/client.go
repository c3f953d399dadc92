// Package transport wraps the HTTP client shared by every service client.
// It owns the bearer header, the per-request timeout and request IDs, and
// classifies transport failures into the standard error taxonomy.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/metrics"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBearerToken attaches token to every subsequent request.
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearBearerToken removes the bearer header from subsequent requests.
func (c *Client) ClearBearerToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// URL joins the configured base URL with path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// NewRequest builds a request against the service base URL with the bearer
// header and a correlation ID attached.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, clierrors.NewServerError("Failed to build request", err.Error())
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// Do executes req, recording metrics under service/operation labels.
// Transport-level failures come back as network errors; HTTP status handling
// is left to the caller, which sees the response body.
func (c *Client) Do(service, operation string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(service, operation, "network_error").Inc()
		return nil, classifyTransportError(err)
	}

	metrics.APIRequestsTotal.WithLabelValues(service, operation, outcomeLabel(resp.StatusCode)).Inc()
	return resp, nil
}

func outcomeLabel(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "success"
	}
}

// classifyTransportError maps timeouts and connection failures to the
// network kind. Anything else at this layer is still a network problem from
// the client's point of view. A caller-cancelled request is not retryable;
// the operator asked to stop.
func classifyTransportError(err error) *clierrors.ClientError {
	if errors.Is(err, context.Canceled) {
		ce := clierrors.NewNetworkError("Request cancelled", err)
		ce.Retryable = false
		return ce
	}
	if IsTimeout(err) {
		return clierrors.NewNetworkError("Request timed out", err)
	}
	return clierrors.NewNetworkError("Connection failed", err)
}

// IsTimeout reports whether err is a timeout or cancelled-deadline failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}
