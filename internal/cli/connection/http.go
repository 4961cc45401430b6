package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/gatecam/internal/infra/buildinfo"
	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
)

// DefaultTimeout covers a full capture attempt plus persistence.
const DefaultTimeout = 30 * time.Second

// APIError is an error envelope returned by the daemon.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s (HTTP %d)", e.Code, e.Message, e.Status)
}

// HTTPClient provides HTTP communication with the daemon.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for server, e.g. "127.0.0.1:8080".
func NewHTTPClient(server string, timeout time.Duration) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Health queries GET /healthz. A degraded daemon answers 503 with a body,
// which is returned without error.
func (c *HTTPClient) Health(ctx context.Context) (*handler.HealthResponse, error) {
	var out handler.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Audit fetches the newest limit audit records, newest first.
func (c *HTTPClient) Audit(ctx context.Context, limit int) (*handler.AuditList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out handler.AuditList
	if err := c.do(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Capture triggers POST /v1/captures and waits for the outcome. Failed
// captures still return their outcome.
func (c *HTTPClient) Capture(ctx context.Context) (*handler.CaptureResponse, error) {
	var out handler.CaptureResponse
	if err := c.do(ctx, http.MethodPost, "/v1/captures", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, data any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gatecam/"+buildinfo.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return ParseResponse(resp, data)
}

// ParseResponse decodes the response envelope, storing its data in target.
// Error envelopes are returned as *APIError.
func ParseResponse(resp *http.Response, target any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	env := handler.Response{Data: target}
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Code: "HTTP", Message: http.StatusText(resp.StatusCode)}
	}
	if env.Code != "OK" {
		if env.Code == "" {
			env.Code = "HTTP"
		}
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	return nil
}

// IsAPIError reports whether err carries the given daemon error code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
