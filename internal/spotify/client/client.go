package client

import (
	"bytes"
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

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	cerrors "github.com/tessro/cadence/internal/errors"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
	maxRetryAfter = 30 * time.Second
)

// Client is a Spotify API client. Authentication is the job of the
// http.Client it wraps, normally one built by oauth2.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a new Spotify client.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    BaseURL,
		logger:     log.New(io.Discard),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

// resolve turns an API path into a full URL. Absolute URLs, such as the
// "next" links of paged responses, are used as given.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.resolve(path)
	c.logger.Debug("spotify request", "method", method, "url", fullURL, "body", string(jsonBody))

	var lastErr error
	var wait time.Duration
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if wait == 0 {
				wait = baseRetryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			}
			c.logger.Debug("spotify retry", "attempt", attempt, "max", maxRetries, "wait", wait, "err", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			wait = 0
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", cerrors.ErrNetworkError, err)
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.logger.Debug("spotify response", "status", resp.StatusCode, "url", fullURL)

		switch {
		case resp.StatusCode == http.StatusNoContent:
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = parseAPIError(resp.StatusCode, respBody)
			wait = retryAfter(resp.Header.Get("Retry-After"))
			continue

		case resp.StatusCode >= 500:
			lastErr = parseAPIError(resp.StatusCode, respBody)
			continue

		case resp.StatusCode >= 400:
			// Don't retry 4xx errors
			return parseAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	return min(d, maxRetryAfter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
		apiErr.ErrorInfo.Message = strings.TrimSpace(string(body))
		if apiErr.ErrorInfo.Message == "" {
			apiErr.ErrorInfo.Message = http.StatusText(status)
		}
	}
	apiErr.ErrorInfo.Status = status
	return &apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// Unwrap maps the status to one of the shared sentinel errors so callers can
// use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.ErrorInfo.Status {
	case http.StatusUnauthorized:
		return cerrors.ErrNotAuthenticated
	case http.StatusTooManyRequests:
		return cerrors.ErrRateLimited
	case http.StatusForbidden:
		if e.ErrorInfo.Reason == "PREMIUM_REQUIRED" || strings.Contains(strings.ToLower(e.ErrorInfo.Message), "premium") {
			return cerrors.ErrPremiumRequired
		}
	case http.StatusNotFound:
		if e.ErrorInfo.Reason == "NO_ACTIVE_DEVICE" || strings.Contains(strings.ToLower(e.ErrorInfo.Message), "no active device") {
			return cerrors.ErrNoActiveDevice
		}
	}
	return nil
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	if errors.Is(err, cerrors.ErrNoActiveDevice) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorInfo.Status == http.StatusNotFound &&
		strings.Contains(apiErr.ErrorInfo.Message, "device")
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
