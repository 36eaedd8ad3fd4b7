// Package fetch provides the HTTP client used to page through the BAM feeds.
// Requests are JSON POSTs retried with exponential backoff; failures are
// classified as retryable or fatal before the caller sees them.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/npa-sniper/internal/logging"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; NPASniper/1.0)"

// DefaultRetryableStatuses are the HTTP statuses retried when no set is configured.
var DefaultRetryableStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Error represents a request that could not be built or sent.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch error for %s: HTTP status %d", e.URL, e.StatusCode)
}

// ExhaustedError is returned when every allowed attempt failed with a retryable fault.
type ExhaustedError struct {
	Label    string
	Page     int
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s page %d: giving up after %d attempts: %v", e.Label, e.Page, e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures the client.
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	Headers           map[string]string
	MaxRetries        int
	Backoff           float64
	RetryableStatuses []int
	Sleep             SleepFunc
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxRetries:        5,
		Backoff:           2.0,
		RetryableStatuses: DefaultRetryableStatuses,
	}
}

// Client posts JSON payloads with bounded retries.
type Client struct {
	http       *http.Client
	userAgent  string
	headers    map[string]string
	maxRetries int
	backoff    float64
	retryable  map[int]bool
	sleep      SleepFunc
	logger     logging.Logger
}

// NewClient creates a retrying client. A nil opts uses DefaultOptions.
func NewClient(opts *Options, logger logging.Logger) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	statuses := opts.RetryableStatuses
	if statuses == nil {
		statuses = DefaultRetryableStatuses
	}
	retryable := make(map[int]bool, len(statuses))
	for _, code := range statuses {
		retryable[code] = true
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 2.0
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = contextSleep
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		headers:    opts.Headers,
		maxRetries: max(1, opts.MaxRetries),
		backoff:    backoff,
		retryable:  retryable,
		sleep:      sleep,
		logger:     logger,
	}
}

// MaxRetries returns the number of attempts made before giving up.
func (c *Client) MaxRetries() int {
	return c.maxRetries
}

// Delay returns the wait after the given failed attempt: backoff^(attempt-1) seconds.
func (c *Client) Delay(attempt int) time.Duration {
	secs := math.Pow(c.backoff, float64(attempt-1))
	return time.Duration(secs * float64(time.Second))
}

// PostWithRetry POSTs payload as JSON to endpoint and returns the response body.
// Network faults and retryable statuses are retried up to MaxRetries attempts;
// any other status fails at once with a *StatusError. label and page only
// annotate logs and errors.
func (c *Client) PostWithRetry(ctx context.Context, endpoint string, payload any, label string, page int) ([]byte, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: endpoint, Message: "invalid URL", Cause: err}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to encode payload", Cause: err}
	}

	log := c.logger.With(logging.String("category", label), logging.Int("page", page))

	for attempt := 1; ; attempt++ {
		respBody, err := c.post(ctx, endpoint, body)
		if err == nil {
			return respBody, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !c.IsRetryableStatus(statusErr.StatusCode) {
			log.Error("giving up on non-retryable status",
				logging.Int("status", statusErr.StatusCode),
				logging.Int("attempt", attempt))
			return nil, err
		}

		if attempt >= c.maxRetries {
			log.Error("giving up after retries",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", c.maxRetries),
				logging.Error(err))
			return nil, &ExhaustedError{Label: label, Page: page, Attempts: attempt, Cause: err}
		}

		delay := c.Delay(attempt)
		log.Warn("retrying request",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", c.maxRetries),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// IsRetryableStatus reports whether an HTTP status should be retried.
// A zero status means the response carried none and is treated as transient.
func (c *Client) IsRetryableStatus(code int) bool {
	if code == 0 {
		return true
	}
	return c.retryable[code]
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	return respBody, nil
}

func contextSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
