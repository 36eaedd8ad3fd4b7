package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps returns a SleepFunc that records delays instead of waiting.
func recordSleeps(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func newTestClient(maxRetries int, delays *[]time.Duration) *Client {
	opts := DefaultOptions()
	opts.MaxRetries = maxRetries
	opts.Sleep = recordSleeps(delays)
	return NewClient(opts, nil)
}

func TestPostWithRetry_Success(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"data":[],"totalData":0}`))
	}))
	defer server.Close()

	var delays []time.Duration
	client := newTestClient(5, &delays)

	body, err := client.PostWithRetry(context.Background(), server.URL, map[string]any{"pageNumber": 3}, "Condos", 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"totalData":0}`, string(body))
	assert.Equal(t, float64(3), received["pageNumber"])
	assert.Empty(t, delays)
}

func TestPostWithRetry_RetryBound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var delays []time.Duration
	client := newTestClient(5, &delays)

	_, err := client.PostWithRetry(context.Background(), server.URL, map[string]any{}, "Condos", 7)
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "Condos", exhausted.Label)
	assert.Equal(t, 7, exhausted.Page)
	assert.Equal(t, 5, exhausted.Attempts)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
}

func TestPostWithRetry_NonRetryableShortCircuit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var delays []time.Duration
	client := newTestClient(5, &delays)

	_, err := client.PostWithRetry(context.Background(), server.URL, map[string]any{}, "Auction", 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, delays)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestPostWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var delays []time.Duration
	client := newTestClient(5, &delays)

	body, err := client.PostWithRetry(context.Background(), server.URL, nil, "General Feed", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, delays, 2)
}

func TestPostWithRetry_NetworkErrorsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	endpoint := server.URL
	server.Close()

	var delays []time.Duration
	client := newTestClient(3, &delays)

	_, err := client.PostWithRetry(context.Background(), endpoint, nil, "Townhouses", 2)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Len(t, delays, 2)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestPostWithRetry_InvalidURL(t *testing.T) {
	client := NewClient(nil, nil)
	_, err := client.PostWithRetry(context.Background(), "not-a-valid-url", nil, "Condos", 1)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestPostWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	opts := DefaultOptions()
	opts.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	client := NewClient(opts, nil)

	_, err := client.PostWithRetry(ctx, server.URL, nil, "Condos", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableStatus(t *testing.T) {
	client := NewClient(nil, nil)
	assert.True(t, client.IsRetryableStatus(0))
	assert.True(t, client.IsRetryableStatus(503))
	assert.False(t, client.IsRetryableStatus(404))
	assert.False(t, client.IsRetryableStatus(429))

	opts := DefaultOptions()
	opts.RetryableStatuses = []int{429}
	custom := NewClient(opts, nil)
	assert.True(t, custom.IsRetryableStatus(429))
	assert.False(t, custom.IsRetryableStatus(503))
}

func TestNewClient_ClampsRetries(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRetries = 0
	assert.Equal(t, 1, NewClient(opts, nil).MaxRetries())
}

func TestDelay(t *testing.T) {
	opts := DefaultOptions()
	opts.Backoff = 3
	client := NewClient(opts, nil)
	assert.Equal(t, time.Second, client.Delay(1))
	assert.Equal(t, 3*time.Second, client.Delay(2))
	assert.Equal(t, 9*time.Second, client.Delay(3))
}
