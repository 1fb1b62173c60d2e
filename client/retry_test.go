package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// newTestClient 指向本地伪造服务器，并把 sleep 替换为记录器。
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var delays []time.Duration
	c := New(server.URL, "test-key", nil)
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

const threeLineBody = `{"choices":[{"message":{"content":"1. feat: a\n2. fix: b\n3. chore: c"}}]}`

func TestGenerateCandidates_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(threeLineBody))
	})

	candidates, err := c.GenerateCandidates(context.Background(), "sys", "user")
	require.NoError(t, err)
	require.Equal(t, []string{"feat: a", "fix: b", "chore: c"}, candidates)

	// {RateLimited, RateLimited, Success}：恰好两次退避
	require.Equal(t, []time.Duration{1 * time.Second, 3 * time.Second}, *delays)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateCandidates_HonorsRetryAfterHint(t *testing.T) {
	t.Parallel()

	t.Run("hint_used", func(t *testing.T) {
		var calls int32
		c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(threeLineBody))
		})

		_, err := c.GenerateCandidates(context.Background(), "sys", "user")
		require.NoError(t, err)
		require.Equal(t, []time.Duration{2 * time.Second}, *delays)
	})

	t.Run("hint_capped", func(t *testing.T) {
		var calls int32
		c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "3600")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(threeLineBody))
		})

		_, err := c.GenerateCandidates(context.Background(), "sys", "user")
		require.NoError(t, err)
		require.Equal(t, []time.Duration{maxRetryAfter}, *delays)
	})
}

func TestGenerateCandidates_UnauthorizedFailsImmediately(t *testing.T) {
	t.Parallel()

	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GenerateCandidates(context.Background(), "sys", "user")
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	require.Empty(t, *delays)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGenerateCandidates_InvalidRequestFailsImmediately(t *testing.T) {
	t.Parallel()

	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.GenerateCandidates(context.Background(), "sys", "user")
	require.Error(t, err)
	require.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
	require.Empty(t, *delays)
}

func TestGenerateCandidates_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GenerateCandidates(context.Background(), "sys", "user")
	require.Error(t, err)
	require.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	require.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls))
	require.Len(t, *delays, maxAttempts-1)
}

func TestGenerateCandidates_ParseFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	c, delays := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"no usable lines"}}]}`))
	})

	_, err := c.GenerateCandidates(context.Background(), "sys", "user")
	require.ErrorIs(t, err, apperrors.ErrResponseUnparseable)
	require.Empty(t, *delays)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGenerateCandidates_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.GenerateCandidates(ctx, "sys", "user")
	require.ErrorIs(t, err, context.Canceled)
}
