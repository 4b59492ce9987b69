package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, 30*time.Second, p.Timeout)
	require.Zero(t, p.MaxRetries)
	require.Nil(t, p.Limiter())
}

func TestBackoff(t *testing.T) {
	testCases := []struct {
		name          string
		policy        Policy
		base, longest time.Duration
	}{
		{"doubles per retry", Policy{MaxRetries: 3, RetryWait: time.Second}, time.Second, 8 * time.Second},
		{"default base", Policy{MaxRetries: 1}, time.Second, 2 * time.Second},
		{"capped", Policy{MaxRetries: 10, RetryWait: time.Second}, time.Second, MaxBackoff},
		{"huge retry count", Policy{MaxRetries: 1 << 20, RetryWait: time.Second}, time.Second, MaxBackoff},
		{"base above cap", Policy{MaxRetries: 2, RetryWait: time.Hour}, MaxBackoff, MaxBackoff},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			base, longest := tc.policy.Backoff()
			require.Equal(t, tc.base, base)
			require.Equal(t, tc.longest, longest)
		})
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Policy{
		Timeout:    time.Second,
		MaxRetries: 3,
		RetryWait:  time.Millisecond,
	}, nil)

	res, err := client.R().SetContext(context.Background()).Get("/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNoRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, DefaultPolicy(), nil)
	res, err := client.R().Get("/")
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Policy{MaxRetries: 2, RetryWait: time.Millisecond}, nil)
	res, err := client.R().Get("/")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLimiter(t *testing.T) {
	require.Nil(t, Policy{RequestsPerMinute: 0}.Limiter())

	limiter := Policy{RequestsPerMinute: 120}.Limiter()
	require.NotNil(t, limiter)
	require.InDelta(t, 2.0, float64(limiter.Limit()), 1e-9)
	require.Equal(t, 1, limiter.Burst())
}

func TestLimiterCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := NewClient(srv.URL, Policy{RequestsPerMinute: 1}, nil)
	_, err := client.R().Get("/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.R().SetContext(ctx).Get("/")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate([]byte("abc"), 5))
	require.Equal(t, "ab...", Truncate([]byte("abcdef"), 2))
}

func TestRedact(t *testing.T) {
	require.Equal(t,
		`Get "http://127.0.0.1:1/x?key=REDACTED&steamid=7": connection refused`,
		RedactKey(`Get "http://127.0.0.1:1/x?key=ABC123&steamid=7": connection refused`))
	require.Equal(t, "/x?steamid=7&key=REDACTED", RedactKey("/x?steamid=7&key=ABC123"))
	require.Equal(t, "monkey=1", RedactKey("monkey=1"))

	err := Redact(context.Canceled)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, Redact(nil))
}

func TestTransportErrorIsRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, DefaultPolicy(), nil).R().
		SetQueryParam("key", "SECRET").
		Get("/x")
	require.Error(t, err)
	require.NotContains(t, Redact(err).Error(), "SECRET")
}
