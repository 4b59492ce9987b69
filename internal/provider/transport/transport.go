// Package transport provides the HTTP client infrastructure shared by the
// Steam Web API client and the storefront scraper.
//
// Outbound pacing is a token bucket limiter; retries and timeouts are an
// explicit Policy rather than implicit behavior. The zero-retry, unlimited-rate
// policy reproduces a plain sequential fetch loop.
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const userAgent = "steam-ledger/1.0 (+https://github.com/albapepper/steam-ledger)"

// Policy controls timeouts, pacing and retries for one client.
type Policy struct {
	Timeout           time.Duration // per attempt; 0 disables
	RequestsPerMinute int           // 0 = unlimited
	MaxRetries        int           // retries on transport errors, 429 and 5xx
	RetryWait         time.Duration // base wait, doubled per attempt
}

// DefaultPolicy is sequential, unpaced and retry-free, with a 30s timeout.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:   30 * time.Second,
		RetryWait: time.Second,
	}
}

// MaxBackoff caps the wait between two retries.
const MaxBackoff = time.Minute

// Backoff returns the first and the longest wait between retries. The base
// defaults to one second and doubles per attempt up to MaxBackoff.
func (p Policy) Backoff() (base, longest time.Duration) {
	base = p.RetryWait
	if base <= 0 {
		base = time.Second
	}
	if base >= MaxBackoff {
		return MaxBackoff, MaxBackoff
	}
	longest = base
	for i := 0; i < p.MaxRetries && longest < MaxBackoff; i++ {
		longest *= 2
	}
	return base, min(longest, MaxBackoff)
}

// Limiter returns the token bucket for the policy, or nil when unpaced.
func (p Policy) Limiter() *rate.Limiter {
	if p.RequestsPerMinute <= 0 {
		return nil
	}
	rps := float64(p.RequestsPerMinute) / 60.0
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewClient creates a resty client bound to baseURL with the given policy.
func NewClient(baseURL string, policy Policy, logger *slog.Logger) *resty.Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetLogger(slogAdapter{logger: logger})

	if policy.Timeout > 0 {
		client.SetTimeout(policy.Timeout)
	}

	if limiter := policy.Limiter(); limiter != nil {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if err := limiter.Wait(req.Context()); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
			return nil
		})
	}

	if policy.MaxRetries > 0 {
		base, longest := policy.Backoff()
		client.
			SetRetryCount(policy.MaxRetries).
			SetRetryWaitTime(base).
			SetRetryMaxWaitTime(longest).
			AddRetryCondition(Retryable)
	}

	// Query strings carry the API key; only host and path are logged.
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		u := res.Request.RawRequest.URL
		logger.Debug("HTTP response",
			"method", res.Request.Method,
			"host", u.Host,
			"path", u.Path,
			"status", res.StatusCode(),
			"duration", res.Time().Round(time.Millisecond))
		return nil
	})

	return client
}

// Retryable reports whether a response should be retried: throttling and
// server-side failures.
func Retryable(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// Truncate returns a truncated string representation for error messages.
func Truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

var keyParam = regexp.MustCompile(`([?&]key=)[^&\s"]*`)

// RedactKey masks the value of any key query parameter in s.
func RedactKey(s string) string {
	return keyParam.ReplaceAllString(s, "${1}REDACTED")
}

// Redact wraps err so its message has no API key. net/http transport errors
// quote the full request URL, query string included. errors.Is and errors.As
// still see the original error.
func Redact(err error) error {
	if err == nil {
		return nil
	}
	return redactedError{err: err, msg: RedactKey(err.Error())}
}

type redactedError struct {
	err error
	msg string
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

// slogAdapter routes resty's internal logging through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(RedactKey(fmt.Sprintf(format, v...)))
}

func (a slogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(RedactKey(fmt.Sprintf(format, v...)))
}

func (a slogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(RedactKey(fmt.Sprintf(format, v...)))
}
