// Package respond writes API responses: cached library payloads with ETags,
// uncached status objects, and the error envelope every endpoint shares.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Error codes sent in ErrorResponse.
const (
	CodeInvalidAppID = "INVALID_APP_ID"
	CodeNotFound     = "NOT_FOUND"
	CodeNoData       = "NO_DATA"
	CodeNotCollected = "NOT_COLLECTED"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// Error is a failure with the status and code clients should see.
type Error struct {
	Status  int
	Code    string
	Message string

	// RetryAfter is sent as a Retry-After header, rounded up to whole seconds.
	RetryAfter time.Duration
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// ErrNotCollected is reported while no library has been saved yet.
var ErrNotCollected = &Error{
	Status:  http.StatusServiceUnavailable,
	Code:    CodeNotCollected,
	Message: "the library has not been collected yet",
}

// NotFound reports an item id the library does not hold.
func NotFound(appID int) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("app %d is not in the library", appID),
	}
}

// Fail writes err. An *Error anywhere in the chain is sent as is; any other
// error is logged and sent as a 500 carrying its text as detail.
func Fail(w http.ResponseWriter, err error) {
	var e *Error
	if errors.As(err, &e) {
		write(w, e, "")
		return
	}
	slog.Error("Failed to load library", "error", err)
	write(w, &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "failed to load library"}, err.Error())
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	write(w, &Error{Status: status, Code: code, Message: message}, "")
}

func write(w http.ResponseWriter, e *Error, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = e.Code
	resp.Error.Message = e.Message
	resp.Error.Detail = detail

	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes an encoded library payload. The X-Cache header tells
// whether it was served from the in-memory cache.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("ETag", etag)
	h.Set("Vary", "Accept-Encoding")
	h.Set("X-Cache", "MISS")
	if cacheHit {
		h.Set("X-Cache", "HIT")
	}
	// Clients may keep a payload for half the server-side TTL past expiry
	// while a refresh lands.
	maxAge := int(ttl.Seconds())
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteJSONObject writes v uncached. Used for health checks and API info.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
