package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestFailWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, fmt.Errorf("library:10: %w", NotFound(10)))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "app 10 is not in the library", body.Error.Message)
	assert.Empty(t, body.Error.Detail)
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestFailUnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, errors.New("read steam_games_data.csv: permission denied"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Equal(t, "read steam_games_data.csv: permission denied", body.Error.Detail)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestFailRetryAfterRoundsUp(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "slow down", RetryAfter: 1500 * time.Millisecond})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestWriteJSONCacheHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, []byte(`{"count":0}`), `"abc"`, 10*time.Minute, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=600, stale-while-revalidate=300", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `{"count":0}`, rec.Body.String())
}
