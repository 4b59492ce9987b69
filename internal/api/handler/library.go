package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/steam-ledger/internal/api/respond"
	"github.com/albapepper/steam-ledger/internal/cache"
	"github.com/albapepper/steam-ledger/internal/library"
	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/stats"
)

// LibraryResponse is the body of GET /api/v1/library.
type LibraryResponse struct {
	Count int                       `json:"count"`
	Items []provider.EnrichedRecord `json:"items"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Summary stats.Summary `json:"summary"`
	Lines   []string      `json:"lines"`
}


// GetLibrary returns every record in collection order.
// @Summary List library
// @Description Returns the enriched record for every owned item, in collection order.
// @Tags library
// @Produce json
// @Success 200 {object} LibraryResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /library [get]
func (h *Handler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "library", cache.TTLLibrary, func(ctx context.Context) (interface{}, error) {
		records, err := h.records(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []provider.EnrichedRecord{}
		}
		return LibraryResponse{Count: len(records), Items: records}, nil
	})
}

// GetLibraryItem returns the record for one item.
// @Summary Get library item
// @Tags library
// @Produce json
// @Param appID path int true "Steam application id"
// @Success 200 {object} provider.EnrichedRecord
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /library/{appID} [get]
func (h *Handler) GetLibraryItem(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "appID")
	appID, err := strconv.Atoi(raw)
	if err != nil || appID < 0 {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidAppID, "appID must be a non-negative integer")
		return
	}

	h.serveCached(w, r, fmt.Sprintf("library:%d", appID), cache.TTLLibrary, func(ctx context.Context) (interface{}, error) {
		rec, err := h.lib.Record(ctx, appID)
		switch {
		case errors.Is(err, library.ErrNoItem):
			return nil, respond.NotFound(appID)
		case errors.Is(err, library.ErrNotCollected):
			return nil, respond.ErrNotCollected
		case err != nil:
			return nil, err
		}
		return rec, nil
	})
}

// GetStats returns the library statistics.
// @Summary Library statistics
// @Description Most played item, total spent, best achievement completion, oldest release and total playtime.
// @Tags library
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "stats", cache.TTLStats, func(ctx context.Context) (interface{}, error) {
		records, err := h.records(ctx)
		if err != nil {
			return nil, err
		}
		summary, err := stats.Compute(records)
		if errors.Is(err, stats.ErrNoRecords) {
			return nil, &respond.Error{Status: http.StatusNotFound, Code: respond.CodeNoData, Message: "the library is empty"}
		}
		if err != nil {
			return nil, err
		}
		return StatsResponse{Summary: summary, Lines: summary.Lines()}, nil
	})
}

func (h *Handler) records(ctx context.Context) ([]provider.EnrichedRecord, error) {
	records, err := h.lib.Records(ctx)
	if errors.Is(err, library.ErrNotCollected) {
		return nil, respond.ErrNotCollected
	}
	return records, err
}

// serveCached answers from the cache when possible, honoring If-None-Match,
// and otherwise builds, encodes and caches the response.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func(context.Context) (interface{}, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build(r.Context())
	if err != nil {
		respond.Fail(w, fmt.Errorf("%s: %w", key, err))
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "failed to encode response")
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}
