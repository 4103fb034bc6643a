package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Strob0t/Karuna/internal/service"
)

type cacheStatsResponse struct {
	Success bool               `json:"success"`
	Data    service.CacheStats `json:"data"`
}

type deleteKeyRequest struct {
	Key string `json:"key"`
}

type invalidateRequest struct {
	Pattern string `json:"pattern"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	CacheKeys int    `json:"cache_keys"`
}

// ClearCache handles DELETE /api/cache/clear
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Cache.ClearAll(r.Context())
	writeStatus(w, http.StatusOK, true, "Cache cleared successfully")
}

// CacheStats handles GET /api/cache/stats
func (h *Handlers) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cacheStatsResponse{Success: true, Data: h.Cache.Stats()})
}

// DeleteCacheKey handles POST /api/cache/delete-key
func (h *Handlers) DeleteCacheKey(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[deleteKeyRequest](w, r)
	if err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Error: "Cache key is required in request body"})
		return
	}

	if !h.Cache.DeleteKey(r.Context(), req.Key) {
		writeStatus(w, http.StatusNotFound, false, fmt.Sprintf("Cache key '%s' not found", req.Key))
		return
	}
	writeStatus(w, http.StatusOK, true, fmt.Sprintf("Cache key '%s' deleted successfully", req.Key))
}

// InvalidateCache handles POST /api/cache/invalidate. A pattern containing
// '*' removes every key that contains the rest of the pattern.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[invalidateRequest](w, r)
	if err != nil || strings.Trim(req.Pattern, "*") == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Error: "Cache pattern is required in request body"})
		return
	}

	if !h.Cache.Invalidate(r.Context(), req.Pattern) {
		writeStatus(w, http.StatusNotFound, false, fmt.Sprintf("No cache keys match '%s'", req.Pattern))
		return
	}
	writeStatus(w, http.StatusOK, true, fmt.Sprintf("Cache keys matching '%s' invalidated", req.Pattern))
}

// ResetDB handles POST /api/cache/reset-db
func (h *Handlers) ResetDB(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Reset(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "database reset failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Error: "Failed to reset database connection"})
		return
	}
	writeStatus(w, http.StatusOK, true, "Database connection reset successfully")
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Database:  h.DB.State().String(),
		CacheKeys: h.Cache.Len(),
	})
}
