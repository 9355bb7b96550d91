package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/01protocol/drifting-01/internal/domain"
)

// StatusHandler serves the engine status mirrored into the cache by the
// decision loop.
type StatusHandler struct {
	cache  domain.StatusCache
	assets []string
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler over the given status cache. The
// assets slice controls which statuses the list endpoint returns.
func NewStatusHandler(cache domain.StatusCache, assets []string, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		cache:  cache,
		assets: assets,
		logger: logHandler(logger, "status"),
	}
}

// ListStatus responds with the last-mirrored status for every configured
// asset. Assets with no status yet are omitted.
// GET /api/status
func (h *StatusHandler) ListStatus(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "status cache not configured")
		return
	}

	statuses := make([]domain.EngineStatus, 0, len(h.assets))
	for _, asset := range h.assets {
		status, err := h.cache.GetStatus(r.Context(), asset)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			h.logger.ErrorContext(r.Context(), "read status",
				slog.String("asset", asset),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "status cache unavailable")
			return
		}
		statuses = append(statuses, status)
	}
	writeJSON(w, http.StatusOK, statuses)
}

// GetStatus responds with the status for one asset.
// GET /api/status/{asset}
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "status cache not configured")
		return
	}
	asset := pathParam(r, "asset")

	status, err := h.cache.GetStatus(r.Context(), asset)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no status for asset "+asset)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "read status",
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "status cache unavailable")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
