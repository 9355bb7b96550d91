package handler

import (
	"log/slog"
	"net/http"

	"github.com/01protocol/drifting-01/internal/domain"
)

// FillHandler serves executed legs.
type FillHandler struct {
	store  domain.FillStore
	logger *slog.Logger
}

// NewFillHandler creates a FillHandler over the given store.
func NewFillHandler(store domain.FillStore, logger *slog.Logger) *FillHandler {
	return &FillHandler{
		store:  store,
		logger: logHandler(logger, "fills"),
	}
}

// ListFills responds with fills for one market, newest first.
// GET /api/fills?market=SOL-PERP
func (h *FillHandler) ListFills(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	if market == "" {
		writeError(w, http.StatusBadRequest, "market query parameter is required")
		return
	}

	fills, err := h.store.ListByMarket(r.Context(), market, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list fills",
			slog.String("market", market),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list fills")
		return
	}
	if fills == nil {
		fills = []domain.Fill{}
	}
	writeJSON(w, http.StatusOK, fills)
}
