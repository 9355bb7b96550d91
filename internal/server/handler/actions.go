package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/01protocol/drifting-01/internal/domain"
)

// ActionHandler serves the decision journal.
type ActionHandler struct {
	store  domain.ActionStore
	logger *slog.Logger
}

// NewActionHandler creates an ActionHandler over the given store.
func NewActionHandler(store domain.ActionStore, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		store:  store,
		logger: logHandler(logger, "actions"),
	}
}

// ListActions responds with journal rows, newest first. Supports limit,
// offset, since and until query parameters (RFC 3339 timestamps).
// GET /api/actions
func (h *ActionHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		opts.Since = &t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until timestamp")
			return
		}
		opts.Until = &t
	}

	events, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list actions",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	if events == nil {
		events = []domain.ActionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
