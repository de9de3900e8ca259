package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/facegate/facegate/internal/constants"
	"github.com/facegate/facegate/internal/database"
)

// HistoryHandler serves the request audit log.
type HistoryHandler struct {
	history database.HistoryRepository
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history database.HistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

type historyEntryResponse struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Method    string `json:"method"`
	Endpoint  string `json:"endpoint"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	CreatedAt string `json:"created_at"`
}

// List returns the most recent audit entries, newest first. The limit
// parameter caps the page size.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, constants.MaxHistoryLimit)
	}

	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	total, err := h.history.Count(r.Context())
	if err != nil {
		slog.Error("failed to count history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to count history")
		return
	}

	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = historyEntryResponse{
			ID:        e.ID,
			Action:    e.Action,
			Method:    e.Method,
			Endpoint:  e.Endpoint,
			IP:        e.IP,
			UserAgent: e.UserAgent,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   total,
	})
}
