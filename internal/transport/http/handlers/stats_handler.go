package handlers

import (
	"net/http"

	"github.com/periskope/chat/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Counts(r.Context())
	if err != nil {
		writeInternal(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
