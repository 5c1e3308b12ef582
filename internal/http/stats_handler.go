package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chxru/sem5-webdev/internal/service"

	"go.uber.org/zap"
)

// StatsHandler bed board and dashboard counters.
type StatsHandler struct {
	query  *service.QueryService
	logger *zap.Logger
}

func NewStatsHandler(query *service.QueryService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{query: query, logger: logger}
}

// Beds GET /api/stats/beds
func (h *StatsHandler) Beds(w http.ResponseWriter, req *http.Request) {
	beds, err := h.query.BedBoard(req.Context())
	if err != nil {
		h.logger.Error("failed to fetch bed board", zap.Error(err))
		failErr(w, err)
		return
	}
	ok(w, beds)
}

// ExportBeds GET /api/stats/beds/export
func (h *StatsHandler) ExportBeds(w http.ResponseWriter, req *http.Request) {
	book, err := h.query.ExportBedBoard(req.Context())
	if err != nil {
		h.logger.Error("failed to export bed board", zap.Error(err))
		failErr(w, err)
		return
	}

	filename := fmt.Sprintf("bed-board-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(book)
}

// Summary GET /api/stats/summary
func (h *StatsHandler) Summary(w http.ResponseWriter, req *http.Request) {
	summary, err := h.query.Stats(req.Context())
	if err != nil {
		h.logger.Error("failed to fetch stats summary", zap.Error(err))
		failErr(w, err)
		return
	}
	ok(w, summary)
}
