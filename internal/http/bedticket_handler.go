package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/chxru/sem5-webdev/internal/domain"
	"github.com/chxru/sem5-webdev/internal/service"

	"go.uber.org/zap"
)

// BedTicketHandler admission lifecycle and entry log endpoints.
type BedTicketHandler struct {
	alloc  *service.AllocationService
	logger *zap.Logger
}

func NewBedTicketHandler(alloc *service.AllocationService, logger *zap.Logger) *BedTicketHandler {
	return &BedTicketHandler{alloc: alloc, logger: logger}
}

// Admit POST /api/bedticket/new/{pid}/{bed}
func (h *BedTicketHandler) Admit(w http.ResponseWriter, req *http.Request) {
	pid, bed, found := pathIDs(req, "/api/bedticket/new/")
	if !found {
		fail(w, http.StatusBadRequest, "patient and bed ids are required")
		return
	}

	stayID, err := h.alloc.Admit(req.Context(), pid, bed)
	if err != nil {
		if !domain.IsClientError(err) {
			h.logger.Error("admit failed", zap.Int("pid", pid), zap.Int("bed", bed), zap.Error(err))
		}
		failErr(w, err)
		return
	}
	ok(w, stayID)
}

// Discharge POST /api/bedticket/discharge/{pid}
func (h *BedTicketHandler) Discharge(w http.ResponseWriter, req *http.Request) {
	pid, found := pathID(req, "/api/bedticket/discharge/")
	if !found {
		fail(w, http.StatusBadRequest, "id is not a number")
		return
	}

	if err := h.alloc.Discharge(req.Context(), pid); err != nil {
		if !domain.IsClientError(err) {
			h.logger.Error("discharge failed", zap.Int("pid", pid), zap.Error(err))
		}
		failErr(w, err)
		return
	}
	ok[any](w, nil)
}

// AppendEntry POST /api/bedticket/entry/{bid}
func (h *BedTicketHandler) AppendEntry(w http.ResponseWriter, req *http.Request) {
	bid, found := pathID(req, "/api/bedticket/entry/")
	if !found {
		fail(w, http.StatusBadRequest, "id is not a number")
		return
	}

	var entry domain.ClinicalEntry
	if err := json.NewDecoder(req.Body).Decode(&entry); err != nil {
		fail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	saved, err := h.alloc.AppendEntry(req.Context(), bid, entry, actorID(req))
	if err != nil {
		if !domain.IsClientError(err) {
			h.logger.Error("append entry failed", zap.Int("bid", bid), zap.Error(err))
		}
		failErr(w, err)
		return
	}
	ok(w, saved)
}

// ReadEntries GET /api/bedticket/{bid}
func (h *BedTicketHandler) ReadEntries(w http.ResponseWriter, req *http.Request) {
	bid, found := pathID(req, "/api/bedticket/")
	if !found {
		fail(w, http.StatusBadRequest, "id is not a number")
		return
	}

	entries, err := h.alloc.ReadEntries(req.Context(), bid)
	if err != nil {
		if !domain.IsClientError(err) {
			h.logger.Error("read entries failed", zap.Int("bid", bid), zap.Error(err))
		}
		failErr(w, err)
		return
	}
	ok(w, entries)
}
