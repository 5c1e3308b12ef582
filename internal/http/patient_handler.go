package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chxru/sem5-webdev/internal/domain"
	"github.com/chxru/sem5-webdev/internal/service"

	"go.uber.org/zap"
)

// PatientHandler registration, lookup and search endpoints.
type PatientHandler struct {
	alloc  *service.AllocationService
	query  *service.QueryService
	logger *zap.Logger
}

func NewPatientHandler(alloc *service.AllocationService, query *service.QueryService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{alloc: alloc, query: query, logger: logger}
}

// Add POST /api/patient/add
func (h *PatientHandler) Add(w http.ResponseWriter, req *http.Request) {
	var form domain.Demographics
	if err := json.NewDecoder(req.Body).Decode(&form); err != nil {
		fail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	if form.FirstName == "" || form.LastName == "" {
		fail(w, http.StatusBadRequest, "first and last name are required")
		return
	}
	if form.Admission.DoctorInCharge == "" {
		fail(w, http.StatusBadRequest, "doctor in charge is required")
		return
	}

	id, err := h.alloc.Register(req.Context(), form, actorID(req))
	if err != nil {
		h.logger.Error("failed to register patient", zap.Error(err))
		failErr(w, err)
		return
	}
	ok(w, id)
}

// Get GET /api/patient/{id}
func (h *PatientHandler) Get(w http.ResponseWriter, req *http.Request) {
	id, found := pathID(req, "/api/patient/")
	if !found {
		fail(w, http.StatusBadRequest, "id is not a number")
		return
	}

	rec, err := h.query.GetPatient(req.Context(), id)
	if err != nil {
		if !domain.IsClientError(err) {
			h.logger.Error("failed to fetch patient", zap.Int("pid", id), zap.Error(err))
		}
		failErr(w, err)
		return
	}
	ok(w, rec)
}

// Search POST /api/patient/search
func (h *PatientHandler) Search(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Search string `json:"search"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	results, err := h.query.Search(req.Context(), strings.TrimSpace(body.Search))
	if err != nil {
		h.logger.Error("patient search failed", zap.Error(err))
		failErr(w, err)
		return
	}
	ok(w, results)
}
