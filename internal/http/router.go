package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router standard library http.ServeMux; no third-party routing dependency.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterPatientRoutes registration, lookup and search.
func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.Handle("/api/patient/add", requireMethod(http.MethodPost, h.Add))
	r.Handle("/api/patient/search", requireMethod(http.MethodPost, h.Search))
	r.Handle("/api/patient/", requireMethod(http.MethodGet, h.Get))
}

// RegisterBedTicketRoutes admission lifecycle and entry log.
func (r *Router) RegisterBedTicketRoutes(h *BedTicketHandler) {
	r.Handle("/api/bedticket/new/", requireMethod(http.MethodPost, h.Admit))
	r.Handle("/api/bedticket/discharge/", requireMethod(http.MethodPost, h.Discharge))
	r.Handle("/api/bedticket/entry/", requireMethod(http.MethodPost, h.AppendEntry))
	r.Handle("/api/bedticket/", requireMethod(http.MethodGet, h.ReadEntries))
}

// RegisterStatsRoutes bed board and dashboard counters.
func (r *Router) RegisterStatsRoutes(h *StatsHandler) {
	r.Handle("/api/stats/beds", requireMethod(http.MethodGet, h.Beds))
	r.Handle("/api/stats/beds/export", requireMethod(http.MethodGet, h.ExportBeds))
	r.Handle("/api/stats/summary", requireMethod(http.MethodGet, h.Summary))
}

func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}
