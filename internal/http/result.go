package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// Response envelope shared with the frontend: {success, data?, err?}.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Err     string `json:"err,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, Response[T]{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response[any]{Success: false, Err: msg})
}

// failErr maps domain error kinds to HTTP statuses. Raw storage errors are
// never echoed to the client.
func failErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrInvalidID):
		fail(w, http.StatusBadRequest, domain.ErrInvalidID.Error())
	case errors.Is(err, domain.ErrInvalidEntry):
		fail(w, http.StatusBadRequest, domain.ErrInvalidEntry.Error())
	case errors.Is(err, domain.ErrBedOccupied):
		fail(w, http.StatusConflict, domain.ErrBedOccupied.Error())
	case errors.Is(err, domain.ErrAlreadyAdmitted):
		fail(w, http.StatusConflict, domain.ErrAlreadyAdmitted.Error())
	case errors.Is(err, domain.ErrNoActiveStay):
		fail(w, http.StatusConflict, domain.ErrNoActiveStay.Error())
	case errors.Is(err, domain.ErrTransactionConflict),
		errors.Is(err, domain.ErrStoreUnavailable):
		fail(w, http.StatusServiceUnavailable, "temporarily unavailable, retry later")
	default:
		fail(w, http.StatusInternalServerError, "internal error")
	}
}
