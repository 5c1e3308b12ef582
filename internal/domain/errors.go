package domain

import "errors"

// Error kinds returned across the service boundary. Handlers map these to
// HTTP statuses; nothing below this package returns raw storage errors.
var (
	// ErrInvalidID: a supplied identifier is not a positive integer.
	ErrInvalidID = errors.New("invalid id")

	// ErrNotFound: patient, stay or bed id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBedOccupied: target bed already has a patient.
	ErrBedOccupied = errors.New("bed already occupied")

	// ErrAlreadyAdmitted: patient already has an active bed ticket.
	ErrAlreadyAdmitted = errors.New("patient already has an active bed ticket")

	// ErrNoActiveStay: discharge requested but no active bed ticket.
	ErrNoActiveStay = errors.New("patient has no active bed ticket")

	// ErrInvalidEntry: clinical entry payload is not well formed.
	ErrInvalidEntry = errors.New("invalid clinical entry")

	// ErrCorruptDocument: stored blob failed to decrypt/decode. Fatal for
	// the request, never repaired silently.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrTransactionConflict: lock timeout / serialization failure. The
	// whole operation is safe to retry from scratch.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrStoreUnavailable: storage unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsClientError reports whether err is the caller's fault (fix the request)
// as opposed to a server-side failure (retry later).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBedOccupied) ||
		errors.Is(err, ErrAlreadyAdmitted) ||
		errors.Is(err, ErrNoActiveStay) ||
		errors.Is(err, ErrInvalidEntry)
}
