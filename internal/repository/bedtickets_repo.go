package repository

import (
	"context"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// BedTicketsRepository owns the per-stay encrypted entry logs
// (patients.bedtickets) and the bed occupancy board (stats.beds).
type BedTicketsRepository interface {
	// CreateStay allocates a stay id with an empty entry log.
	CreateStay(ctx context.Context, patientID int) (int, error)

	GetEntries(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error)
	GetEntriesForUpdate(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error)

	// SaveEntries overwrites the stay's entry log (newest first).
	SaveEntries(ctx context.Context, stayID int, entries []domain.ClinicalEntry) error

	// GetBedForUpdate locks and returns the bed row. Bed rows are
	// pre-provisioned; an unknown bed id is ErrNotFound.
	GetBedForUpdate(ctx context.Context, bedID int) (*domain.BedOccupancy, error)

	// ClaimBed points the bed row at the patient/stay pair.
	ClaimBed(ctx context.Context, bedID, patientID, stayID int, patientName string, now time.Time) error

	// ReleaseBedForStay clears whichever bed row holds stayID.
	ReleaseBedForStay(ctx context.Context, stayID int, now time.Time) error

	ListBeds(ctx context.Context) ([]domain.BedOccupancy, error)
	CountOccupiedBeds(ctx context.Context) (int, error)
}
