package repository

import (
	"context"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// PatientsRepository owns the encrypted patient documents (patients.info)
// and the clear-text search index (patients.search).
//
// ForUpdate variants take a row lock that lives until the surrounding
// transaction ends; they are only meaningful inside TxManager.RunTx.
type PatientsRepository interface {
	// CreatePatient persists the encrypted document and its search index
	// row. ID is assigned by the store and set on rec before return.
	CreatePatient(ctx context.Context, rec *domain.PatientRecord) (int, error)

	GetPatient(ctx context.Context, id int) (*domain.PatientRecord, error)
	GetPatientForUpdate(ctx context.Context, id int) (*domain.PatientRecord, error)

	// SavePatient overwrites the encrypted document for rec.ID.
	SavePatient(ctx context.Context, rec *domain.PatientRecord) error

	// SearchPatients case-insensitive substring match on full_name. An
	// empty fragment returns an empty slice, never an error.
	SearchPatients(ctx context.Context, fragment string) ([]domain.SearchResult, error)

	CountPatients(ctx context.Context) (int, error)
}
