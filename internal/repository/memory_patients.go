package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// MemoryPatientsRepository map-backed PatientsRepository. Views created by
// MemoryStore.RunTx run with the store mutex already held.
type MemoryPatientsRepository struct {
	s    *MemoryStore
	inTx bool
}

var _ PatientsRepository = (*MemoryPatientsRepository)(nil)

func (r *MemoryPatientsRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *MemoryPatientsRepository) CreatePatient(_ context.Context, rec *domain.PatientRecord) (int, error) {
	defer r.lock()()

	id := r.s.nextPatientID
	r.s.nextPatientID++
	rec.ID = id
	r.s.patients[id] = clonePatient(rec)
	r.s.search[id] = rec.FullName()
	return id, nil
}

func (r *MemoryPatientsRepository) GetPatient(_ context.Context, id int) (*domain.PatientRecord, error) {
	defer r.lock()()
	rec, ok := r.s.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %d: %w", id, domain.ErrNotFound)
	}
	return clonePatient(rec), nil
}

func (r *MemoryPatientsRepository) GetPatientForUpdate(ctx context.Context, id int) (*domain.PatientRecord, error) {
	// the store mutex already serializes transactions
	return r.GetPatient(ctx, id)
}

func (r *MemoryPatientsRepository) SavePatient(_ context.Context, rec *domain.PatientRecord) error {
	defer r.lock()()
	if _, ok := r.s.patients[rec.ID]; !ok {
		return fmt.Errorf("patient %d: %w", rec.ID, domain.ErrNotFound)
	}
	r.s.patients[rec.ID] = clonePatient(rec)
	return nil
}

func (r *MemoryPatientsRepository) SearchPatients(_ context.Context, fragment string) ([]domain.SearchResult, error) {
	defer r.lock()()

	results := []domain.SearchResult{}
	if fragment == "" {
		return results, nil
	}
	needle := strings.ToLower(fragment)
	for id, name := range r.s.search {
		if strings.Contains(strings.ToLower(name), needle) {
			results = append(results, domain.SearchResult{PatientID: id, FullName: name})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].PatientID < results[j].PatientID })
	return results, nil
}

func (r *MemoryPatientsRepository) CountPatients(_ context.Context) (int, error) {
	defer r.lock()()
	return len(r.s.patients), nil
}
