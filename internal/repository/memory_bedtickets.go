package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// MemoryBedTicketsRepository map-backed BedTicketsRepository.
type MemoryBedTicketsRepository struct {
	s    *MemoryStore
	inTx bool
}

var _ BedTicketsRepository = (*MemoryBedTicketsRepository)(nil)

func (r *MemoryBedTicketsRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *MemoryBedTicketsRepository) CreateStay(_ context.Context, patientID int) (int, error) {
	defer r.lock()()

	id := r.s.nextStayID
	r.s.nextStayID++
	r.s.tickets[id] = &memoryTicket{patientID: patientID, entries: []domain.ClinicalEntry{}}
	return id, nil
}

func (r *MemoryBedTicketsRepository) GetEntries(_ context.Context, stayID int) ([]domain.ClinicalEntry, error) {
	defer r.lock()()
	t, ok := r.s.tickets[stayID]
	if !ok {
		return nil, fmt.Errorf("bed ticket %d: %w", stayID, domain.ErrNotFound)
	}
	return cloneEntries(t.entries), nil
}

func (r *MemoryBedTicketsRepository) GetEntriesForUpdate(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error) {
	return r.GetEntries(ctx, stayID)
}

func (r *MemoryBedTicketsRepository) SaveEntries(_ context.Context, stayID int, entries []domain.ClinicalEntry) error {
	defer r.lock()()
	t, ok := r.s.tickets[stayID]
	if !ok {
		return fmt.Errorf("bed ticket %d: %w", stayID, domain.ErrNotFound)
	}
	t.entries = cloneEntries(entries)
	return nil
}

func (r *MemoryBedTicketsRepository) GetBedForUpdate(_ context.Context, bedID int) (*domain.BedOccupancy, error) {
	defer r.lock()()
	bed, ok := r.s.beds[bedID]
	if !ok {
		return nil, fmt.Errorf("bed %d: %w", bedID, domain.ErrNotFound)
	}
	return cloneBed(bed), nil
}

func (r *MemoryBedTicketsRepository) ClaimBed(_ context.Context, bedID, patientID, stayID int, patientName string, now time.Time) error {
	defer r.lock()()
	bed, ok := r.s.beds[bedID]
	if !ok {
		return fmt.Errorf("bed %d: %w", bedID, domain.ErrNotFound)
	}
	bed.PatientID = &patientID
	bed.StayID = &stayID
	bed.PatientName = &patientName
	bed.UpdatedAt = now
	return nil
}

func (r *MemoryBedTicketsRepository) ReleaseBedForStay(_ context.Context, stayID int, now time.Time) error {
	defer r.lock()()
	for _, bed := range r.s.beds {
		if bed.StayID != nil && *bed.StayID == stayID {
			bed.PatientID = nil
			bed.StayID = nil
			bed.PatientName = nil
			bed.UpdatedAt = now
		}
	}
	return nil
}

func (r *MemoryBedTicketsRepository) ListBeds(_ context.Context) ([]domain.BedOccupancy, error) {
	defer r.lock()()

	beds := make([]domain.BedOccupancy, 0, len(r.s.beds))
	for _, bed := range r.s.beds {
		beds = append(beds, *cloneBed(bed))
	}
	sort.Slice(beds, func(i, j int) bool { return beds[i].BedID < beds[j].BedID })
	return beds, nil
}

func (r *MemoryBedTicketsRepository) CountOccupiedBeds(_ context.Context) (int, error) {
	defer r.lock()()
	n := 0
	for _, bed := range r.s.beds {
		if bed.PatientID != nil {
			n++
		}
	}
	return n, nil
}
