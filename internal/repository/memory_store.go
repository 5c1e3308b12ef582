package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// MemoryStore in-memory backing for both repositories, used by unit tests
// and DB-less development runs (same pattern as the memory repos that back
// the admin pages when Postgres is down).
//
// RunTx serializes all transactions under one mutex and restores a snapshot
// on rollback, so it honors the same atomicity contract as Postgres: no
// partial effect is ever visible.
type MemoryStore struct {
	mu sync.Mutex

	patients map[int]*domain.PatientRecord
	search   map[int]string
	tickets  map[int]*memoryTicket
	beds     map[int]*domain.BedOccupancy

	nextPatientID int
	nextStayID    int
}

type memoryTicket struct {
	patientID int
	entries   []domain.ClinicalEntry
}

// NewMemoryStore seeds bedCount pre-provisioned free beds (ids 1..bedCount).
func NewMemoryStore(bedCount int) *MemoryStore {
	s := &MemoryStore{
		patients:      map[int]*domain.PatientRecord{},
		search:        map[int]string{},
		tickets:       map[int]*memoryTicket{},
		beds:          map[int]*domain.BedOccupancy{},
		nextPatientID: 1,
		nextStayID:    1,
	}
	for i := 1; i <= bedCount; i++ {
		s.beds[i] = &domain.BedOccupancy{BedID: i, UpdatedAt: time.Now()}
	}
	return s
}

var _ TxManager = (*MemoryStore)(nil)

func (s *MemoryStore) RunTx(ctx context.Context, fn func(p PatientsRepository, b BedTicketsRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", domain.ErrTransactionConflict)
	}

	snap := s.snapshot()
	err := fn(
		&MemoryPatientsRepository{s: s, inTx: true},
		&MemoryBedTicketsRepository{s: s, inTx: true},
	)
	if err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Patients returns a repository view for use outside transactions.
func (s *MemoryStore) Patients() PatientsRepository {
	return &MemoryPatientsRepository{s: s}
}

// BedTickets returns a repository view for use outside transactions.
func (s *MemoryStore) BedTickets() BedTicketsRepository {
	return &MemoryBedTicketsRepository{s: s}
}

type memorySnapshot struct {
	patients      map[int]*domain.PatientRecord
	search        map[int]string
	tickets       map[int]*memoryTicket
	beds          map[int]*domain.BedOccupancy
	nextPatientID int
	nextStayID    int
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		patients:      make(map[int]*domain.PatientRecord, len(s.patients)),
		search:        make(map[int]string, len(s.search)),
		tickets:       make(map[int]*memoryTicket, len(s.tickets)),
		beds:          make(map[int]*domain.BedOccupancy, len(s.beds)),
		nextPatientID: s.nextPatientID,
		nextStayID:    s.nextStayID,
	}
	for id, rec := range s.patients {
		snap.patients[id] = clonePatient(rec)
	}
	for id, name := range s.search {
		snap.search[id] = name
	}
	for id, t := range s.tickets {
		snap.tickets[id] = &memoryTicket{patientID: t.patientID, entries: cloneEntries(t.entries)}
	}
	for id, bed := range s.beds {
		snap.beds[id] = cloneBed(bed)
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.patients = snap.patients
	s.search = snap.search
	s.tickets = snap.tickets
	s.beds = snap.beds
	s.nextPatientID = snap.nextPatientID
	s.nextStayID = snap.nextStayID
}

func clonePatient(rec *domain.PatientRecord) *domain.PatientRecord {
	if rec == nil {
		return nil
	}
	out := *rec
	if rec.ActiveStay != nil {
		v := *rec.ActiveStay
		out.ActiveStay = &v
	}
	out.StayHistory = make([]domain.StayRef, len(rec.StayHistory))
	for i, ref := range rec.StayHistory {
		out.StayHistory[i] = ref
		if ref.DischargedAt != nil {
			t := *ref.DischargedAt
			out.StayHistory[i].DischargedAt = &t
		}
	}
	return &out
}

func cloneEntries(entries []domain.ClinicalEntry) []domain.ClinicalEntry {
	out := make([]domain.ClinicalEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Attachments = append([]domain.Attachment(nil), e.Attachments...)
	}
	return out
}

func cloneBed(bed *domain.BedOccupancy) *domain.BedOccupancy {
	if bed == nil {
		return nil
	}
	out := *bed
	if bed.PatientID != nil {
		v := *bed.PatientID
		out.PatientID = &v
	}
	if bed.StayID != nil {
		v := *bed.StayID
		out.StayID = &v
	}
	if bed.PatientName != nil {
		v := *bed.PatientName
		out.PatientName = &v
	}
	return &out
}
