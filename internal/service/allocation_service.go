package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
	"github.com/chxru/sem5-webdev/internal/repository"
	"github.com/chxru/sem5-webdev/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock injected time source.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const maxTxAttempts = 3

// AllocationService the admission/discharge/entry engine. Every mutation
// runs inside one TxManager transaction; the check-then-act sequences are
// protected by the row locks the ForUpdate repository methods take.
//
// Lock order inside a transaction is fixed: bed row, then patient row, then
// stay row. No operation takes locks in any other order.
type AllocationService struct {
	txm       repository.TxManager
	tickets   repository.BedTicketsRepository
	kv        store.KV
	sinks     []EventSink
	clock     Clock
	txTimeout time.Duration
	logger    *zap.Logger
}

func NewAllocationService(
	txm repository.TxManager,
	tickets repository.BedTicketsRepository,
	kv store.KV,
	sinks []EventSink,
	clock Clock,
	txTimeout time.Duration,
	logger *zap.Logger,
) *AllocationService {
	if clock == nil {
		clock = realClock{}
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &AllocationService{
		txm:       txm,
		tickets:   tickets,
		kv:        kv,
		sinks:     sinks,
		clock:     clock,
		txTimeout: txTimeout,
		logger:    logger,
	}
}

// Register creates the encrypted patient document and its search index row
// in one transaction.
func (s *AllocationService) Register(ctx context.Context, demographics domain.Demographics, actor int) (int, error) {
	rec := &domain.PatientRecord{
		Demographics: demographics,
		CreatedBy:    actor,
		CreatedAt:    s.clock.Now().UTC(),
	}

	var id int
	err := s.runWithRetry(ctx, func(p repository.PatientsRepository, _ repository.BedTicketsRepository) error {
		var err error
		id, err = p.CreatePatient(ctx, rec)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("patient registered", zap.Int("pid", id), zap.Int("actor", actor))
	return id, nil
}

// Admit opens a new stay for the patient and claims the bed.
func (s *AllocationService) Admit(ctx context.Context, patientID, bedID int) (int, error) {
	if patientID <= 0 {
		return 0, fmt.Errorf("patient id %d: %w", patientID, domain.ErrInvalidID)
	}
	if bedID <= 0 {
		return 0, fmt.Errorf("bed id %d: %w", bedID, domain.ErrInvalidID)
	}

	var stayID int
	var admittedAt time.Time
	err := s.runWithRetry(ctx, func(p repository.PatientsRepository, b repository.BedTicketsRepository) error {
		bed, err := b.GetBedForUpdate(ctx, bedID)
		if err != nil {
			return err
		}
		if bed.Occupied() {
			return fmt.Errorf("bed %d: %w", bedID, domain.ErrBedOccupied)
		}

		rec, err := p.GetPatientForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		if rec.ActiveStay != nil {
			return fmt.Errorf("patient %d: %w", patientID, domain.ErrAlreadyAdmitted)
		}

		sid, err := b.CreateStay(ctx, patientID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		rec.ActiveStay = &sid
		rec.StayHistory = append(rec.StayHistory, domain.StayRef{ID: sid, AdmittedAt: now})
		if err := p.SavePatient(ctx, rec); err != nil {
			return err
		}

		if err := b.ClaimBed(ctx, bedID, patientID, sid, rec.FullName(), now); err != nil {
			return err
		}

		stayID = sid
		admittedAt = now
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("patient admitted",
		zap.Int("pid", patientID), zap.Int("bid", stayID), zap.Int("bed", bedID))
	s.afterCommit(ctx, BedEvent{
		Event: "admit", PatientID: patientID, StayID: stayID, BedID: bedID, At: admittedAt,
	})
	return stayID, nil
}

// Discharge closes the patient's active stay and frees its bed.
func (s *AllocationService) Discharge(ctx context.Context, patientID int) error {
	if patientID <= 0 {
		return fmt.Errorf("patient id %d: %w", patientID, domain.ErrInvalidID)
	}

	var stayID int
	var dischargedAt time.Time
	err := s.runWithRetry(ctx, func(p repository.PatientsRepository, b repository.BedTicketsRepository) error {
		rec, err := p.GetPatientForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		if rec.ActiveStay == nil {
			return fmt.Errorf("patient %d: %w", patientID, domain.ErrNoActiveStay)
		}

		sid := *rec.ActiveStay
		now := s.clock.Now().UTC()
		rec.ActiveStay = nil
		for i := range rec.StayHistory {
			if rec.StayHistory[i].ID == sid {
				t := now
				rec.StayHistory[i].DischargedAt = &t
			}
		}
		if err := p.SavePatient(ctx, rec); err != nil {
			return err
		}

		if err := b.ReleaseBedForStay(ctx, sid, now); err != nil {
			return err
		}

		stayID = sid
		dischargedAt = now
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("patient discharged", zap.Int("pid", patientID), zap.Int("bid", stayID))
	s.afterCommit(ctx, BedEvent{
		Event: "discharge", PatientID: patientID, StayID: stayID, At: dischargedAt,
	})
	return nil
}

// AppendEntry appends a clinical entry to the stay's log. The local id is
// assigned under the stay's row lock, so concurrent appends cannot collide.
//
// Appending to a discharged stay is allowed: late notes (discharge
// summaries, lab results arriving after the fact) are a real workflow.
func (s *AllocationService) AppendEntry(ctx context.Context, stayID int, draft domain.ClinicalEntry, actor int) (domain.ClinicalEntry, error) {
	if stayID <= 0 {
		return domain.ClinicalEntry{}, fmt.Errorf("bed ticket id %d: %w", stayID, domain.ErrInvalidID)
	}
	if !draft.Category.Valid() {
		return domain.ClinicalEntry{}, fmt.Errorf("category %q: %w", draft.Category, domain.ErrInvalidEntry)
	}

	for i := range draft.Attachments {
		if draft.Attachments[i].StoredName == "" {
			ext := filepath.Ext(draft.Attachments[i].OriginalName)
			draft.Attachments[i].StoredName = uuid.NewString() + ext
		}
	}

	var saved domain.ClinicalEntry
	err := s.runWithRetry(ctx, func(_ repository.PatientsRepository, b repository.BedTicketsRepository) error {
		entries, err := b.GetEntriesForUpdate(ctx, stayID)
		if err != nil {
			return err
		}

		draft.LocalID = len(entries) + 1
		draft.CreatedAt = s.clock.Now().UTC()
		draft.CreatedBy = actor

		// newest first
		entries = append([]domain.ClinicalEntry{draft}, entries...)
		if err := b.SaveEntries(ctx, stayID, entries); err != nil {
			return err
		}

		saved = draft
		return nil
	})
	if err != nil {
		return domain.ClinicalEntry{}, err
	}

	s.logger.Info("clinical entry appended",
		zap.Int("bid", stayID), zap.Int("entry", saved.LocalID), zap.Int("actor", actor))
	return saved, nil
}

// ReadEntries returns the stay's entry log, newest first.
func (s *AllocationService) ReadEntries(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error) {
	if stayID <= 0 {
		return nil, fmt.Errorf("bed ticket id %d: %w", stayID, domain.ErrInvalidID)
	}
	return s.tickets.GetEntries(ctx, stayID)
}

// runWithRetry retries the whole transaction on ErrTransactionConflict with
// fresh reads, a bounded number of times. Each attempt gets its own timeout.
func (s *AllocationService) runWithRetry(ctx context.Context, fn func(p repository.PatientsRepository, b repository.BedTicketsRepository) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
		err = s.txm.RunTx(txCtx, fn)
		cancel()
		if err == nil || !errors.Is(err, domain.ErrTransactionConflict) {
			return err
		}

		s.logger.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
	return err
}

// afterCommit fans out side effects that must not be part of the
// transaction: cache invalidation and event publication. All best effort.
func (s *AllocationService) afterCommit(ctx context.Context, ev BedEvent) {
	if s.kv != nil {
		if err := s.kv.Del(ctx, BedBoardCacheKey); err != nil {
			s.logger.Warn("failed to invalidate bed board cache", zap.Error(err))
		}
	}
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			s.logger.Warn("failed to publish bed event",
				zap.String("event", ev.Event), zap.Error(err))
		}
	}
}
