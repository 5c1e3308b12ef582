package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RunTxRollsBackOnError(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunTx(ctx, func(p PatientsRepository, b BedTicketsRepository) error {
		id, err := p.CreatePatient(ctx, &domain.PatientRecord{
			Demographics: domain.Demographics{FirstName: "Jane", LastName: "Perera"},
		})
		require.NoError(t, err)

		sid, err := b.CreateStay(ctx, id)
		require.NoError(t, err)
		require.NoError(t, b.ClaimBed(ctx, 1, id, sid, "Jane Perera", time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// nothing from the failed transaction is visible
	n, err := s.Patients().CountPatients(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	beds, err := s.BedTickets().ListBeds(ctx)
	require.NoError(t, err)
	for _, bed := range beds {
		assert.False(t, bed.Occupied())
	}

	// id sequences rewind with the snapshot, matching an aborted SQL tx
	// closely enough for the engine's contract (fresh reads on retry)
	err = s.RunTx(ctx, func(p PatientsRepository, _ BedTicketsRepository) error {
		id, err := p.CreatePatient(ctx, &domain.PatientRecord{
			Demographics: domain.Demographics{FirstName: "John", LastName: "Fernando"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, id)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_RunTxCommitsOnNil(t *testing.T) {
	s := NewMemoryStore(1)
	ctx := context.Background()

	var pid int
	err := s.RunTx(ctx, func(p PatientsRepository, _ BedTicketsRepository) error {
		var err error
		pid, err = p.CreatePatient(ctx, &domain.PatientRecord{
			Demographics: domain.Demographics{FirstName: "Jane", LastName: "Perera"},
		})
		return err
	})
	require.NoError(t, err)

	rec, err := s.Patients().GetPatient(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, "Jane Perera", rec.FullName())
}

func TestMemoryStore_SearchMatchesSubstring(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	_, err := s.Patients().CreatePatient(ctx, &domain.PatientRecord{
		Demographics: domain.Demographics{FirstName: "Jane", LastName: "Perera"},
	})
	require.NoError(t, err)

	results, err := s.Patients().SearchPatients(ctx, "ne Pe")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.Patients().SearchPatients(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_GetEntriesEmptyForFreshStay(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	sid, err := s.BedTickets().CreateStay(ctx, 1)
	require.NoError(t, err)

	entries, err := s.BedTickets().GetEntries(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.BedTickets().GetEntries(ctx, sid+1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
