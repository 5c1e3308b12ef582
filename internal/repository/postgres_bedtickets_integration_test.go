//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// seedTestBed inserts a free bed row with an id outside the normal range so
// the test does not collide with provisioned beds.
func seedTestBed(t *testing.T, db *sql.DB) int {
	const bedID = 99001
	_, err := db.Exec(
		`INSERT INTO stats.beds (id) VALUES ($1)
		 ON CONFLICT (id) DO UPDATE SET pid = NULL, bid = NULL, name = NULL`, bedID)
	if err != nil {
		t.Fatalf("Failed to seed test bed: %v", err)
	}
	return bedID
}

func cleanupTestBed(t *testing.T, db *sql.DB, bedID int) {
	db.Exec(`DELETE FROM stats.beds WHERE id = $1`, bedID)
}

func createTestPatient(t *testing.T, db *sql.DB) int {
	repo := NewPostgresPatientsRepository(db, getTestCodec(t))
	id, err := repo.CreatePatient(context.Background(), &domain.PatientRecord{
		Demographics: domain.Demographics{FirstName: "Ticket", LastName: "Owner"},
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	return id
}

func TestPostgresBedTicketsRepository_StayAndEntries(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresBedTicketsRepository(db, getTestCodec(t))
	ctx := context.Background()

	pid := createTestPatient(t, db)
	defer cleanupTestPatient(t, db, pid)

	sid, err := repo.CreateStay(ctx, pid)
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	// fresh ticket has a NULL records column and reads back empty
	entries, err := repo.GetEntries(ctx, sid)
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("Expected empty entry log, got %d entries", len(entries))
	}

	entries = []domain.ClinicalEntry{{
		LocalID:   1,
		Category:  domain.EntryDiagnosis,
		Note:      "pneumonia, right lower lobe",
		CreatedAt: time.Now().UTC(),
	}}
	if err := repo.SaveEntries(ctx, sid, entries); err != nil {
		t.Fatalf("SaveEntries failed: %v", err)
	}

	got, err := repo.GetEntries(ctx, sid)
	if err != nil {
		t.Fatalf("GetEntries after save failed: %v", err)
	}
	if len(got) != 1 || got[0].Note != entries[0].Note {
		t.Fatalf("Entry log round trip mismatch: %+v", got)
	}

	if _, err := repo.GetEntries(ctx, -1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown stay, got %v", err)
	}

	t.Logf("✅ StayAndEntries test passed: sid=%d", sid)
}

func TestPostgresBedTicketsRepository_ClaimAndRelease(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresBedTicketsRepository(db, getTestCodec(t))
	ctx := context.Background()

	pid := createTestPatient(t, db)
	defer cleanupTestPatient(t, db, pid)
	bedID := seedTestBed(t, db)
	defer cleanupTestBed(t, db, bedID)

	sid, err := repo.CreateStay(ctx, pid)
	if err != nil {
		t.Fatalf("CreateStay failed: %v", err)
	}

	now := time.Now().UTC()
	if err := repo.ClaimBed(ctx, bedID, pid, sid, "Ticket Owner", now); err != nil {
		t.Fatalf("ClaimBed failed: %v", err)
	}

	bed, err := repo.GetBedForUpdate(ctx, bedID)
	if err != nil {
		t.Fatalf("GetBedForUpdate failed: %v", err)
	}
	if !bed.Occupied() || *bed.PatientID != pid || *bed.StayID != sid {
		t.Fatalf("Bed not claimed as expected: %+v", bed)
	}
	if *bed.PatientName != "Ticket Owner" {
		t.Errorf("Expected patient name 'Ticket Owner', got '%s'", *bed.PatientName)
	}

	if err := repo.ReleaseBedForStay(ctx, sid, now.Add(time.Minute)); err != nil {
		t.Fatalf("ReleaseBedForStay failed: %v", err)
	}
	bed, err = repo.GetBedForUpdate(ctx, bedID)
	if err != nil {
		t.Fatalf("GetBedForUpdate after release failed: %v", err)
	}
	if bed.Occupied() {
		t.Fatalf("Expected bed to be free after release: %+v", bed)
	}

	if err := repo.ClaimBed(ctx, -1, pid, sid, "x", now); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound claiming unknown bed, got %v", err)
	}
}

func TestPostgresTxManager_RollbackOnError(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	codec := getTestCodec(t)
	txm := NewPostgresTxManager(db, codec)
	ctx := context.Background()

	bedID := seedTestBed(t, db)
	defer cleanupTestBed(t, db, bedID)

	var pid int
	boom := errors.New("boom")
	err := txm.RunTx(ctx, func(p PatientsRepository, b BedTicketsRepository) error {
		var err error
		pid, err = p.CreatePatient(ctx, &domain.PatientRecord{
			Demographics: domain.Demographics{FirstName: "Rolled", LastName: "Back"},
		})
		if err != nil {
			return err
		}
		sid, err := b.CreateStay(ctx, pid)
		if err != nil {
			return err
		}
		if err := b.ClaimBed(ctx, bedID, pid, sid, "Rolled Back", time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error back, got %v", err)
	}

	repo := NewPostgresPatientsRepository(db, codec)
	if _, err := repo.GetPatient(ctx, pid); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected patient insert rolled back, got %v", err)
	}

	tickets := NewPostgresBedTicketsRepository(db, codec)
	bed, err := tickets.GetBedForUpdate(ctx, bedID)
	if err != nil {
		t.Fatalf("GetBedForUpdate failed: %v", err)
	}
	if bed.Occupied() {
		t.Errorf("Expected bed claim rolled back: %+v", bed)
	}

	t.Logf("✅ RollbackOnError test passed")
}
