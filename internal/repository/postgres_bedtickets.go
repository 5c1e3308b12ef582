package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chxru/sem5-webdev/internal/crypto"
	"github.com/chxru/sem5-webdev/internal/database"
	"github.com/chxru/sem5-webdev/internal/domain"
)

// PostgresBedTicketsRepository patients.bedtickets + stats.beds access.
// Entry logs are stored encrypted like the patient documents; the bed board
// is clear text (no PHI beyond the denormalized display name).
type PostgresBedTicketsRepository struct {
	q     Querier
	codec crypto.Codec
}

func NewPostgresBedTicketsRepository(q Querier, codec crypto.Codec) *PostgresBedTicketsRepository {
	return &PostgresBedTicketsRepository{q: q, codec: codec}
}

var _ BedTicketsRepository = (*PostgresBedTicketsRepository)(nil)

func (r *PostgresBedTicketsRepository) CreateStay(ctx context.Context, patientID int) (int, error) {
	var id int
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO patients.bedtickets (pid) VALUES ($1) RETURNING id`,
		patientID,
	).Scan(&id)
	if err != nil {
		return 0, database.ClassifyError(fmt.Errorf("failed to create bed ticket: %w", err))
	}
	return id, nil
}

func (r *PostgresBedTicketsRepository) GetEntries(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error) {
	return r.getEntries(ctx, stayID, false)
}

func (r *PostgresBedTicketsRepository) GetEntriesForUpdate(ctx context.Context, stayID int) ([]domain.ClinicalEntry, error) {
	return r.getEntries(ctx, stayID, true)
}

func (r *PostgresBedTicketsRepository) getEntries(ctx context.Context, stayID int, forUpdate bool) ([]domain.ClinicalEntry, error) {
	query := `SELECT records FROM patients.bedtickets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var blob sql.NullString
	err := r.q.QueryRowContext(ctx, query, stayID).Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("bed ticket %d: %w", stayID, domain.ErrNotFound)
		}
		return nil, database.ClassifyError(fmt.Errorf("failed to get bed ticket: %w", err))
	}

	// records is NULL on a freshly created ticket
	if !blob.Valid || blob.String == "" {
		return []domain.ClinicalEntry{}, nil
	}

	var entries []domain.ClinicalEntry
	if err := r.codec.Decode(blob.String, &entries); err != nil {
		return nil, fmt.Errorf("bed ticket %d: %w", stayID, err)
	}
	return entries, nil
}

func (r *PostgresBedTicketsRepository) SaveEntries(ctx context.Context, stayID int, entries []domain.ClinicalEntry) error {
	blob, err := r.codec.Encode(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entry log: %w", err)
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE patients.bedtickets SET records = $1 WHERE id = $2`,
		blob, stayID,
	)
	if err != nil {
		return database.ClassifyError(fmt.Errorf("failed to save entry log: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bed ticket %d: %w", stayID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresBedTicketsRepository) GetBedForUpdate(ctx context.Context, bedID int) (*domain.BedOccupancy, error) {
	bed := domain.BedOccupancy{BedID: bedID}
	var pid, bid sql.NullInt64
	var name sql.NullString

	err := r.q.QueryRowContext(ctx,
		`SELECT pid, bid, name, updated_on FROM stats.beds WHERE id = $1 FOR UPDATE`,
		bedID,
	).Scan(&pid, &bid, &name, &bed.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("bed %d: %w", bedID, domain.ErrNotFound)
		}
		return nil, database.ClassifyError(fmt.Errorf("failed to get bed: %w", err))
	}

	if pid.Valid {
		v := int(pid.Int64)
		bed.PatientID = &v
	}
	if bid.Valid {
		v := int(bid.Int64)
		bed.StayID = &v
	}
	if name.Valid {
		bed.PatientName = &name.String
	}
	return &bed, nil
}

func (r *PostgresBedTicketsRepository) ClaimBed(ctx context.Context, bedID, patientID, stayID int, patientName string, now time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stats.beds SET pid = $1, bid = $2, name = $3, updated_on = $4 WHERE id = $5`,
		patientID, stayID, patientName, now, bedID,
	)
	if err != nil {
		return database.ClassifyError(fmt.Errorf("failed to claim bed: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bed %d: %w", bedID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresBedTicketsRepository) ReleaseBedForStay(ctx context.Context, stayID int, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE stats.beds SET pid = NULL, bid = NULL, name = NULL, updated_on = $2 WHERE bid = $1`,
		stayID, now,
	)
	if err != nil {
		return database.ClassifyError(fmt.Errorf("failed to release bed: %w", err))
	}
	return nil
}

func (r *PostgresBedTicketsRepository) ListBeds(ctx context.Context) ([]domain.BedOccupancy, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, pid, bid, name, updated_on FROM stats.beds ORDER BY id`,
	)
	if err != nil {
		return nil, database.ClassifyError(fmt.Errorf("failed to list beds: %w", err))
	}
	defer rows.Close()

	beds := []domain.BedOccupancy{}
	for rows.Next() {
		var bed domain.BedOccupancy
		var pid, bid sql.NullInt64
		var name sql.NullString
		if err := rows.Scan(&bed.BedID, &pid, &bid, &name, &bed.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bed row: %w", err)
		}
		if pid.Valid {
			v := int(pid.Int64)
			bed.PatientID = &v
		}
		if bid.Valid {
			v := int(bid.Int64)
			bed.StayID = &v
		}
		if name.Valid {
			bed.PatientName = &name.String
		}
		beds = append(beds, bed)
	}
	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(fmt.Errorf("failed to iterate bed rows: %w", err))
	}
	return beds, nil
}

func (r *PostgresBedTicketsRepository) CountOccupiedBeds(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stats.beds WHERE pid IS NOT NULL`,
	).Scan(&n)
	if err != nil {
		return 0, database.ClassifyError(fmt.Errorf("failed to count occupied beds: %w", err))
	}
	return n, nil
}
