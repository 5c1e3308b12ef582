package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chxru/sem5-webdev/internal/crypto"
	"github.com/chxru/sem5-webdev/internal/database"
	"github.com/chxru/sem5-webdev/internal/domain"
)

// PostgresPatientsRepository patients.info + patients.search access.
// Documents are stored as one encrypted blob per patient; only the search
// index row is clear text.
type PostgresPatientsRepository struct {
	q     Querier
	codec crypto.Codec
}

func NewPostgresPatientsRepository(q Querier, codec crypto.Codec) *PostgresPatientsRepository {
	return &PostgresPatientsRepository{q: q, codec: codec}
}

var _ PatientsRepository = (*PostgresPatientsRepository)(nil)

func (r *PostgresPatientsRepository) CreatePatient(ctx context.Context, rec *domain.PatientRecord) (int, error) {
	blob, err := r.codec.Encode(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode patient document: %w", err)
	}

	var id int
	err = r.q.QueryRowContext(ctx,
		`INSERT INTO patients.info (data) VALUES ($1) RETURNING id`,
		blob,
	).Scan(&id)
	if err != nil {
		return 0, database.ClassifyError(fmt.Errorf("failed to insert patient: %w", err))
	}
	rec.ID = id

	// index write is part of the same transaction as the insert; if it
	// fails the caller rolls back and the patient row disappears with it
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO patients.search (id, full_name) VALUES ($1, $2)`,
		id, rec.FullName(),
	)
	if err != nil {
		return 0, database.ClassifyError(fmt.Errorf("failed to insert search index row: %w", err))
	}

	return id, nil
}

func (r *PostgresPatientsRepository) GetPatient(ctx context.Context, id int) (*domain.PatientRecord, error) {
	return r.getPatient(ctx, id, false)
}

func (r *PostgresPatientsRepository) GetPatientForUpdate(ctx context.Context, id int) (*domain.PatientRecord, error) {
	return r.getPatient(ctx, id, true)
}

func (r *PostgresPatientsRepository) getPatient(ctx context.Context, id int, forUpdate bool) (*domain.PatientRecord, error) {
	query := `SELECT data FROM patients.info WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var blob string
	err := r.q.QueryRowContext(ctx, query, id).Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %d: %w", id, domain.ErrNotFound)
		}
		return nil, database.ClassifyError(fmt.Errorf("failed to get patient: %w", err))
	}

	var rec domain.PatientRecord
	if err := r.codec.Decode(blob, &rec); err != nil {
		return nil, fmt.Errorf("patient %d: %w", id, err)
	}
	// the id column is authoritative
	rec.ID = id
	return &rec, nil
}

func (r *PostgresPatientsRepository) SavePatient(ctx context.Context, rec *domain.PatientRecord) error {
	blob, err := r.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode patient document: %w", err)
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE patients.info SET data = $1 WHERE id = $2`,
		blob, rec.ID,
	)
	if err != nil {
		return database.ClassifyError(fmt.Errorf("failed to save patient: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("patient %d: %w", rec.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresPatientsRepository) SearchPatients(ctx context.Context, fragment string) ([]domain.SearchResult, error) {
	if fragment == "" {
		return []domain.SearchResult{}, nil
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, full_name FROM patients.search WHERE full_name ILIKE $1 ORDER BY id`,
		"%"+fragment+"%",
	)
	if err != nil {
		return nil, database.ClassifyError(fmt.Errorf("failed to search patients: %w", err))
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var res domain.SearchResult
		if err := rows.Scan(&res.PatientID, &res.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(fmt.Errorf("failed to iterate search rows: %w", err))
	}
	return results, nil
}

func (r *PostgresPatientsRepository) CountPatients(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients.info`).Scan(&n)
	if err != nil {
		return 0, database.ClassifyError(fmt.Errorf("failed to count patients: %w", err))
	}
	return n, nil
}
