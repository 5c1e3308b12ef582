package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chxru/sem5-webdev/internal/crypto"
	"github.com/chxru/sem5-webdev/internal/database"
)

// PostgresTxManager opens read-committed transactions and hands the caller
// tx-bound repository views. Row locks taken by the ForUpdate methods live
// until Commit/Rollback.
type PostgresTxManager struct {
	db    *sql.DB
	codec crypto.Codec
}

func NewPostgresTxManager(db *sql.DB, codec crypto.Codec) *PostgresTxManager {
	return &PostgresTxManager{db: db, codec: codec}
}

var _ TxManager = (*PostgresTxManager)(nil)

func (m *PostgresTxManager) RunTx(ctx context.Context, fn func(p PatientsRepository, b BedTicketsRepository) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return database.ClassifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	// no-op after a successful commit
	defer tx.Rollback()

	patients := NewPostgresPatientsRepository(tx, m.codec)
	tickets := NewPostgresBedTicketsRepository(tx, m.codec)

	if err := fn(patients, tickets); err != nil {
		return database.ClassifyError(err)
	}

	if err := tx.Commit(); err != nil {
		return database.ClassifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}
