package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/chxru/sem5-webdev/internal/config"
	"github.com/chxru/sem5-webdev/internal/domain"

	"github.com/lib/pq"
)

// NewPostgresDB opens and pings a PostgreSQL connection.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ClassifyError folds driver-level failures into the two retriability
// classes the services expose. Domain errors pass through untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsClientError(err) ||
		errors.Is(err, domain.ErrCorruptDocument) ||
		errors.Is(err, domain.ErrTransactionConflict) ||
		errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return fmt.Errorf("%v: %w", err, domain.ErrTransactionConflict)
		case "23505": // unique_violation: occupancy backstop index
			return fmt.Errorf("%v: %w", err, domain.ErrTransactionConflict)
		}
		if pqErr.Code.Class() == "08" { // connection exceptions
			return fmt.Errorf("%v: %w", err, domain.ErrStoreUnavailable)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%v: %w", err, domain.ErrStoreUnavailable)
	}

	return err
}
