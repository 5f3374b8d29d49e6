package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/sdbip/agiler-write-model/internal/es"
)

var noEntity es.CanonicalEntityID

// PostgreSQL SQLSTATE codes treated as lost races.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify maps driver errors that mean "another writer got there first" to
// concurrency conflicts. Anything else is returned unchanged.
func classify(entity es.CanonicalEntityID, err error) error {
	if err == nil || !isWriteConflict(err) {
		return err
	}
	if entity.IsZero() {
		return fmt.Errorf("%w: %w", es.ErrConcurrencyConflict, err)
	}
	return &es.ConcurrencyError{Entity: entity, Err: err}
}

func isWriteConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return true
		}
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return true
		}
	}
	return false
}
