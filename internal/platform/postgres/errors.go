package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/amora-planner/internal/kv"
	"github.com/phrazzld/amora-planner/internal/redact"
)

// ErrUnavailable is returned when the database cannot be reached.
var ErrUnavailable = errors.New("database unavailable")

// PostgreSQL error codes and classes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// connectionExceptionClass prefixes every connection-level error code (08xxx)
	connectionExceptionClass = "08"

	// undefinedTableCode is returned when migrations have not been applied
	undefinedTableCode = "42P01"
)

// MapError maps a database error to a kv or package error. Messages are
// redacted because driver errors can echo connection strings.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return kv.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return fmt.Errorf("%w: %s", ErrUnavailable, redact.String(pgErr.Message))
		case pgErr.Code == undefinedTableCode:
			return fmt.Errorf("kv table missing, run migrations: %w", err)
		case pgErr.Code == uniqueViolationCode:
			return fmt.Errorf("duplicate key (%s): %w", pgErr.ConstraintName, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %s", ErrUnavailable, redact.Error(err))
	}

	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
