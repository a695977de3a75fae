package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when a write is rejected by a unique index.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-index rejection from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// canonicalID returns id in the form stored in UUID primary keys. Ids that do not parse cannot
// match any row, so callers report them as sql.ErrNoRows instead of sending them to the database.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
