package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrStaleRequest reports that a conditional request update matched no row
// because the request changed status concurrently.
var ErrStaleRequest = errors.New("vacation request changed concurrently")

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// ConstraintName returns the violated constraint, if err carries one.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
