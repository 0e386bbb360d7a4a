// Package repository contains the sqlx data access layer. Repositories
// return sql.ErrNoRows untouched for missing records and ErrUniqueViolation
// for constraint races, leaving error classification to the service layer.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrUniqueViolation is returned when an insert loses a uniqueness race,
// such as two concurrent submissions against the same circular.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrNoTransition is returned when a guarded status update matches no rows,
// meaning the record already left the expected state.
var ErrNoTransition = errors.New("no matching state transition")

// uniqueViolationCode is the Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
