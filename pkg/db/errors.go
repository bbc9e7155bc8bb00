package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. Postgres
// errors are matched on SQLSTATE (and constraint name when given); anything else,
// such as the SQLite driver used in tests, falls back to message inspection.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && matchesConstraint(pgxErr.ConstraintName, constraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && matchesConstraint(pqErr.Constraint, constraintName)
	}

	msg := strings.ToLower(err.Error())
	if constraintName != "" && strings.Contains(msg, strings.ToLower(constraintName)) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint failed")
}

func matchesConstraint(actual, want string) bool {
	return want == "" || actual == want
}
