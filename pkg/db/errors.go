package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgconn"
)

// IsUniqueViolation reports whether the provided error is a Postgres unique
// violation. When constraintName is provided the match is narrowed to that
// constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	// Fallback for drivers that only surface the message text (sqlite in tests).
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
