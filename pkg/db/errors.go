package db

import "strings"

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraintName is non-empty the error must also reference that
// constraint. Matches both the Postgres and sqlite message formats so callers
// behave the same under the test dialector.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
