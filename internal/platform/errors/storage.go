package errors

import (
	"context"
	"database/sql"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ncruces/go-sqlite3"
)

// postgres SQLSTATE classes and codes the ping log cares about
const (
	pgClassIntegrity   = "23"
	pgClassConnection  = "08"
	pgClassResources   = "53"
	pgSerialization    = "40001"
	pgDeadlock         = "40P01"
	pgLockNotAvailable = "55P03"
	pgAdminShutdown    = "57P01"
)

// SQLState is err's postgres SQLSTATE, or ""
func SQLState(err error) string {
	var pe *pgconn.PgError
	if stderrs.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func sqliteCode(err error) (sqlite3.ErrorCode, bool) {
	var se *sqlite3.Error
	if stderrs.As(err, &se) {
		return se.Code(), true
	}
	var code sqlite3.ErrorCode
	if stderrs.As(err, &code) {
		return code, true
	}
	return 0, false
}

// IsConstraint reports a unique, check or foreign key violation on either backend
func IsConstraint(err error) bool {
	if st := SQLState(err); st != "" {
		return strings.HasPrefix(st, pgClassIntegrity)
	}
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.CONSTRAINT
}

// Retryable reports whether the same statement may succeed if run again
func Retryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	switch st := SQLState(err); {
	case st == pgSerialization, st == pgDeadlock, st == pgLockNotAvailable, st == pgAdminShutdown:
		return true
	case strings.HasPrefix(st, pgClassConnection), strings.HasPrefix(st, pgClassResources):
		return true
	case st != "":
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.BUSY || code == sqlite3.LOCKED
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "conn closed")
}

// FromStorage turns a driver error into a project error labelled msg.
// Project errors and context errors pass through untouched
func FromStorage(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case stderrs.Is(err, context.Canceled), stderrs.Is(err, context.DeadlineExceeded):
		return err
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case stderrs.Is(err, sql.ErrNoRows), stderrs.Is(err, pgx.ErrNoRows):
		return Wrapf(err, ErrorCodeNotFound, "%s: not found", msg)
	case IsConstraint(err):
		return Wrapf(err, ErrorCodeConsistency, "%s: constraint violated", msg)
	default:
		return Wrapf(err, ErrorCodeUnavailable, "%s: storage unavailable", msg)
	}
}
