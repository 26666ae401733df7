package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintError represents a database constraint violation surfaced by a
// save or delete call.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("ripple/store: constraint failed: %s: %v", e.msg, e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *ConstraintError) Unwrap() error { return e.wrap }

// IsConstraintError returns true if the error resulted from a database
// constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports if the error resulted from a uniqueness
// constraint violation, e.g. a duplicate value in a unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return pqe.Code == pgUniqueViolation
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		return mye.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // SQLite
}

// IsForeignKeyConstraintError reports if the error resulted from a
// foreign-key constraint violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return pqe.Code == pgForeignKeyViolation
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		return mye.Number == mysqlForeignKeyParent || mye.Number == mysqlForeignKeyChild
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed") // SQLite
}

// IsCheckConstraintError reports if the error resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return pqe.Code == pgCheckViolation
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		return mye.Number == mysqlCheckConstraintViolate
	}
	return strings.Contains(err.Error(), "CHECK constraint failed") // SQLite
}
