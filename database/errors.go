package database

import (
	"errors"
	"fmt"

	"github.com/safing/rpsldb/object"
)

// Errors.
var (
	ErrNotFound           = errors.New("database entry not found")
	ErrInvalidQuery       = errors.New("invalid query")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrSessionClosed      = errors.New("session already closed")
	ErrShuttingDown       = errors.New("database is shutting down")
	ErrInvalidConfig      = errors.New("invalid database configuration")
	ErrIncompatibleSchema = errors.New("database schema is newer than this program")
	ErrMalformedRow       = errors.New("malformed database row")

	// ErrInvalidObject is returned when an object cannot be stored.
	ErrInvalidObject = object.ErrInvalidObject
)

// ConflictError is returned when a derived index entry is already owned by
// another object and unique entries are enforced.
type ConflictError struct {
	Family   string
	Key      string
	Existing uint64
	Incoming uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already owned by object %d (saving object %d)", e.Family, e.Key, e.Existing, e.Incoming)
}

// IsNotFound returns whether err is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns whether err reports an invalid query or object.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuery) || errors.Is(err, object.ErrInvalidObject) || errors.Is(err, object.ErrEmptyObject)
}

// IsConflict returns whether err is a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
