// Package store is the data access layer for the traceability schema.
//
// Requirement and testcase content is append-only: every content change
// inserts a new (id, version) row and earlier versions are never modified.
// The only columns updated in place are workflow status fields on the head
// version.
package store

import (
	"errors"

	"github.com/reqtrace/reqtrace/internal/logger"
	"github.com/reqtrace/reqtrace/pkg/database"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPastVersion is returned when a status update targets a version
	// that is no longer the head. Past versions are immutable.
	ErrPastVersion = errors.New("version is not the head version")

	// ErrInvalidCredential is returned when a TCM credential carries
	// neither an API key nor a username and password pair.
	ErrInvalidCredential = errors.New("credential requires an api key or a username and password")

	// ErrLimitExceeded is returned when recording usage would exceed the
	// subscription's limit for that metric.
	ErrLimitExceeded = errors.New("usage limit exceeded")
)

// Store provides access to the traceability database.
type Store struct {
	db     *database.PostgreSQL
	logger logger.LoggerInterface
}

// New creates a new store backed by the given database.
func New(db *database.PostgreSQL, log logger.LoggerInterface) *Store {
	return &Store{
		db:     db,
		logger: log,
	}
}

// nullableText maps an empty string to NULL.
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
