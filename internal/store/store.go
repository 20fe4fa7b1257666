// Package store provides the storage drivers behind [issue.Repository].
//
// Three drivers exist: "sqlite" keeps issues in a SQLite database, "file"
// keeps them in a single JSON document rewritten atomically on every change,
// and "memory" keeps them in process memory only.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Store is a repository that holds resources until closed.
type Store interface {
	issue.Repository
	Close() error
}

// ErrUnknownDriver is returned by Open for unsupported driver names.
var ErrUnknownDriver = errors.New("unknown store driver")

// Open opens the store for driver. Path is the database or document path and
// is ignored by the memory driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	case DriverFile:
		return OpenFile(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// IsValidDriver reports whether Open accepts driver.
func IsValidDriver(driver string) bool {
	return driver == DriverSQLite || driver == DriverFile || driver == DriverMemory
}
