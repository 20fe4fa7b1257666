package store

import "errors"

// ErrSchemaVersion reports a SQLite database written by an unknown schema.
var ErrSchemaVersion = errors.New("unsupported schema version")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")
