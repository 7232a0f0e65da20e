/*
Package storage implements the persisted identity slot: a small, synchronous
string key/value store that survives restarts.

Operations never return errors. A durable backend that stops working degrades to
its in-memory shadow for the rest of the process lifetime, so callers keep a
working session even when persistence is gone.
*/
package storage

import (
	"botclient/internal/pkg/errs"
)

const (
	// DriverMemory keeps values in process memory only.
	DriverMemory = "memory"

	// DriverFile keeps values in one JSON object file.
	DriverFile = "file"

	// DriverSQLite keeps values in a local SQLite database.
	DriverSQLite = "sqlite"
)

// ServiceConfig holds the configuration required to open a store.
type ServiceConfig struct {
	// Driver selects the backend (memory, file or sqlite).
	Driver string

	// Path is the file location for the file and sqlite drivers.
	Path string
}

// Store is the key/value port the session state persists through.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string)

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)
}

// Degradable is implemented by durable stores that can fall back to memory.
type Degradable interface {
	// Degraded reports whether writes are no longer reaching durable storage.
	Degraded() bool
}

// NewStore opens the store selected by cfg.Driver.
// A durable backend that cannot be opened yields ErrStorageUnavailable; the
// caller is expected to continue with NewMemory().
func NewStore(cfg ServiceConfig) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		f, err := OpenFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case DriverSQLite:
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errs.NewError(errs.ErrStorageUnavailable, "unknown driver "+cfg.Driver)
	}
}
