package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// File is a Store persisted as a single JSON object on disk. Every write
// rewrites the file through a temp file and rename, so a crash never leaves a
// half-written slot behind.
type File struct {
	path   string
	shadow *Memory

	// mu serializes disk writes and guards degraded.
	mu       sync.Mutex
	degraded bool

	logger zerolog.Logger
}

// OpenFile loads the store at path, creating its directory if needed.
// A missing file is an empty store. An unreadable or corrupt file yields
// ErrStorageUnavailable.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errs.NewError(errs.ErrStorageUnavailable, "no file path configured")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err.Error()).WithCause(err)
	}

	f := &File{
		path:   path,
		shadow: NewMemory(),
		logger: logx.Component("storage").With().Str("driver", DriverFile).Str("path", path).Logger(),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errs.NewError(errs.ErrStorageUnavailable, err.Error()).WithCause(err)
	default:
		values := map[string]string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, errs.NewError(errs.ErrStorageUnavailable, "corrupt store file").WithCause(err)
			}
		}
		for k, v := range values {
			f.shadow.Set(k, v)
		}
	}

	f.logger.Debug().Int("keys", f.shadow.Len()).Msg("File store opened")
	return f, nil
}

// Get implements Store.
func (f *File) Get(key string) (string, bool) {
	return f.shadow.Get(key)
}

// Set implements Store.
func (f *File) Set(key, value string) {
	f.shadow.Set(key, value)
	f.flush()
}

// Remove implements Store.
func (f *File) Remove(key string) {
	f.shadow.Remove(key)
	f.flush()
}

// Degraded implements Degradable.
func (f *File) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.degraded
}

// flush writes the shadow to disk. The first failure degrades the store.
func (f *File) flush() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.degraded {
		return
	}

	if err := f.writeFile(f.shadow.snapshot()); err != nil {
		f.degraded = true
		f.logger.Warn().Err(err).Msg("Identity file not writable; continuing in memory")
	}
}

func (f *File) writeFile(values map[string]string) error {
	payload, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".identity-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}
