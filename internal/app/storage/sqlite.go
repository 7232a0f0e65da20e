package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"botclient/internal/app/db"
	"botclient/internal/pkg/errs"
	"botclient/internal/pkg/logx"
)

// opTimeout bounds each statement so a wedged database cannot stall the caller.
const opTimeout = 2 * time.Second

// SQLite is a Store persisted in a local SQLite database. Reads are served from
// an in-memory shadow loaded at open; writes go to both.
type SQLite struct {
	db     *sql.DB
	shadow *Memory

	mu       sync.Mutex
	degraded bool

	logger zerolog.Logger
}

// OpenSQLite opens (creating and migrating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errs.NewError(errs.ErrStorageUnavailable, "no database path configured")
	}

	sqlDB, err := db.Open(path)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorageUnavailable, err.Error()).WithCause(err)
	}

	s := &SQLite{
		db:     sqlDB,
		shadow: NewMemory(),
		logger: logx.Component("storage").With().Str("driver", DriverSQLite).Str("path", path).Logger(),
	}

	if err := s.load(); err != nil {
		sqlDB.Close()
		return nil, errs.NewError(errs.ErrStorageUnavailable, err.Error()).WithCause(err)
	}

	s.logger.Debug().Int("keys", s.shadow.Len()).Msg("SQLite store opened")
	return s, nil
}

func (s *SQLite) load() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		s.shadow.Set(key, value)
	}
	return rows.Err()
}

// Get implements Store.
func (s *SQLite) Get(key string) (string, bool) {
	return s.shadow.Get(key)
}

// Set implements Store.
func (s *SQLite) Set(key, value string) {
	s.shadow.Set(key, value)
	s.exec("set", key,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
}

// Remove implements Store.
func (s *SQLite) Remove(key string) {
	s.shadow.Remove(key)
	s.exec("remove", key, "DELETE FROM kv WHERE key = ?", key)
}

// Degraded implements Degradable.
func (s *SQLite) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.degraded
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) exec(op, key, query string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if db.IsUnavailable(err) || ctx.Err() != nil {
			s.degraded = true
			s.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("Identity database unavailable; continuing in memory")
			return
		}
		s.logger.Error().Err(err).Str("op", op).Str("key", key).Msg("Identity database write failed")
	}
}
