// Package sqlite is a single-node shared cache tier backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// Store implements cache.SharedStore with a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const createCacheTables = `
CREATE TABLE IF NOT EXISTS cache_entries (
	fingerprint TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	category TEXT NOT NULL,
	language TEXT NOT NULL,
	response TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	count INTEGER NOT NULL DEFAULT 1,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_recent (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	language TEXT NOT NULL,
	fingerprint TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_recent_partition ON cache_recent(category, language, seq);
`

// New opens the database at dbPath and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

const selectEntry = `SELECT fingerprint, text, category, language, response, created_at, count, expires_at FROM cache_entries`

// Get returns the live entry for fp, or nil.
func (s *Store) Get(ctx context.Context, fp string) (*models.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE fingerprint = ? AND expires_at > ?`, fp, s.now().UnixMilli())
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return &e, nil
}

// Put replaces the entry and pushes it onto its partition window in one
// transaction, trimming the window to the newest window rows.
func (s *Store) Put(ctx context.Context, e models.CacheEntry, window int) error {
	if window <= 0 {
		return fmt.Errorf("cache put: window must be positive, got %d", window)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (fingerprint, text, category, language, response, created_at, count, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.Text, string(e.Category), string(e.Language), e.Response,
		e.CreatedAt.UnixMilli(), e.Count, e.ExpiresAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache_recent (category, language, fingerprint) VALUES (?, ?, ?)`,
		string(e.Category), string(e.Language), e.Fingerprint,
	); err != nil {
		return fmt.Errorf("cache push window: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cache_recent WHERE category = ? AND language = ? AND seq NOT IN (
			SELECT seq FROM cache_recent WHERE category = ? AND language = ? ORDER BY seq DESC LIMIT ?)`,
		string(e.Category), string(e.Language), string(e.Category), string(e.Language), window,
	); err != nil {
		return fmt.Errorf("cache trim window: %w", err)
	}
	return tx.Commit()
}

// Touch adds hits to the request count of a live fp and moves its expiry
// later. An expired row stays expired.
func (s *Store) Touch(ctx context.Context, fp string, hits int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cache_entries SET count = count + ?, expires_at = MAX(expires_at, ?)
		 WHERE fingerprint = ? AND expires_at > ?`,
		hits, expiresAt.UnixMilli(), fp, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache touch: %w", err)
	}
	return nil
}

// Recent returns up to n live entries of a partition, newest first.
func (s *Store) Recent(ctx context.Context, cat models.Category, lang models.Language, n int) ([]models.CacheEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.fingerprint, e.text, e.category, e.language, e.response, e.created_at, e.count, e.expires_at
		 FROM (SELECT seq, fingerprint FROM cache_recent WHERE category = ? AND language = ? ORDER BY seq DESC LIMIT ?) r
		 JOIN cache_entries e ON e.fingerprint = r.fingerprint
		 WHERE e.expires_at > ?
		 ORDER BY r.seq DESC`,
		string(cat), string(lang), n, s.now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("cache recent: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var entries []models.CacheEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		if seen[e.Fingerprint] {
			continue
		}
		seen[e.Fingerprint] = true
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of live entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries WHERE expires_at > ?`, s.now().UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Clear removes every entry and window row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries; DELETE FROM cache_recent;`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// PurgeExpired removes expired entries and returns how many were dropped.
// Window rows pointing at them are left to age out through the trim.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (models.CacheEntry, error) {
	var e models.CacheEntry
	var cat, lang string
	var created, expires int64
	if err := sc.Scan(&e.Fingerprint, &e.Text, &cat, &lang, &e.Response, &created, &e.Count, &expires); err != nil {
		return models.CacheEntry{}, err
	}
	e.Category = models.Category(cat)
	e.Language = models.Language(lang)
	e.CreatedAt = time.UnixMilli(created)
	e.ExpiresAt = time.UnixMilli(expires)
	return e, nil
}
