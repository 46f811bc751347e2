package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// Tracker records resolutions and answers usage queries.
type Tracker interface {
	// Record stores one resolution.
	Record(ctx context.Context, rec models.UsageRecord) error
	// Recent returns the latest records, newest first.
	Recent(ctx context.Context, limit int) ([]models.UsageRecord, error)
	// Summary aggregates records since a given time by outcome.
	Summary(ctx context.Context, since time.Time) ([]models.UsageSummary, error)
	// TopRequested returns the most requested fingerprints since a given time.
	TopRequested(ctx context.Context, since time.Time, limit int) ([]models.TopRequest, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS resolutions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	language TEXT NOT NULL,
	outcome TEXT NOT NULL,
	budget INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_time ON resolutions(created_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_fp ON resolutions(fingerprint);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}
	return &SQLiteTracker{db: db}, nil
}

// Record stores a resolution. A zero CreatedAt is stamped with the current time.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.UsageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO resolutions (fingerprint, category, language, outcome, budget, total_tokens, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Fingerprint, string(rec.Category), string(rec.Language), string(rec.Outcome),
		rec.Budget, rec.TotalTokens, rec.LatencyMs, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, limit int) ([]models.UsageRecord, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, fingerprint, category, language, outcome, budget, total_tokens, latency_ms, created_at
		 FROM resolutions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		var cat, lang, outcome string
		var created int64
		if err := rows.Scan(&r.ID, &r.Fingerprint, &cat, &lang, &outcome, &r.Budget, &r.TotalTokens, &r.LatencyMs, &created); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		r.Category = models.Category(cat)
		r.Language = models.Language(lang)
		r.Outcome = models.Outcome(outcome)
		r.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary returns resolutions since a given time grouped by outcome.
func (t *SQLiteTracker) Summary(ctx context.Context, since time.Time) ([]models.UsageSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*), COALESCE(SUM(total_tokens), 0), COALESCE(AVG(latency_ms), 0)
		 FROM resolutions WHERE created_at >= ?
		 GROUP BY outcome ORDER BY outcome`,
		since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		var outcome string
		if err := rows.Scan(&outcome, &s.RequestCount, &s.TotalTokens, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Outcome = models.Outcome(outcome)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// TopRequested returns fingerprints ordered by request count. Rule answers
// and rejected input carry no fingerprint and are left out.
func (t *SQLiteTracker) TopRequested(ctx context.Context, since time.Time, limit int) ([]models.TopRequest, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT fingerprint, category, language, COUNT(*) AS n
		 FROM resolutions WHERE fingerprint != '' AND created_at >= ?
		 GROUP BY fingerprint, category, language
		 ORDER BY n DESC, MAX(created_at) DESC LIMIT ?`,
		since.UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top requested: %w", err)
	}
	defer rows.Close()

	var top []models.TopRequest
	for rows.Next() {
		var r models.TopRequest
		var cat, lang string
		if err := rows.Scan(&r.Fingerprint, &cat, &lang, &r.Count); err != nil {
			return nil, fmt.Errorf("scan top requested: %w", err)
		}
		r.Category = models.Category(cat)
		r.Language = models.Language(lang)
		top = append(top, r)
	}
	return top, rows.Err()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
