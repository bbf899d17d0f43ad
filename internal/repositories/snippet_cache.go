package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/snipx/internal/models"
)

// SnippetCacheRepository stores the last-fetched snippet lists.
type SnippetCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// CacheSummary describes the cached rows of one origin.
type CacheSummary struct {
	Origin   models.Origin
	Count    int
	CachedAt time.Time
}

// NewSnippetCacheRepository creates a new [SnippetCacheRepository] with the given database connection
func NewSnippetCacheRepository(db *sql.DB) *SnippetCacheRepository {
	return &SnippetCacheRepository{db: db, now: time.Now}
}

// ReplaceOrigin swaps every cached snippet of origin for snippets in one transaction.
func (r *SnippetCacheRepository) ReplaceOrigin(origin models.Origin, snippets []models.Snippet) error {
	cachedAt := r.now().UTC()

	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM snippet_cache WHERE origin = ?`, origin); err != nil {
			return fmt.Errorf("failed to clear %s snippets: %w", origin, err)
		}

		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO snippet_cache (id, origin, title, code, language, created_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range snippets {
			_, err := stmt.Exec(s.ID, origin, s.Title, s.Code, s.Language, s.CreatedAt.UTC(), cachedAt)
			if err != nil {
				return fmt.Errorf("failed to cache snippet %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// List returns cached snippets newest first, limited to origins when any are given.
func (r *SnippetCacheRepository) List(origins ...models.Origin) ([]models.Snippet, error) {
	query := `SELECT id, origin, title, code, language, created_at FROM snippet_cache`
	args := make([]any, len(origins))
	if len(origins) > 0 {
		placeholders := make([]string, len(origins))
		for i, o := range origins {
			placeholders[i] = "?"
			args[i] = o
		}
		query += ` WHERE origin IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippet cache: %w", err)
	}
	defer rows.Close()

	snippets := []models.Snippet{}
	for rows.Next() {
		var s models.Snippet
		if err := rows.Scan(&s.ID, &s.Origin, &s.Title, &s.Code, &s.Language, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cached snippet: %w", err)
		}
		s.IsShared = s.Origin == models.OriginShared
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippet cache: %w", err)
	}
	return snippets, nil
}

// Summary returns row counts and the latest cache time per origin.
func (r *SnippetCacheRepository) Summary() ([]CacheSummary, error) {
	rows, err := r.db.Query(`
		SELECT origin, COUNT(*), MAX(cached_at)
		FROM snippet_cache
		GROUP BY origin
		ORDER BY origin
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize snippet cache: %w", err)
	}
	defer rows.Close()

	var out []CacheSummary
	for rows.Next() {
		var (
			s        CacheSummary
			cachedAt string
		)
		if err := rows.Scan(&s.Origin, &s.Count, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache summary: %w", err)
		}
		s.CachedAt = parseSQLiteTime(cachedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Clear removes every cached snippet and returns how many rows were deleted.
func (r *SnippetCacheRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM snippet_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear snippet cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// MAX() loses the column's declared type, so go-sqlite3 hands back the stored text.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
