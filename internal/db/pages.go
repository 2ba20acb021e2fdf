package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultPageCacheTTL is how long a fetched page stays reusable. University
// directories change slowly; a week keeps re-runs cheap without going stale.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// CachePage stores fetched HTML for a URL, replacing any previous copy.
func (db *DB) CachePage(ctx context.Context, url, html string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO page_cache (url, html)
		 VALUES ($1, $2)
		 ON CONFLICT (url) DO UPDATE SET html = $2, fetched_at = NOW()
		 RETURNING id`,
		url, html,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to cache page: %w", err)
	}
	return id, nil
}

// GetCachedPage returns the cached HTML for a URL when it is younger than
// ttl. A miss or an expired entry returns ok=false, not an error.
func (db *DB) GetCachedPage(ctx context.Context, url string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	var html string
	var fetchedAt time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT html, fetched_at FROM page_cache WHERE url = $1`,
		url,
	).Scan(&html, &fetchedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached page: %w", err)
	}
	if time.Since(fetchedAt) > ttl {
		return "", false, nil
	}
	return html, true, nil
}
