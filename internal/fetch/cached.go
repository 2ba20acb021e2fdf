// Package fetch - cached.go wraps URL fetching with database-backed caching.
package fetch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/gradscout/internal/db"
)

// CachedFetcher serves pages from the database cache before going to the
// network. With a nil database it degrades to a plain fetcher.
type CachedFetcher struct {
	db        *db.DB
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultPageCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a cached fetcher over database. A nil database is
// allowed and disables caching.
func NewCachedFetcher(database *db.DB, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{
		db:        database,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	PageID    uuid.UUID
}

// Fetch returns the page for a URL, from cache when fresh, otherwise from
// the network (storing the new copy). Cache write failures are swallowed:
// the fetched page is worth more than the cache entry.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if f.db != nil && !f.skipCache {
		html, ok, err := f.db.GetCachedPage(ctx, urlStr, f.cacheTTL)
		if err == nil && ok {
			return &CachedResult{
				Result:    &Result{URL: urlStr, HTML: html, ContentType: "text/html", StatusCode: 200},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	cached := &CachedResult{Result: result}
	if f.db != nil {
		if id, err := f.db.CachePage(ctx, urlStr, result.HTML); err == nil {
			cached.PageID = id
		}
	}
	return cached, nil
}
