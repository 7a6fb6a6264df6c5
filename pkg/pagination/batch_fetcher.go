package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency bounds the number of pages in flight at once.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page of a collection and reports the total
// page count. The client implements this interface.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string, page int) (data []byte, totalPages int, err error)
}

// pageResult carries one fetched page out of the worker pool.
type pageResult struct {
	page int
	data []byte
	err  error
}

// BatchFetcher fetches every page of a paginated collection in parallel.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewBatchFetcher creates a batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, cfg Config) *BatchFetcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAllPages fetches every page of a collection. The returned map is
// keyed by page number and contains the pages fetched so far even when an
// error is returned.
func (bf *BatchFetcher) FetchAllPages(ctx context.Context, path string) (map[int][]byte, error) {
	start := time.Now()

	// The first page tells us how many there are.
	first, totalPages, err := bf.fetchOne(ctx, path, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	results := map[int][]byte{1: first}
	if totalPages <= 1 {
		return results, nil
	}

	bf.logger.Debug().
		Str("path", path).
		Int("total_pages", totalPages).
		Msg("Fanning out page fetches")

	pages := make(chan int)
	out := make(chan pageResult, totalPages-1)

	var wg sync.WaitGroup
	workers := bf.config.MaxConcurrency
	if workers > totalPages-1 {
		workers = totalPages - 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				data, _, err := bf.fetchOne(ctx, path, page)
				out <- pageResult{page: page, data: data, err: err}
			}
		}()
	}

	go func() {
		defer close(pages)
		for page := 2; page <= totalPages; page++ {
			select {
			case pages <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	var firstErr error
	for result := range out {
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch page %d: %w", result.page, result.err)
			}
			continue
		}
		results[result.page] = result.data
	}

	if firstErr != nil {
		bf.logger.Warn().
			Err(firstErr).
			Int("fetched", len(results)).
			Int("total", totalPages).
			Msg("Batch fetch incomplete")
		return results, firstErr
	}

	bf.logger.Debug().
		Str("path", path).
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return results, nil
}

func (bf *BatchFetcher) fetchOne(ctx context.Context, path string, page int) ([]byte, int, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.fetcher.FetchPage(pageCtx, path, page)
}
