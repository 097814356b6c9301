package precache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
)

var (
	// ErrNotOK is returned (wrapped in *StatusError) for non-2xx assets.
	ErrNotOK = errors.New("asset response not ok")

	// ErrNotStorable is returned for 2xx assets that may not be shared,
	// e.g. ones setting a cookie.
	ErrNotStorable = errors.New("asset response not storable")
)

var precacheResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portfolio_precache_results_total",
	Help: "Manifest asset fetch results by outcome",
}, []string{"result"})

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel asset fetches
	MaxConcurrency int
	// Timeout per asset fetch; 0 means no timeout
	Timeout time.Duration
}

// DefaultConfig returns the default configuration: 4 workers, no timeout.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
	}
}

// AssetFetcher fetches a single manifest asset and snapshots it.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, path string) (*cache.Entry, error)
}

// AssetFetcherFunc adapts a function to AssetFetcher.
type AssetFetcherFunc func(ctx context.Context, path string) (*cache.Entry, error)

// FetchAsset calls f.
func (f AssetFetcherFunc) FetchAsset(ctx context.Context, path string) (*cache.Entry, error) {
	return f(ctx, path)
}

// Origin is the subset of the origin client the batch fetcher needs.
type Origin interface {
	Get(ctx context.Context, path string) (*http.Response, error)
}

// StatusError reports an asset the origin answered with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Path, e.StatusCode)
}

// Is matches ErrNotOK.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotOK
}

// NewOriginFetcher returns an AssetFetcher that GETs assets from origin.
// Only 2xx responses that may be shared between clients become entries.
func NewOriginFetcher(origin Origin) AssetFetcher {
	return AssetFetcherFunc(func(ctx context.Context, path string) (*cache.Entry, error) {
		resp, err := origin.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch reason := cache.SkipReason(nil, resp); reason {
		case "":
		case cache.SkipNotOK:
			return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
		default:
			cache.CacheSkipped.WithLabelValues(reason).Inc()
			return nil, fmt.Errorf("%s: %w (%s)", path, ErrNotStorable, reason)
		}

		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
		entry.Vary = cache.VaryValues(nil, resp.Header)
		return entry, nil
	})
}

// Result represents the outcome of fetching a single asset.
type Result struct {
	Path  string
	Entry *cache.Entry
	Err   error
}

// BatchFetcher handles parallel fetching of manifest assets
type BatchFetcher struct {
	fetcher AssetFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(fetcher AssetFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

type job struct {
	index int
	path  string
}

// FetchAll fetches every path using the worker pool and returns one Result
// per path in input order. A failing asset does not cancel the others.
// Paths left unfetched because ctx was cancelled carry ctx's error.
func (bf *BatchFetcher) FetchAll(ctx context.Context, paths []string) []Result {
	start := time.Now()
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	workers := bf.config.MaxConcurrency
	if workers > len(paths) {
		workers = len(paths)
	}

	log.Info().
		Int("assets", len(paths)).
		Int("workers", workers).
		Msg("Starting manifest fetch")

	queue := make(chan job, len(paths))
	for i, p := range paths {
		results[i].Path = p
		queue <- job{index: i, path: p}
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, queue, results, &wg, i)
	}
	wg.Wait()

	fetched, failed := 0, 0
	for i := range results {
		if results[i].Entry == nil && results[i].Err == nil {
			cause := ctx.Err()
			if cause == nil {
				cause = cache.ErrInvalidEntry
			}
			results[i].Err = fmt.Errorf("fetch %s: %w", results[i].Path, cause)
		}
		if results[i].Err != nil {
			failed++
			precacheResultsTotal.WithLabelValues("failed").Inc()
			continue
		}
		fetched++
		precacheResultsTotal.WithLabelValues("fetched").Inc()
	}

	log.Info().
		Int("fetched", fetched).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Manifest fetch complete")

	return results
}

// worker processes assets from the queue. Each worker writes only the
// result slots of the jobs it takes.
func (bf *BatchFetcher) worker(ctx context.Context, queue <-chan job, results []Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for j := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("assets_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		fetchCtx := ctx
		cancel := func() {}
		if bf.config.Timeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, bf.config.Timeout)
		}
		entry, err := bf.fetcher.FetchAsset(fetchCtx, j.path)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("path", j.path).
				Msg("Asset fetch failed")
			results[j.index].Err = err
		} else {
			results[j.index].Entry = entry
		}
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("assets_processed", processed).
			Msg("Worker completed")
	}
}
