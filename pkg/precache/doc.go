// Package precache provides parallel fetching of the install manifest.
//
// A worker version caches a fixed list of assets during installation. This
// package implements a worker pool pattern to fetch them concurrently while
// keeping every failure isolated to its own asset.
//
// Example usage:
//
//	config := precache.DefaultConfig()
//	fetcher := precache.NewBatchFetcher(precache.NewOriginFetcher(originClient), config)
//	results := fetcher.FetchAll(ctx, []string{"/", "/favicon.ico"})
//
// The batch fetcher:
//   - Spawns a worker pool (default 4 workers)
//   - Distributes manifest paths across workers
//   - Returns one Result per path, in manifest order
//   - Records failures per asset instead of aborting the batch
package precache
