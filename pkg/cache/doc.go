// Package cache provides named, versioned response stores for the
// portfolio edge worker.
//
// A Storage holds a set of named stores (the equivalent of the browser's
// CacheStorage). Each Store maps a normalized request identity to a full
// response snapshot:
//
//   - Keys are RequestKey values (method + path + sorted query)
//   - Values are Entry snapshots (status, headers, body)
//   - Store names carry a version suffix; stale versions are swept by the
//     worker on activation
//   - Prometheus metrics for hits, misses, writes and errors
//
// # Basic Usage
//
//	// In-memory storage
//	storage := cache.NewMemoryStorage()
//
//	// Redis-backed storage shared by several edge instances
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	storage := cache.NewRedisStorage(redisClient, "portfolio")
//
//	// Open a store and put a snapshot
//	store, err := storage.Open(ctx, "portfolio-dynamic-v1")
//	entry, err := cache.ResponseToEntry(resp)
//	err = store.Put(ctx, cache.KeyFromRequest(req), entry)
//
//	// Match across every store, in creation order
//	entry, err := storage.Match(ctx, cache.KeyFromRequest(req))
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Not cached anywhere
//	}
//
// # Metrics
//
//   - portfolio_cache_hits_total{store} - Cache hits by store
//   - portfolio_cache_misses_total - Cache misses
//   - portfolio_cache_writes_total{store} - Snapshots written
//   - portfolio_cache_stores_deleted_total - Stores removed
//   - portfolio_cache_errors_total{operation} - Backend errors
//
// Entries never expire on their own. Freshness is governed entirely by
// the strategy that reads them and by version sweeps.
package cache
