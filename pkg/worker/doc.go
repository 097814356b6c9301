// Package worker implements the offline cache manager of the portfolio edge.
//
// A Worker is one version of the caching logic. It owns two versioned
// stores (static and dynamic), a compiled strategy resolver and a handle
// on the origin. Requests are classified by path and served with one of
// three strategies:
//
//   - cache-first: serve from cache, fetch and store on miss
//   - network-first: fetch and store, fall back to cache on network error
//   - stale-while-revalidate: serve from cache and refresh in the background
//
// When the chosen strategy fails, the worker answers from any store or,
// with nothing cached, with a fixed 503 JSON response.
//
// Versions move through the lifecycle uninstalled, installing, installed,
// activating, active and redundant. A Registration installs new versions,
// decides when they take over, and routes live traffic to the active one.
//
// Example usage:
//
//	w, err := worker.New(worker.DefaultConfig(), cache.NewMemoryStorage(), originClient)
//	reg := worker.NewRegistration(originClient)
//	if _, err := reg.Register(ctx, w); err != nil {
//		return err
//	}
//	http.ListenAndServe(":8080", reg)
package worker
