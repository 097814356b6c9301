package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/strategy"
)

// Fallback payload returned when neither network nor cache can answer.
const (
	errorResponseError   = "Network error and no cached version available"
	errorResponseMessage = "Please check your internet connection and try again."
)

// Handle answers a request. Eligible GET requests are served by the
// strategy their path classifies to, with the cache and 503 fallback
// behind it, and never fail. Other requests go to the origin untouched;
// only their network failures are returned as errors.
func (w *Worker) Handle(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	if req.Method == http.MethodPost && req.URL.Path == sharePath {
		workerRequestsTotal.WithLabelValues("none", outcomeShare).Inc()
		return w.handleShare(req), nil
	}

	if !w.eligible(req) {
		workerRequestsTotal.WithLabelValues("none", outcomePassthrough).Inc()
		return w.origin.Fetch(ctx, req)
	}

	key := cache.KeyFromRequest(req)
	s := w.Classify(req.URL.Path)

	var (
		resp    *http.Response
		outcome string
		err     error
	)
	switch s {
	case strategy.CacheFirst:
		resp, outcome, err = w.cacheFirst(ctx, req, key)
	case strategy.NetworkFirst:
		resp, outcome, err = w.networkFirst(ctx, req, key)
	case strategy.StaleWhileRevalidate:
		resp, outcome, err = w.staleWhileRevalidate(ctx, req, key)
	}
	if err != nil || resp == nil {
		resp, outcome = w.fallback(ctx, req, key, err)
	}

	workerRequestsTotal.WithLabelValues(s.String(), outcome).Inc()
	workerRequestDuration.WithLabelValues(s.String()).Observe(time.Since(start).Seconds())
	w.logger.Debug().
		Str("path", req.URL.Path).
		Str("strategy", s.String()).
		Str("outcome", outcome).
		Int("status_code", resp.StatusCode).
		Msg("Request handled")
	return resp, nil
}

// cacheFirst serves a cached copy without touching the network, or
// fetches and stores on miss.
func (w *Worker) cacheFirst(ctx context.Context, req *http.Request, key cache.RequestKey) (*http.Response, string, error) {
	if entry := w.match(ctx, req, key); entry != nil {
		return cache.EntryToResponse(entry, req), outcomeHit, nil
	}

	resp, err := w.fetchAndStore(ctx, req, key)
	if err != nil {
		return nil, "", err
	}
	return resp, outcomeNetwork, nil
}

// networkFirst fetches and stores, falling back to cache on network error.
func (w *Worker) networkFirst(ctx context.Context, req *http.Request, key cache.RequestKey) (*http.Response, string, error) {
	resp, err := w.fetchAndStore(ctx, req, key)
	if err == nil {
		return resp, outcomeNetwork, nil
	}

	if entry := w.match(ctx, req, key); entry != nil {
		return cache.EntryToResponse(entry, req), outcomeHit, nil
	}
	return nil, "", err
}

// staleWhileRevalidate serves a cached copy immediately and refreshes it
// in the background, or waits for the network on miss.
func (w *Worker) staleWhileRevalidate(ctx context.Context, req *http.Request, key cache.RequestKey) (*http.Response, string, error) {
	if entry := w.match(ctx, req, key); entry != nil {
		w.revalidate(req, key)
		return cache.EntryToResponse(entry, req), outcomeStale, nil
	}

	resp, err := w.fetchAndStore(ctx, req, key)
	if err != nil {
		return nil, "", err
	}
	return resp, outcomeNetwork, nil
}

// revalidate refreshes key in the background. Concurrent revalidations of
// the same key share one origin fetch. The fetch outlives the caller's
// request.
func (w *Worker) revalidate(req *http.Request, key cache.RequestKey) {
	ctx := context.WithoutCancel(req.Context())
	bgReq := originRequest(ctx, req)

	w.background.Add(1)
	go func() {
		defer w.background.Done()

		_, err, shared := w.revalidations.Do(key.String(), func() (any, error) {
			resp, err := w.origin.Fetch(ctx, bgReq)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if !w.storable(bgReq, resp, key) {
				workerRevalidationsTotal.WithLabelValues("not_stored").Inc()
				return nil, nil
			}
			entry, err := cache.ResponseToEntry(resp)
			if err != nil {
				return nil, err
			}
			entry.Vary = cache.VaryValues(bgReq, resp.Header)
			w.put(ctx, key, entry)
			workerRevalidationsTotal.WithLabelValues("updated").Inc()
			return nil, nil
		})
		if shared {
			workerRevalidationsTotal.WithLabelValues("shared").Inc()
		}
		if err != nil {
			workerRevalidationsTotal.WithLabelValues("failed").Inc()
			w.logger.Debug().Err(err).Str("key", key.String()).Msg("Background revalidation failed")
		}
	}()
}

// fetchAndStore fetches req and stores the response in the dynamic store
// when it may be shared. Other responses are returned uncached.
func (w *Worker) fetchAndStore(ctx context.Context, req *http.Request, key cache.RequestKey) (*http.Response, error) {
	resp, err := w.origin.Fetch(ctx, originRequest(ctx, req))
	if err != nil {
		return nil, err
	}
	if !w.storable(req, resp, key) {
		return resp, nil
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	entry.Vary = cache.VaryValues(req, resp.Header)
	w.put(ctx, key, entry)
	return resp, nil
}

// originRequest prepares req for a fetch whose response may be stored.
// Without Accept-Encoding the transport negotiates and decodes
// compression itself, so stored bodies are never encoded.
func originRequest(ctx context.Context, req *http.Request) *http.Request {
	out := req.Clone(ctx)
	out.Header.Del("Accept-Encoding")
	return out
}

// storable reports whether resp may be written for req.
func (w *Worker) storable(req *http.Request, resp *http.Response, key cache.RequestKey) bool {
	reason := cache.SkipReason(req, resp)
	if reason == "" {
		return true
	}
	if reason != cache.SkipNotOK {
		cache.CacheSkipped.WithLabelValues(reason).Inc()
		w.logger.Debug().Str("key", key.String()).Str("reason", reason).Msg("Response not stored")
	}
	return false
}

// put writes entry to the dynamic store. Failures are logged and the
// caller continues with the network response.
func (w *Worker) put(ctx context.Context, key cache.RequestKey, entry *cache.Entry) {
	store, err := w.storage.Open(ctx, w.names.Dynamic)
	if err == nil {
		err = store.Put(ctx, key, entry)
	}
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("store", w.names.Dynamic).
			Str("key", key.String()).
			Msg("Cache write failed")
	}
}

// match looks key up across all stores. Read errors count as a miss, and
// so does an entry whose Vary values req does not send.
func (w *Worker) match(ctx context.Context, req *http.Request, key cache.RequestKey) *cache.Entry {
	entry, err := w.storage.Match(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			w.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed")
		}
		return nil
	}
	if !entry.Matches(req) {
		w.logger.Debug().Str("key", key.String()).Msg("Cached entry does not match request")
		return nil
	}
	return entry
}

// fallback answers from any store or with the 503 error response.
func (w *Worker) fallback(ctx context.Context, req *http.Request, key cache.RequestKey, cause error) (*http.Response, string) {
	if entry := w.match(ctx, req, key); entry != nil {
		w.logger.Debug().Err(cause).Str("path", req.URL.Path).Msg("Serving cached fallback")
		return cache.EntryToResponse(entry, req), outcomeFallbackCache
	}

	w.logger.Warn().Err(cause).Str("path", req.URL.Path).Msg("Network and cache unavailable")
	return ErrorResponse(req), outcomeFallbackError
}

// ErrorResponse builds the 503 JSON response returned when neither network
// nor cache can answer.
func ErrorResponse(req *http.Request) *http.Response {
	body, _ := json.Marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{
		Error:   errorResponseError,
		Message: errorResponseMessage,
	})

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Content-Length", strconv.Itoa(len(body)))

	return &http.Response{
		Status:        "503 Service Unavailable",
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
