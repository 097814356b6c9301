package worker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/portfolio-edge/pkg/client"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
)

// ErrNoWaitingWorker is returned by Promote when no version is waiting.
var ErrNoWaitingWorker = errors.New("no waiting worker")

// Hop-by-hop response headers are not copied to the client.
var hopResponseHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Registration owns the worker versions of one origin and routes traffic
// to the active one.
type Registration struct {
	active  atomic.Pointer[Worker]
	origin  Fetcher
	logger  zerolog.Logger
	mu      sync.Mutex // serializes Register and Promote
	waiting *Worker
	retired []*Worker // replaced versions whose revalidations may still run
}

// NewRegistration creates a registration with no active worker. Requests
// are passed through to origin until a worker is active.
func NewRegistration(origin Fetcher) *Registration {
	return &Registration{
		origin: origin,
		logger: logging.NewLogger("registration"),
	}
}

// Register installs w. It takes over immediately when it skips waiting or
// no version is active; otherwise it waits for Promote. A previously
// waiting version is replaced.
func (r *Registration) Register(ctx context.Context, w *Worker) (InstallReport, error) {
	report, err := w.Install(ctx)
	if err != nil {
		return report, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.waiting; prev != nil && prev != w {
		r.retire(prev)
	}
	r.waiting = nil

	if w.SkipWaiting() || r.active.Load() == nil {
		return report, r.activate(ctx, w)
	}

	r.waiting = w
	r.logger.Info().Str("version", w.Version()).Msg("Worker installed and waiting")
	return report, nil
}

// Promote activates the waiting version.
func (r *Registration) Promote(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.waiting
	if w == nil {
		return ErrNoWaitingWorker
	}
	r.waiting = nil
	return r.activate(ctx, w)
}

// activate activates w and claims clients by swapping the active pointer.
func (r *Registration) activate(ctx context.Context, w *Worker) error {
	if err := w.Activate(ctx); err != nil {
		return err
	}

	prev := r.active.Swap(w)
	if prev != nil && prev != w {
		r.retire(prev)
		// versions may share a label
		workerState.WithLabelValues(w.Version()).Set(float64(w.State()))
	}

	event := r.logger.Info().Str("version", w.Version())
	if prev != nil && prev != w {
		event = event.Str("replaced", prev.Version())
	}
	event.Msg("Worker activated and claimed clients")
	return nil
}

// retire marks w redundant and keeps it for Wait. Caller holds r.mu.
func (r *Registration) retire(w *Worker) {
	w.retire()
	r.retired = append(r.retired, w)
}

// Wait blocks until the background revalidations of every version the
// registration has seen have finished, including replaced ones.
func (r *Registration) Wait() {
	r.mu.Lock()
	workers := make([]*Worker, 0, len(r.retired)+2)
	workers = append(workers, r.retired...)
	if r.waiting != nil {
		workers = append(workers, r.waiting)
	}
	r.mu.Unlock()
	if w := r.active.Load(); w != nil {
		workers = append(workers, w)
	}

	for _, w := range workers {
		w.Wait()
	}
}

// Active returns the active worker, or nil.
func (r *Registration) Active() *Worker {
	return r.active.Load()
}

// Waiting returns the installed version waiting for Promote, or nil.
func (r *Registration) Waiting() *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// Handle answers req with the active worker, or passes it through to the
// origin when none is active.
func (r *Registration) Handle(req *http.Request) (*http.Response, error) {
	if w := r.active.Load(); w != nil {
		return w.Handle(req)
	}
	return r.origin.Fetch(req.Context(), req)
}

// ServeHTTP implements http.Handler.
func (r *Registration) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	resp, err := r.Handle(req)
	if err != nil {
		status := http.StatusInternalServerError
		if client.IsNetworkError(err) {
			status = http.StatusBadGateway
		}
		r.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Int("status", status).Msg("Pass-through request failed")
		http.Error(rw, http.StatusText(status), status)
		return
	}
	defer resp.Body.Close()

	header := rw.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	for _, h := range hopResponseHeaders {
		header.Del(h)
	}

	rw.WriteHeader(resp.StatusCode)
	if req.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(rw, resp.Body); err != nil {
		r.logger.Debug().Err(err).Str("path", req.URL.Path).Msg("Failed to write response body")
	}
}

// WorkerStatus describes one worker version.
type WorkerStatus struct {
	Version string     `json:"version"`
	State   State      `json:"state"`
	Stores  StoreNames `json:"stores"`
}

// Status describes the registration.
type Status struct {
	Active  *WorkerStatus `json:"active"`
	Waiting *WorkerStatus `json:"waiting,omitempty"`
}

// Status returns the active and waiting versions.
func (r *Registration) Status() Status {
	var s Status
	if w := r.Active(); w != nil {
		s.Active = w.status()
	}
	if w := r.Waiting(); w != nil {
		s.Waiting = w.status()
	}
	return s
}

func (w *Worker) status() *WorkerStatus {
	return &WorkerStatus{
		Version: w.Version(),
		State:   w.State(),
		Stores:  w.StoreNames(),
	}
}
