package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
	"github.com/Sternrassler/portfolio-edge/pkg/precache"
	"github.com/Sternrassler/portfolio-edge/pkg/strategy"
)

// Fetcher performs requests against the origin. HTTP error statuses are
// responses, not errors. *client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*http.Response, error)
}

// DefaultManifest lists the assets cached during installation.
func DefaultManifest() []string {
	return []string{
		"/",
		"/favicon.ico",
		"/manifest.json",
		"/robots.txt",
		"/icons/icon-192x192.png",
		"/icons/icon-512x512.png",
	}
}

// Config holds the worker configuration.
type Config struct {
	// Version tags store names, e.g. "v1"
	Version string

	// Prefix starts every store name, e.g. "portfolio"
	Prefix string

	// Manifest is the list of paths cached on install
	Manifest []string

	// Table maps request paths to strategies; nil means DefaultTable
	Table strategy.Table

	// AllowedHosts restricts caching to these hosts; empty allows any
	AllowedHosts []string

	// SkipWaiting activates a newly installed version immediately
	SkipWaiting bool

	// PrecacheConcurrency bounds parallel manifest fetches
	PrecacheConcurrency int

	// FormQueue holds contact form submissions awaiting sync; nil means
	// UnimplementedFormQueue
	FormQueue FormQueue
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Version:             "v1",
		Prefix:              "portfolio",
		Manifest:            DefaultManifest(),
		Table:               strategy.DefaultTable(),
		SkipWaiting:         true,
		PrecacheConcurrency: precache.DefaultConfig().MaxConcurrency,
	}
}

// StoreNames are the versioned store names of one worker.
type StoreNames struct {
	Static  string `json:"static"`
	Dynamic string `json:"dynamic"`
}

// NewStoreNames derives the store names for prefix and version.
func NewStoreNames(prefix, version string) StoreNames {
	return StoreNames{
		Static:  prefix + "-static-" + version,
		Dynamic: prefix + "-dynamic-" + version,
	}
}

// Current reports whether name is one of the two stores of this version.
func (n StoreNames) Current(name string) bool {
	return name == n.Static || name == n.Dynamic
}

// Worker is one version of the offline cache manager.
type Worker struct {
	config   Config
	names    StoreNames
	storage  cache.Storage
	origin   Fetcher
	resolve  strategy.Resolver
	precache *precache.BatchFetcher
	forms    FormQueue
	hosts    map[string]struct{}
	logger   zerolog.Logger

	mu    sync.Mutex
	state State

	revalidations singleflight.Group
	background    sync.WaitGroup
}

// New creates a worker in the uninstalled state.
func New(cfg Config, storage cache.Storage, origin Fetcher) (*Worker, error) {
	if storage == nil {
		return nil, errors.New("cache storage is required")
	}
	if origin == nil {
		return nil, errors.New("origin fetcher is required")
	}
	if cfg.Version == "" {
		return nil, errors.New("worker version is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}
	if cfg.Table == nil {
		cfg.Table = strategy.DefaultTable()
	}
	if cfg.FormQueue == nil {
		cfg.FormQueue = UnimplementedFormQueue{}
	}

	resolve, err := cfg.Table.Compile(strategy.DefaultStrategy)
	if err != nil {
		return nil, fmt.Errorf("compile strategy table: %w", err)
	}

	hosts := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}

	w := &Worker{
		config:  cfg,
		names:   NewStoreNames(cfg.Prefix, cfg.Version),
		storage: storage,
		origin:  origin,
		resolve: resolve,
		forms:   cfg.FormQueue,
		hosts:   hosts,
		logger:  logging.NewVersionLogger("worker", cfg.Version),
	}
	getter, ok := origin.(precache.Origin)
	if !ok {
		getter = originGetter{origin}
	}
	w.precache = precache.NewBatchFetcher(
		precache.NewOriginFetcher(getter),
		precache.Config{MaxConcurrency: cfg.PrecacheConcurrency},
	)
	workerState.WithLabelValues(cfg.Version).Set(float64(StateUninstalled))
	return w, nil
}

// Version returns the worker version.
func (w *Worker) Version() string {
	return w.config.Version
}

// StoreNames returns the versioned store names.
func (w *Worker) StoreNames() StoreNames {
	return w.names
}

// SkipWaiting reports whether the worker takes over as soon as it is installed.
func (w *Worker) SkipWaiting() bool {
	return w.config.SkipWaiting
}

// Classify returns the strategy for a request path.
func (w *Worker) Classify(path string) strategy.Strategy {
	return w.resolve(path)
}

// Wait blocks until all background revalidations have finished.
func (w *Worker) Wait() {
	w.background.Wait()
}

// eligible reports whether req may be served from or written to cache.
func (w *Worker) eligible(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	switch req.URL.Scheme {
	case "", "http", "https":
	default:
		return false
	}
	if len(w.hosts) == 0 {
		return true
	}

	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	if host == "" {
		return true
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	_, ok := w.hosts[strings.ToLower(host)]
	return ok
}

// originGetter adapts a Fetcher without its own Get to precache.Origin.
type originGetter struct {
	Fetcher
}

func (o originGetter) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return o.Fetch(ctx, req)
}
