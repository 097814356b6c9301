package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
)

// InstallReport lists the outcome of precaching the manifest.
type InstallReport struct {
	Cached []string
	Failed []AssetFailure

	// Reused is set when the static store already existed, e.g. after a
	// restart with the same version on shared storage
	Reused bool
}

// AssetFailure is a manifest asset that could not be cached.
type AssetFailure struct {
	Path string
	Err  error
}

// Install opens the static store and caches the manifest. Individual asset
// failures are logged and reported, never returned. An error means the
// static store could not be opened; the worker is then redundant.
func (w *Worker) Install(ctx context.Context) (InstallReport, error) {
	var report InstallReport
	if err := w.transition(StateInstalling); err != nil {
		return report, err
	}
	start := time.Now()

	reused, err := w.storage.Has(ctx, w.names.Static)
	if err != nil {
		w.logger.Warn().Err(err).Str("store", w.names.Static).Msg("Failed to check static store")
	}
	report.Reused = reused

	store, err := w.storage.Open(ctx, w.names.Static)
	if err != nil {
		w.logger.Error().Err(err).Str("store", w.names.Static).Msg("Failed to open static store")
		_ = w.transition(StateRedundant)
		return report, fmt.Errorf("open static store: %w", err)
	}

	for _, result := range w.precache.FetchAll(ctx, w.config.Manifest) {
		if result.Err != nil {
			report.Failed = append(report.Failed, AssetFailure{Path: result.Path, Err: result.Err})
			continue
		}
		if err := store.Put(ctx, cache.KeyForPath(result.Path), result.Entry); err != nil {
			w.logger.Warn().Err(err).Str("path", result.Path).Msg("Failed to cache static asset")
			report.Failed = append(report.Failed, AssetFailure{Path: result.Path, Err: err})
			continue
		}
		report.Cached = append(report.Cached, result.Path)
	}

	if err := w.transition(StateInstalled); err != nil {
		return report, err
	}

	w.logger.Info().
		Int("cached", len(report.Cached)).
		Int("failed", len(report.Failed)).
		Bool("reused", report.Reused).
		Dur("duration", time.Since(start)).
		Msg("Static assets cached")
	return report, nil
}

// Activate deletes every store that does not belong to this version and
// makes the worker active. On an active worker it sweeps again. Sweep
// failures are logged; the next Activate retries them.
func (w *Worker) Activate(ctx context.Context) error {
	if w.State() != StateActive {
		if err := w.transition(StateActivating); err != nil {
			return err
		}
	}

	deleted, err := w.SweepStores(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Store sweep incomplete")
	}
	if len(deleted) > 0 {
		w.logger.Info().Strs("stores", deleted).Msg("Deleted old stores")
	}

	if w.State() == StateActivating {
		return w.transition(StateActive)
	}
	return nil
}

// SweepStores deletes every store whose name is not one of this version's
// two store names and returns the deleted names.
func (w *Worker) SweepStores(ctx context.Context) ([]string, error) {
	names, err := w.storage.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	var deleted []string
	var errs []error
	for _, name := range names {
		if w.names.Current(name) {
			continue
		}
		removed, err := w.storage.Delete(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete store %s: %w", name, err))
			continue
		}
		if removed {
			w.logger.Debug().Str("store", name).Msg("Deleting old store")
			deleted = append(deleted, name)
		}
	}
	return deleted, errors.Join(errs...)
}

// retire marks a replaced worker redundant.
func (w *Worker) retire() {
	if err := w.transition(StateRedundant); err != nil {
		w.logger.Debug().Err(err).Msg("Worker already retired")
	}
}
