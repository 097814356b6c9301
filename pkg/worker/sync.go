package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
)

// SyncTagContactForm flushes pending contact form submissions.
const SyncTagContactForm = "contact-form"

const contactPath = "/api/contact"

// ErrFormQueueNotImplemented is returned by UnimplementedFormQueue.Enqueue.
var ErrFormQueueNotImplemented = errors.New("form queue not implemented")

// PendingForm is a contact form submission waiting to be sent.
type PendingForm struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// FormQueue stores form submissions made while offline.
type FormQueue interface {
	// Pending lists the submissions awaiting sync.
	Pending(ctx context.Context) ([]PendingForm, error)

	// Remove drops a submission after it was delivered.
	Remove(ctx context.Context, id string) error

	// Enqueue stores a submission for a later sync.
	Enqueue(ctx context.Context, form PendingForm) error
}

// UnimplementedFormQueue holds nothing. Pending is always empty, Remove is
// a no-op and Enqueue reports ErrFormQueueNotImplemented.
type UnimplementedFormQueue struct{}

// Pending returns no submissions.
func (UnimplementedFormQueue) Pending(context.Context) ([]PendingForm, error) {
	return nil, nil
}

// Remove logs the id and does nothing.
func (UnimplementedFormQueue) Remove(_ context.Context, id string) error {
	log.Debug().Str("form_id", id).Msg("Removing pending form")
	return nil
}

// Enqueue returns ErrFormQueueNotImplemented.
func (UnimplementedFormQueue) Enqueue(context.Context, PendingForm) error {
	return ErrFormQueueNotImplemented
}

// SyncReport counts the outcome of a sync.
type SyncReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Sync runs the background sync registered under tag. Unknown tags are
// ignored. A failing submission stays queued and does not stop the others.
func (w *Worker) Sync(ctx context.Context, tag string) (SyncReport, error) {
	var report SyncReport
	if tag != SyncTagContactForm {
		w.logger.Info().Str("tag", tag).Msg("Ignoring unknown sync tag")
		return report, nil
	}

	forms, err := w.forms.Pending(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending forms: %w", err)
	}

	for _, form := range forms {
		if err := w.sendForm(ctx, form); err != nil {
			report.Failed++
			workerSyncTotal.WithLabelValues("failed").Inc()
			w.logger.Warn().Err(err).Str("form_id", form.ID).Msg("Failed to sync form")
			continue
		}
		if err := w.forms.Remove(ctx, form.ID); err != nil {
			w.logger.Warn().Err(err).Str("form_id", form.ID).Msg("Failed to remove synced form")
		}
		report.Sent++
		workerSyncTotal.WithLabelValues("sent").Inc()
	}

	w.logger.Info().
		Str("tag", tag).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("Background sync complete")
	return report, nil
}

func (w *Worker) sendForm(ctx context.Context, form PendingForm) error {
	body, err := json.Marshal(form.Data)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, contactPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.origin.Fetch(ctx, req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if !cache.IsOK(resp) {
		return fmt.Errorf("contact endpoint returned %d", resp.StatusCode)
	}
	return nil
}
