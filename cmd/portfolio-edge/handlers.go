package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/worker"
)

// newMux wires the health, metrics and worker admin endpoints in front of
// the registration, which answers everything else.
func newMux(reg *worker.Registration, storage cache.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(storage))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/_worker/state", stateHandler(reg))
	mux.HandleFunc("/_worker/sync", syncHandler(reg))
	mux.HandleFunc("/_worker/push", pushHandler)
	mux.HandleFunc("/_worker/notificationclick", notificationClickHandler)
	mux.Handle("/", reg)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(storage cache.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func stateHandler(reg *worker.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, reg.Status())
	}
}

func syncHandler(reg *worker.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		active := reg.Active()
		if active == nil {
			http.Error(w, "no active worker", http.StatusServiceUnavailable)
			return
		}

		tag := r.URL.Query().Get("tag")
		if tag == "" {
			http.Error(w, "tag is required", http.StatusBadRequest)
			return
		}

		report, err := active.Sync(r.Context(), tag)
		if err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("Background sync failed")
			http.Error(w, "sync failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func pushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	log.Info().Msg("Push notification received")
	writeJSON(w, http.StatusOK, worker.PushNotification(time.Now()))
}

func notificationClickHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	target, ok := worker.NotificationClickTarget(r.URL.Query().Get("action"))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
