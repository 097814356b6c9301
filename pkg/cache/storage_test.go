package cache

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"
)

// runStorageSuite exercises the Storage contract against a backend.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) Storage) {
	t.Run("open_and_match", func(t *testing.T) {
		storage := newStorage(t)
		ctx := context.Background()

		store, err := storage.Open(ctx, "portfolio-static-v1")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if store.Name() != "portfolio-static-v1" {
			t.Errorf("Name() = %q", store.Name())
		}

		key := KeyForPath("/")
		entry := testEntry("<h1>home</h1>")
		if err := store.Put(ctx, key, entry); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.Match(ctx, key)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Body) != "<h1>home</h1>" {
			t.Errorf("Body = %q", got.Body)
		}
		if got.StatusCode != 200 {
			t.Errorf("StatusCode = %d", got.StatusCode)
		}
		if got.Headers.Get("Content-Type") != "text/html" {
			t.Errorf("Content-Type = %q", got.Headers.Get("Content-Type"))
		}

		got, err = storage.Match(ctx, key)
		if err != nil {
			t.Fatalf("Storage.Match failed: %v", err)
		}
		if string(got.Body) != "<h1>home</h1>" {
			t.Errorf("Storage.Match body = %q", got.Body)
		}
	})

	t.Run("miss", func(t *testing.T) {
		storage := newStorage(t)
		ctx := context.Background()

		if _, err := storage.Match(ctx, KeyForPath("/nope")); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Storage.Match on empty storage: got %v, want ErrCacheMiss", err)
		}

		store, err := storage.Open(ctx, "portfolio-dynamic-v1")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, err := store.Match(ctx, KeyForPath("/nope")); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Store.Match: got %v, want ErrCacheMiss", err)
		}
	})

	t.Run("match_prefers_oldest_store", func(t *testing.T) {
		storage := newStorage(t)
		ctx := context.Background()

		first, _ := storage.Open(ctx, "portfolio-static-v1")
		time.Sleep(time.Millisecond)
		second, _ := storage.Open(ctx, "portfolio-dynamic-v1")

		key := KeyForPath("/")
		if err := second.Put(ctx, key, testEntry("dynamic")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := first.Put(ctx, key, testEntry("static")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := storage.Match(ctx, key)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Body) != "static" {
			t.Errorf("Match body = %q, want %q", got.Body, "static")
		}
	})

	t.Run("names_and_delete", func(t *testing.T) {
		storage := newStorage(t)
		ctx := context.Background()

		for _, name := range []string{"portfolio-static-v0", "portfolio-static-v1", "portfolio-dynamic-v1"} {
			store, err := storage.Open(ctx, name)
			if err != nil {
				t.Fatalf("Open(%s) failed: %v", name, err)
			}
			if err := store.Put(ctx, KeyForPath("/"), testEntry(name)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			time.Sleep(time.Millisecond)
		}

		names, err := storage.Names(ctx)
		if err != nil {
			t.Fatalf("Names failed: %v", err)
		}
		want := []string{"portfolio-static-v0", "portfolio-static-v1", "portfolio-dynamic-v1"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("Names() = %v, want %v", names, want)
		}

		deleted, err := storage.Delete(ctx, "portfolio-static-v0")
		if err != nil || !deleted {
			t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
		}
		deleted, err = storage.Delete(ctx, "portfolio-static-v0")
		if err != nil || deleted {
			t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
		}

		has, err := storage.Has(ctx, "portfolio-static-v0")
		if err != nil || has {
			t.Errorf("Has(deleted) = %v, %v", has, err)
		}
		has, err = storage.Has(ctx, "portfolio-static-v1")
		if err != nil || !has {
			t.Errorf("Has(current) = %v, %v", has, err)
		}

		got, err := storage.Match(ctx, KeyForPath("/"))
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(got.Body) != "portfolio-static-v1" {
			t.Errorf("Match after delete = %q", got.Body)
		}
	})

	t.Run("store_keys_and_delete", func(t *testing.T) {
		storage := newStorage(t)
		ctx := context.Background()

		store, _ := storage.Open(ctx, "portfolio-dynamic-v1")
		for _, p := range []string{"/projects/2", "/about/", "/api/projects?page=1"} {
			if err := store.Put(ctx, KeyForPath(p), testEntry(p)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		keys, err := store.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		want := []string{"GET /about/", "GET /api/projects?page=1", "GET /projects/2"}
		if !reflect.DeepEqual(keys, want) {
			t.Errorf("Keys() = %v, want %v", keys, want)
		}

		removed, err := store.Delete(ctx, KeyForPath("/about/"))
		if err != nil || !removed {
			t.Fatalf("Delete = %v, %v", removed, err)
		}
		if _, err := store.Match(ctx, KeyForPath("/about/")); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Match after Delete: %v", err)
		}
	})

	t.Run("put_nil_entry", func(t *testing.T) {
		storage := newStorage(t)
		store, _ := storage.Open(context.Background(), "portfolio-dynamic-v1")
		if err := store.Put(context.Background(), KeyForPath("/"), nil); err == nil {
			t.Error("Put with nil entry should return error")
		}
	})

	t.Run("open_empty_name", func(t *testing.T) {
		storage := newStorage(t)
		if _, err := storage.Open(context.Background(), ""); err == nil {
			t.Error("Open with empty name should return error")
		}
	})
}

func testEntry(body string) *Entry {
	return &Entry{
		StatusCode: 200,
		Status:     "200 OK",
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
		CachedAt:   time.Now(),
	}
}
