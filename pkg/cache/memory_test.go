package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	runStorageSuite(t, func(t *testing.T) Storage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_PutStoresCopy(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	store, _ := storage.Open(ctx, "portfolio-dynamic-v1")

	entry := testEntry("original")
	if err := store.Put(ctx, KeyForPath("/"), entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	entry.Body[0] = 'X'

	got, _ := store.Match(ctx, KeyForPath("/"))
	if string(got.Body) != "original" {
		t.Errorf("stored body mutated through caller's entry: %q", got.Body)
	}
}

func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := storage.Open(ctx, "portfolio-dynamic-v1")
			if err != nil {
				t.Errorf("Open failed: %v", err)
				return
			}
			key := KeyForPath(fmt.Sprintf("/projects/%d", i%5))
			_ = store.Put(ctx, key, testEntry("p"))
			_, _ = storage.Match(ctx, key)
			_, _ = storage.Names(ctx)
		}(i)
	}
	wg.Wait()

	names, _ := storage.Names(ctx)
	if len(names) != 1 {
		t.Errorf("Names() = %v, want a single store", names)
	}
}
