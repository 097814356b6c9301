package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in any store
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreNotFound indicates the named store does not exist
	ErrStoreNotFound = errors.New("cache store not found")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Storage is the set of named stores for one origin.
type Storage interface {
	// Open returns the named store, creating it if needed.
	Open(ctx context.Context, name string) (Store, error)

	// Has reports whether the named store exists.
	Has(ctx context.Context, name string) (bool, error)

	// Delete removes the named store and all of its entries.
	// It reports whether a store was removed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names lists store names in creation order.
	Names(ctx context.Context) ([]string, error)

	// Match returns the first entry for key across all stores, in
	// creation order. Returns ErrCacheMiss when no store has it.
	Match(ctx context.Context, key RequestKey) (*Entry, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Store is a single named key-value container of response snapshots.
type Store interface {
	// Name returns the store name.
	Name() string

	// Match returns the entry for key or ErrCacheMiss.
	Match(ctx context.Context, key RequestKey) (*Entry, error)

	// Put stores a snapshot under key, replacing any previous one.
	Put(ctx context.Context, key RequestKey, entry *Entry) error

	// Delete removes key. It reports whether an entry was removed.
	Delete(ctx context.Context, key RequestKey) (bool, error)

	// Keys lists the key strings held by the store.
	Keys(ctx context.Context) ([]string, error)
}
