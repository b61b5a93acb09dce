package cache

import (
	"context"
	"time"
)

// Store represents a shared cache interface used across the application.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// PrefixDeleter is implemented by backends that can remove every key sharing a
// prefix without the caller enumerating them. It returns the number of keys removed.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Sweepable is a Store that also supports prefix deletion.
type Sweepable interface {
	Store
	PrefixDeleter
}

// WithPrefixDelete returns store unchanged when it already supports prefix
// deletion and otherwise wraps it in an IndexedStore.
func WithPrefixDelete(store Store) Sweepable {
	if store == nil {
		return nil
	}
	if s, ok := store.(Sweepable); ok {
		return s
	}
	return NewIndexedStore(store)
}

const deleteBatchSize = 500
