package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// IndexedStore adds prefix deletion to a Store that cannot scan its keys. Every
// key written through it is remembered in a process-local index, and
// DeletePrefix removes the indexed keys that match.
//
// The index only sees writes made by this process. Keys written by other
// replicas expire through their TTL.
type IndexedStore struct {
	inner Store

	mu   sync.Mutex
	keys map[string]struct{}
}

// NewIndexedStore wraps inner with a key index.
func NewIndexedStore(inner Store) *IndexedStore {
	return &IndexedStore{
		inner: inner,
		keys:  make(map[string]struct{}),
	}
}

// Set writes through and records the key.
func (s *IndexedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.inner.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Get reads through.
func (s *IndexedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, key)
}

// Delete removes keys from the backend and the index.
func (s *IndexedStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.inner.Delete(ctx, keys...); err != nil {
		return err
	}
	s.mu.Lock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	s.mu.Unlock()
	return nil
}

// DeletePrefix removes indexed keys matching prefix in batches. Matched keys
// leave the index before the backend delete, so a concurrent Set re-indexes
// its key for the next sweep. Keys from a failed batch are indexed again.
func (s *IndexedStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if s.inner == nil {
		return 0, errors.New("cache: indexed store has no backend")
	}

	s.mu.Lock()
	matched := make([]string, 0)
	for key := range s.keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
			delete(s.keys, key)
		}
	}
	s.mu.Unlock()

	var (
		removed int64
		errs    error
	)
	for start := 0; start < len(matched); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(matched))
		batch := matched[start:end]
		if err := s.inner.Delete(ctx, batch...); err != nil {
			errs = multierr.Append(errs, err)
			s.mu.Lock()
			for _, key := range batch {
				s.keys[key] = struct{}{}
			}
			s.mu.Unlock()
			continue
		}
		removed += int64(len(batch))
	}
	return removed, errs
}
