package asset

import (
	"context"
	"sync"
)

// Store is a read-through cache of asset bytes in front of a Fetcher.
// Failed fetches are not remembered; the next caller tries again.
type Store struct {
	fetcher Fetcher

	mu    sync.RWMutex
	bytes map[string][]byte
}

// NewStore creates an empty Store.
func NewStore(fetcher Fetcher) *Store {
	s := new(Store)
	s.fetcher = fetcher
	s.bytes = make(map[string][]byte)
	return s
}

// Fetch returns the cached bytes for src, fetching them on a miss.
func (s *Store) Fetch(ctx context.Context, src string) ([]byte, error) {
	s.mu.RLock()
	b, ok := s.bytes[src]
	s.mu.RUnlock()
	if ok {
		return b, nil
	}

	b, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.bytes[src] = b
	s.mu.Unlock()
	return b, nil
}

// Forget drops the bytes held for src.
func (s *Store) Forget(src string) {
	s.mu.Lock()
	delete(s.bytes, src)
	s.mu.Unlock()
}

// Cached reports whether src is already held.
func (s *Store) Cached(src string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bytes[src]
	return ok
}
