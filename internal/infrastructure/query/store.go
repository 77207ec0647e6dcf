package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached query: an operation tag plus the caller
// identity and the inclusive range bounds. Lookups with equal keys share
// one in-flight fetch and one cached value; lookups differing in any
// element are independent entries.
type Key struct {
	Op       string
	Identity string
	From     string
	To       string
}

// String returns the deterministic cache key. Stable across re-invocations
// with equal inputs.
func (k Key) String() string {
	return k.Op + "|" + k.Identity + "|" + k.From + "|" + k.To
}

// FetchFunc loads a fresh value for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is the state returned for one lookup.
type Result[T any] struct {
	Data      T
	Err       error
	FetchedAt time.Time
	Idle      bool
}

// Options configure a Store.
type Options struct {
	// StaleTime is how long a fetched value is served without refetching.
	StaleTime time.Duration
	// RefetchOnFocus refetches stale entries when OnFocus fires. Fresh
	// entries are never refetched on focus regardless of this flag.
	RefetchOnFocus bool
}

type entry[T any] struct {
	key       Key
	data      T
	fetchedAt time.Time
	fetch     FetchFunc[T]
}

// Store is a keyed query cache: fresh entries are served from memory,
// concurrent lookups for one key collapse into a single fetch, and
// disabled lookups stay idle. Errors are returned but never cached, so
// the next lookup retries.
type Store[T any] struct {
	opts    Options
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*entry[T]
}

// NewStore creates a query store. A non-positive StaleTime falls back to
// five minutes.
func NewStore[T any](opts Options) *Store[T] {
	if opts.StaleTime <= 0 {
		opts.StaleTime = 5 * time.Minute
	}
	s := &Store[T]{
		opts:    opts,
		entries: make(map[string]*entry[T]),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the state for key. When enabled is false the lookup stays
// idle: no fetch runs, no data and no error are reported. A fresh cached
// value is returned without invoking fetch; a stale or missing one
// triggers a deduplicated fetch.
func (s *Store[T]) Get(ctx context.Context, key Key, enabled bool, fetch FetchFunc[T]) Result[T] {
	if !enabled {
		return Result[T]{Idle: true}
	}

	if e, ok := s.lookup(key); ok && s.fresh(e) {
		return Result[T]{Data: e.data, FetchedAt: e.fetchedAt}
	}

	return s.doFetch(ctx, key, fetch)
}

// Refetch bypasses the staleness window and loads a new value for key.
func (s *Store[T]) Refetch(ctx context.Context, key Key, fetch FetchFunc[T]) Result[T] {
	s.Invalidate(key)
	return s.doFetch(ctx, key, fetch)
}

// Invalidate drops the cached entry for key, if any.
func (s *Store[T]) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key.String())
}

// OnFocus is the application-focus hook. With RefetchOnFocus disabled it
// does nothing. Otherwise stale entries are refetched with their recorded
// fetch functions. Returns the number of refetches triggered.
func (s *Store[T]) OnFocus(ctx context.Context) int {
	if !s.opts.RefetchOnFocus {
		return 0
	}

	s.mu.RLock()
	var stale []*entry[T]
	for _, e := range s.entries {
		if !s.fresh(e) {
			stale = append(stale, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range stale {
		s.doFetch(ctx, e.key, e.fetch)
	}
	return len(stale)
}

func (s *Store[T]) lookup(key Key) (*entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key.String()]
	return e, ok
}

func (s *Store[T]) fresh(e *entry[T]) bool {
	return time.Since(e.fetchedAt) < s.opts.StaleTime
}

// doFetch runs fetch through singleflight so concurrent lookups for one
// key share a single upstream call.
func (s *Store[T]) doFetch(ctx context.Context, key Key, fetch FetchFunc[T]) Result[T] {
	ks := key.String()

	v, err, _ := s.group.Do(ks, func() (any, error) {
		// A waiter that queued behind the flight leader may arrive after
		// the value was stored; serve it from the entry.
		if e, ok := s.lookup(key); ok && s.fresh(e) {
			return e, nil
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		e := &entry[T]{key: key, data: data, fetchedAt: time.Now(), fetch: fetch}
		s.mu.Lock()
		s.entries[ks] = e
		s.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return Result[T]{Err: err}
	}

	e := v.(*entry[T])
	return Result[T]{Data: e.data, FetchedAt: e.fetchedAt}
}

// cleanupLoop evicts entries that have been stale for longer than another
// full staleness window; anything younger may still be refetched on focus.
func (s *Store[T]) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * s.opts.StaleTime)
		s.mu.Lock()
		for k, e := range s.entries {
			if e.fetchedAt.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}
