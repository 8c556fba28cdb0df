package inmemstore

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-console/core/session"
)

// Store keeps values in memory, per namespace.
type Store struct {
	mu     sync.RWMutex
	values map[string]map[string]string // {namespace: {key: value}}
}

var _ session.Provider = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string]map[string]string)}
}

func (s *Store) Scope(namespace string) session.Storage {
	return &scoped{store: s, ns: namespace}
}

// Len returns the number of keys held for namespace.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values[namespace])
}

type scoped struct {
	store *Store
	ns    string
}

var _ session.Storage = (*scoped)(nil)

func (sc *scoped) Get(_ context.Context, key string) (string, error) {
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	v, ok := sc.store.values[sc.ns][key]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (sc *scoped) Set(_ context.Context, key, value string) error {
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	ns, ok := sc.store.values[sc.ns]
	if !ok {
		ns = make(map[string]string)
		sc.store.values[sc.ns] = ns
	}
	ns[key] = value
	return nil
}

func (sc *scoped) Delete(_ context.Context, keys ...string) error {
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	ns := sc.store.values[sc.ns]
	for _, key := range keys {
		delete(ns, key)
	}
	if len(ns) == 0 {
		delete(sc.store.values, sc.ns)
	}
	return nil
}
