// Package page implements the resource page pattern shared by every page:
// load on mount, render from the loaded copy, mutate then refetch or patch locally,
// and report outcomes as toasts.
package page

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrNotMounted = errors.New("page: not mounted")

// Lifecycle tracks whether a page is mounted.
// Loads started under one mount are discarded once the page is unmounted.
type Lifecycle struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	epoch   uint64
	mounted bool
}

// Mount mounts the page under parent; it remounts (discarding pending loads) when already mounted.
func (l *Lifecycle) Mount(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	l.epoch++
	l.mounted = true
}

// Unmount cancels in-flight loads; their results are discarded.
func (l *Lifecycle) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.epoch++
	l.mounted = false
}

func (l *Lifecycle) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}

// bind derives a context from ctx which is also cancelled on unmount.
func (l *Lifecycle) bind(ctx context.Context) (context.Context, uint64, context.CancelFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return nil, 0, nil, ErrNotMounted
	}
	bound, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return bound, l.epoch, func() {
		stop()
		cancel()
	}, nil
}

// live reports whether the page is still mounted under epoch.
func (l *Lifecycle) live(epoch uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted && l.epoch == epoch
}
