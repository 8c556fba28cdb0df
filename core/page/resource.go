package page

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MutationPolicy decides how a list reflects a successful mutation.
type MutationPolicy int

const (
	// Refetch reloads the list from the backend.
	Refetch MutationPolicy = iota
	// PatchLocal applies the mutation to the loaded copy, without a request.
	PatchLocal
)

func (p MutationPolicy) String() string {
	if p == PatchLocal {
		return "patch-local"
	}
	return "refetch"
}

// Value is a page-owned copy of one backend resource.
type Value[T any] struct {
	lc        *Lifecycle
	fetch     func(ctx context.Context) (T, error)
	loadError string
	toaster   Toaster

	mu      sync.RWMutex
	val     T
	gen     uint64
	loading bool
	loaded  bool
	err     error
}

// NewValue binds a resource to the page lifecycle lc.
// loadError is toasted when a load fails; an empty loadError loads silently.
func NewValue[T any](lc *Lifecycle, toaster Toaster, loadError string, fetch func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{lc: lc, fetch: fetch, loadError: loadError, toaster: toaster}
}

// Load fetches the resource and replaces the loaded copy.
// On failure the prior copy is kept and the error is toasted.
// Results of a load superseded by a newer one, or landing after unmount, are dropped.
func (v *Value[T]) Load(ctx context.Context) error {
	ctx, epoch, done, err := v.lc.bind(ctx)
	if err != nil {
		return err
	}
	defer done()

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.loading = true
	v.mu.Unlock()

	val, err := v.fetch(ctx)

	v.mu.Lock()
	if gen != v.gen || !v.lc.live(epoch) {
		v.mu.Unlock()
		return nil
	}
	v.loading = false
	v.err = err
	if err == nil {
		v.val = val
		v.loaded = true
	}
	v.mu.Unlock()

	if err != nil {
		if v.loadError != "" {
			v.toaster.Error(v.loadError)
		}
		return errors.Wrap(err, "loading")
	}
	return nil
}

// Get returns the loaded copy.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.val
}

func (v *Value[T]) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// Loaded reports whether a load ever succeeded.
func (v *Value[T]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Err returns the error of the last completed load.
func (v *Value[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Set replaces the loaded copy, e.g. with a locally patched value.
func (v *Value[T]) Set(val T) {
	v.update(func(T) T { return val })
}

func (v *Value[T]) update(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = fn(v.val)
}

// List is a page-owned copy of one backend collection.
type List[T any] struct {
	*Value[[]T]
	policy MutationPolicy
}

func NewList[T any](lc *Lifecycle, toaster Toaster, policy MutationPolicy, loadError string, fetch func(ctx context.Context) ([]T, error)) *List[T] {
	return &List[T]{Value: NewValue(lc, toaster, loadError, fetch), policy: policy}
}

func (l *List[T]) Policy() MutationPolicy { return l.policy }

// Items returns a copy of the loaded items.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.val...)
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.val)
}

// Filter applies a client-side predicate over the loaded items.
func (l *List[T]) Filter(match func(T) bool) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.val))
	for _, it := range l.val {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the first loaded item matching.
func (l *List[T]) Find(match func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.val {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Mutation is one create, update or delete issued from a page.
type Mutation[T any] struct {
	Do      func(ctx context.Context) error
	Success string // toasted on success
	Failure string // toasted on failure, unless the server sent its own message

	// Patch applies the mutation to the loaded items, under the PatchLocal policy.
	Patch func(items []T) []T
}

// Mutate runs m then reflects it per the list policy.
// A failure is toasted and returned; the caller keeps its form open.
func (l *List[T]) Mutate(ctx context.Context, m Mutation[T]) error {
	return l.Submit(ctx, nil, m)
}

// Submit validates the input first: an invalid input is toasted and returned without running m.
func (l *List[T]) Submit(ctx context.Context, validate func() error, m Mutation[T]) error {
	if err := Perform(ctx, l.toaster, validate, Action{Do: m.Do, Success: m.Success, Failure: m.Failure}); err != nil {
		return err
	}

	switch l.policy {
	case PatchLocal:
		if m.Patch != nil {
			l.update(m.Patch)
		}
	default:
		// the mutation succeeded; a failed refetch is toasted by Load
		_ = l.Load(ctx)
	}
	return nil
}

// Action is a mutation with no list to reflect it, e.g. a profile update.
type Action struct {
	Do      func(ctx context.Context) error
	Success string
	Failure string
}

// Perform validates, runs a and toasts the outcome.
func Perform(ctx context.Context, toaster Toaster, validate func() error, a Action) error {
	if validate != nil {
		if err := validate(); err != nil {
			toaster.Error(Message(err, "Please check the form"))
			return err
		}
	}
	if err := a.Do(ctx); err != nil {
		toaster.Error(Message(err, a.Failure))
		return err
	}
	if a.Success != "" {
		toaster.Success(a.Success)
	}
	return nil
}

// Confirm asks the user to confirm a destructive action. It blocks until answered.
type Confirm func(prompt string) bool

// Confirmed is a Confirm with a known answer, e.g. an already submitted confirmation form.
func Confirmed(ok bool) Confirm {
	return func(string) bool { return ok }
}

// Delete asks for confirmation before running m. It reports whether m ran.
func (l *List[T]) Delete(ctx context.Context, confirm Confirm, prompt string, m Mutation[T]) (bool, error) {
	if confirm == nil || !confirm(prompt) {
		return false, nil
	}
	return true, l.Mutate(ctx, m)
}
