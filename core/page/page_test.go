package page

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
)

type serverErr struct{ msg string }

func (e serverErr) Error() string                 { return e.msg }
func (e serverErr) ServerMessage() (string, bool) { return e.msg, true }

func mounted() *Lifecycle {
	lc := new(Lifecycle)
	lc.Mount(context.Background())
	return lc
}

func TestList_Load(t *testing.T) {
	var (
		toasts Toasts
		fail   bool
		calls  int
	)
	lc := mounted()
	l := NewList(lc, &toasts, Refetch, "Failed to load students", func(ctx context.Context) ([]string, error) {
		calls++
		if fail {
			return nil, errors.New("boom")
		}
		return []string{"jane", "john"}[:calls%2+1], nil
	})

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, []string{"jane", "john"}, l.Items())
	assert.True(t, l.Loaded())
	assert.False(t, l.Loading())
	assert.Empty(t, toasts.Drain())

	// a failed load keeps the prior copy and toasts
	fail = true
	assert.Error(t, l.Load(context.Background()))
	assert.Equal(t, []string{"jane", "john"}, l.Items())
	assert.Error(t, l.Err())
	assert.Equal(t, []Toast{{Kind: ToastError, Message: "Failed to load students"}}, toasts.Drain())

	fail = false
	require.NoError(t, l.Load(context.Background()))
	assert.NoError(t, l.Err())
	assert.Equal(t, []string{"jane"}, l.Filter(func(s string) bool { return s == "jane" }))
}

func TestList_notMounted(t *testing.T) {
	var toasts Toasts
	l := NewList(new(Lifecycle), &toasts, Refetch, "", func(ctx context.Context) ([]int, error) {
		t.Fatal("fetched while not mounted")
		return nil, nil
	})
	assert.ErrorIs(t, l.Load(context.Background()), ErrNotMounted)
}

func TestList_discardedAfterUnmount(t *testing.T) {
	var toasts Toasts
	started := make(chan struct{})
	release := make(chan struct{})
	lc := mounted()
	l := NewList(lc, &toasts, Refetch, "Failed", func(ctx context.Context) ([]int, error) {
		close(started)
		<-release
		return []int{1, 2, 3}, nil
	})

	done := make(chan error)
	go func() { done <- l.Load(context.Background()) }()
	<-started
	lc.Unmount()
	close(release)

	assert.NoError(t, <-done)
	assert.Empty(t, l.Items(), "result landed after unmount")
	assert.False(t, l.Loaded())
	assert.Empty(t, toasts.Drain())
}

func TestList_unmountCancelsFetch(t *testing.T) {
	var toasts Toasts
	started := make(chan struct{})
	lc := mounted()
	l := NewList(lc, &toasts, Refetch, "Failed", func(ctx context.Context) ([]int, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan error)
	go func() { done <- l.Load(context.Background()) }()
	<-started
	lc.Unmount()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("fetch not cancelled on unmount")
	}
	assert.Empty(t, toasts.Drain(), "discarded failures are not toasted")
}

func TestList_supersededLoad(t *testing.T) {
	var toasts Toasts
	first := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	lc := mounted()
	l := NewList(lc, &toasts, Refetch, "Failed", func(ctx context.Context) ([]string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(first)
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})

	done := make(chan error)
	go func() { done <- l.Load(context.Background()) }()
	<-first
	require.NoError(t, l.Load(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"fresh"}, l.Items())
}

func TestList_Mutate(t *testing.T) {
	t.Run("refetch", func(t *testing.T) {
		var toasts Toasts
		server := []string{"jane"}
		var fetches int
		l := NewList(mounted(), &toasts, Refetch, "Failed", func(ctx context.Context) ([]string, error) {
			fetches++
			return append([]string(nil), server...), nil
		})
		require.NoError(t, l.Load(context.Background()))

		err := l.Mutate(context.Background(), Mutation[string]{
			Do:      func(ctx context.Context) error { server = append(server, "john"); return nil },
			Success: "Student added successfully!",
			Failure: "Failed to add student",
			Patch:   func(items []string) []string { t.Fatal("patched under refetch policy"); return items },
		})
		require.NoError(t, err)
		assert.Equal(t, 2, fetches)
		assert.Equal(t, []string{"jane", "john"}, l.Items())
		assert.Equal(t, []Toast{{Kind: ToastSuccess, Message: "Student added successfully!"}}, toasts.Drain())
	})

	t.Run("patch local", func(t *testing.T) {
		var toasts Toasts
		var fetches int
		l := NewList(mounted(), &toasts, PatchLocal, "Failed", func(ctx context.Context) ([]string, error) {
			fetches++
			return []string{"a", "b"}, nil
		})
		require.NoError(t, l.Load(context.Background()))

		err := l.Mutate(context.Background(), Mutation[string]{
			Do:    func(ctx context.Context) error { return nil },
			Patch: func(items []string) []string { return items[1:] },
		})
		require.NoError(t, err)
		assert.Equal(t, 1, fetches)
		assert.Equal(t, []string{"b"}, l.Items())
		assert.Equal(t, PatchLocal, l.Policy())
		assert.Empty(t, toasts.Drain())
	})

	t.Run("failure", func(t *testing.T) {
		var toasts Toasts
		l := NewList(mounted(), &toasts, Refetch, "Failed", func(ctx context.Context) ([]string, error) {
			return []string{"a"}, nil
		})
		require.NoError(t, l.Load(context.Background()))

		err := l.Mutate(context.Background(), Mutation[string]{
			Do:      func(ctx context.Context) error { return serverErr{"Roll number already exists"} },
			Failure: "Failed to add student",
		})
		assert.Error(t, err)
		err = l.Mutate(context.Background(), Mutation[string]{
			Do:      func(ctx context.Context) error { return errors.New("connection refused") },
			Failure: "Failed to add student",
		})
		assert.Error(t, err)
		assert.Equal(t, []Toast{
			{Kind: ToastError, Message: "Roll number already exists"},
			{Kind: ToastError, Message: "Failed to add student"},
		}, toasts.Drain())
		assert.Equal(t, []string{"a"}, l.Items())
	})
}

func TestList_Submit(t *testing.T) {
	var toasts Toasts
	l := NewList(mounted(), &toasts, Refetch, "", func(ctx context.Context) ([]int, error) { return nil, nil })

	invalid := core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "marks", Error: "marks must be between 0 and 100"})
	err := l.Submit(context.Background(), func() error { return invalid }, Mutation[int]{
		Do: func(ctx context.Context) error { t.Fatal("submitted an invalid input"); return nil },
	})
	assert.Equal(t, invalid, err)
	assert.Equal(t, []Toast{{Kind: ToastError, Message: "marks must be between 0 and 100"}}, toasts.Drain())
}

func TestList_Delete(t *testing.T) {
	var toasts Toasts
	var deleted int
	l := NewList(mounted(), &toasts, Refetch, "", func(ctx context.Context) ([]int, error) { return nil, nil })
	m := Mutation[int]{Do: func(ctx context.Context) error { deleted++; return nil }, Success: "Student deleted successfully"}

	ran, err := l.Delete(context.Background(), Confirmed(false), "Are you sure?", m)
	assert.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, deleted)

	var prompt string
	ran, err = l.Delete(context.Background(), func(p string) bool { prompt = p; return true }, "Are you sure?", m)
	assert.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, "Are you sure?", prompt)
}

func TestFanOut(t *testing.T) {
	var calls int64
	res := FanOut(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, i int) error {
		atomic.AddInt64(&calls, 1)
		if i == 3 {
			return errors.New("boom")
		}
		return nil
	})
	assert.EqualValues(t, 5, calls, "a failure does not stop the others")
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.OK())
	assert.EqualError(t, res.Err, "boom")

	assert.True(t, FanOut(context.Background(), nil, func(ctx context.Context, i int) error { return nil }).OK())
	assert.False(t, BulkResult{Err: errors.New("rejected before sending")}.OK())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "server says", Message(errors.Wrap(serverErr{"server says"}, "creating"), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
}
