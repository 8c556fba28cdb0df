package page

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

// Toaster shows transient notifications to the user.
type Toaster interface {
	Success(msg string)
	Error(msg string)
}

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Toasts collects toasts in memory until drained.
type Toasts struct {
	mu    sync.Mutex
	items []Toast
}

var _ Toaster = (*Toasts)(nil)

func (t *Toasts) Success(msg string) { t.add(ToastSuccess, msg) }
func (t *Toasts) Error(msg string)   { t.add(ToastError, msg) }

func (t *Toasts) add(kind ToastKind, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Toast{Kind: kind, Message: msg})
}

// Drain returns the collected toasts and forgets them.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := t.items
	t.items = nil
	return items
}

// Peek returns the collected toasts.
func (t *Toasts) Peek() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.items...)
}

// ServerMessenger is implemented by errors carrying a message written for the user by the server.
type ServerMessenger interface {
	ServerMessage() (string, bool)
}

// Message returns the message to show for err:
// the server's message, the first validation message, else fallback.
func Message(err error, fallback string) string {
	var sm ServerMessenger
	if errors.As(err, &sm) {
		if msg, ok := sm.ServerMessage(); ok {
			return msg
		}
	}
	if vErr, ok := core.AsValidationError(err); ok {
		if msg := vErr.Error(); msg != "" {
			return msg
		}
	}
	return fallback
}
