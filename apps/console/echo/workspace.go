package console

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/session"
)

// controller is a mounted page of a workspace.
type controller interface {
	Mounted() bool
	Unmount()
}

// workspace is the server-side state of one browser session:
// its session, pending toasts and the mounted pages.
type workspace struct {
	env    pages.Env
	toasts page.Toasts

	mu      sync.Mutex
	session *session.Store
	pages   map[string]controller
	fresh   map[string]bool
	current string
	seen    time.Time
}

func (ws *workspace) setSession(store *session.Store) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.session = store
	ws.seen = time.Now()
}

func (ws *workspace) Session() *session.Store {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.session
}

func (ws *workspace) token() string {
	if s := ws.Session(); s != nil {
		return s.Token()
	}
	return ""
}

// enter makes name the current page, unmounting the page left.
func (ws *workspace) enter(name string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.current != "" && ws.current != name {
		if prev, ok := ws.pages[ws.current]; ok {
			prev.Unmount()
		}
		delete(ws.fresh, ws.current)
	}
	ws.current = name
}

// markFresh flags the page of name as reflecting its last mutation, so that the next view skips the reload.
func (ws *workspace) markFresh(name string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.fresh[name] = true
}

func (ws *workspace) takeFresh(name string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	fresh := ws.fresh[name]
	delete(ws.fresh, name)
	return fresh
}

func (ws *workspace) unmountAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, p := range ws.pages {
		p.Unmount()
	}
}

// pageOf returns the page of name, created on first use.
func pageOf[T controller](ws *workspace, name string, create func(env pages.Env) T) T {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if p, ok := ws.pages[name].(T); ok {
		return p
	}
	p := create(ws.env)
	ws.pages[name] = p
	return p
}

// workspaces indexes the workspaces by session id; idle ones are evicted.
type workspaces struct {
	ttl    time.Duration
	create func(ws *workspace)

	mu    sync.Mutex
	items map[string]*workspace
	swept time.Time
}

func newWorkspaces(ttl time.Duration, create func(ws *workspace)) *workspaces {
	return &workspaces{ttl: ttl, create: create, items: make(map[string]*workspace), swept: time.Now()}
}

func (w *workspaces) get(sid string) *workspace {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sweep()
	ws, ok := w.items[sid]
	if !ok {
		ws = &workspace{pages: make(map[string]controller), fresh: make(map[string]bool), seen: time.Now()}
		w.create(ws)
		w.items[sid] = ws
	}
	return ws
}

func (w *workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// sweep evicts the workspaces idle for longer than ttl, at most once per minute.
func (w *workspaces) sweep() {
	if w.ttl <= 0 || time.Since(w.swept) < time.Minute {
		return
	}
	w.swept = time.Now()
	for sid, ws := range w.items {
		ws.mu.Lock()
		idle := time.Since(ws.seen) > w.ttl
		ws.mu.Unlock()
		if idle {
			ws.unmountAll()
			delete(w.items, sid)
		}
	}
}

func (w *workspaces) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for sid, ws := range w.items {
		ws.unmountAll()
		delete(w.items, sid)
	}
}

// onUnauthorized ends the workspace session when the backend rejects its token.
func (ws *workspace) onUnauthorized(ctx context.Context) {
	if s := ws.Session(); s != nil && s.Active() {
		s.Logout(ctx)
		ws.toasts.Error("Your session has expired. Please log in again.")
	}
}
