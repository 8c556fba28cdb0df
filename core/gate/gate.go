// Package gate decides which paths are reachable from the session state.
package gate

import (
	"strings"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// StateOf maps session presence to a gate State.
func StateOf(active bool) State {
	if active {
		return Authenticated
	}
	return Unauthenticated
}

// default paths of each state
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
)

var (
	publicPaths = map[string]bool{LoginPath: true, RegisterPath: true}

	// shell paths; a trailing "/*" matches one more path segment
	shellPaths = []string{
		"/",
		DashboardPath,
		"/students",
		"/students/add",
		"/students/*",
		"/grades",
		"/attendance",
		"/fees",
		"/notifications",
		"/reports",
		"/profile",
		"/help",
	}
)

// Decision is the outcome of resolving a path.
type Decision struct {
	Redirect string // empty: serve the path
}

func (d Decision) Serve() bool { return d.Redirect == "" }

// Resolve applies the gate:
// unauthenticated, only login & registration are served, anything else goes to login;
// authenticated, shell paths are served, login & registration and unknown paths go to the dashboard.
func Resolve(state State, path string) Decision {
	path = clean(path)
	switch state {
	case Authenticated:
		if publicPaths[path] || !isShellPath(path) {
			return Decision{Redirect: DashboardPath}
		}
	default:
		if !publicPaths[path] {
			return Decision{Redirect: LoginPath}
		}
	}
	return Decision{}
}

// Default returns the landing path of state.
func Default(state State) string {
	if state == Authenticated {
		return DashboardPath
	}
	return LoginPath
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func isShellPath(path string) bool {
	for _, p := range shellPaths {
		if p == path {
			return true
		}
		if prefix := strings.TrimSuffix(p, "*"); prefix != p && strings.HasPrefix(path, prefix) {
			if rest := path[len(prefix):]; rest != "" && !strings.Contains(rest, "/") {
				return true
			}
		}
	}
	return false
}
