package console

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/gate"
	"github.com/trezcool/masomo-console/core/session"
)

const workspaceKey = "workspace"

var errNoWorkspace = errors.New("workspace not found in echo.Context")

// sessionMiddleware identifies the browser by its session cookie, issuing one when missing,
// and restores its session from storage.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sid := ""
		if c, err := ctx.Cookie(s.opts.SessionCookie); err == nil {
			if _, err = uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}
		cookie := &http.Cookie{
			Name:     s.opts.SessionCookie,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		}
		if s.opts.SessionTTL > 0 {
			cookie.Expires = time.Now().Add(s.opts.SessionTTL)
		}
		ctx.SetCookie(cookie)

		store := session.NewStore(s.opts.Sessions.Scope(sid), s.opts.Logger)
		if err := store.Restore(ctx.Request().Context()); err != nil {
			return errors.Wrap(err, "restoring session")
		}
		ws := s.workspaces.get(sid)
		ws.setSession(store)
		ctx.Set(workspaceKey, ws)
		return next(ctx)
	}
}

// gateMiddleware redirects the paths unreachable from the session state.
func (s *Server) gateMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ws, err := getWorkspace(ctx)
		if err != nil {
			return err
		}
		d := gate.Resolve(gate.StateOf(ws.Session().Active()), ctx.Request().URL.Path)
		if !d.Serve() {
			return ctx.Redirect(http.StatusSeeOther, d.Redirect)
		}
		return next(ctx)
	}
}

func getWorkspace(ctx echo.Context) (*workspace, error) {
	ws, ok := ctx.Get(workspaceKey).(*workspace)
	if !ok {
		return nil, errNoWorkspace
	}
	return ws, nil
}
