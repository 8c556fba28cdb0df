package console

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

// newHTTPErrorHandler renders errors as an error page; server errors are logged with the session user.
func (s *Server) newHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)

			var usr user.Profile
			if ws, wErr := getWorkspace(ctx); wErr == nil {
				if store := ws.Session(); store != nil {
					usr, _ = store.User()
				}
			}
			s.opts.Logger.Error(message, errors.Wrap(err, message), usr)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.Render(code, "error", view{
				AppName: s.opts.AppName,
				Title:   http.StatusText(code),
				Data:    echo.Map{"Code": code, "Message": message},
			})
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
