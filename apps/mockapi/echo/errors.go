package mockapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

var (
	errStudentNotFound      = echo.NewHTTPError(http.StatusNotFound, "Student not found")
	errNotificationNotFound = echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	errUserNotFound         = echo.NewHTTPError(http.StatusNotFound, "User not found")
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler answering every error as {"error": "..."}.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var res errorResponse

		vErr, isValidation := core.AsValidationError(err)
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				res.Error = "Access denied. No token provided."
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				res.Error = msg
			} else {
				res.Error = http.StatusText(code)
			}
		default:
			if isValidation {
				code = http.StatusBadRequest
				res.Error = vErr.Error()
				res.Fields = vErr.FieldMap()
				break
			}
			// any other error is a server error
			code = http.StatusInternalServerError
			res.Error = http.StatusText(http.StatusInternalServerError)
			if logger != nil {
				logger.Error(res.Error, errors.Wrap(err, ctx.Request().Method+" "+ctx.Path()))
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
