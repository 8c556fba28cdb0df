package console

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-console/core/gate"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/user"
)

func registerAuthPages(g *echo.Group, s *Server) {
	g.GET("/", s.home)
	g.GET(gate.LoginPath, s.loginPage)
	g.POST(gate.LoginPath, s.login)
	g.GET(gate.RegisterPath, s.registerPage)
	g.POST(gate.RegisterPath, s.register)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, gate.DashboardPath)
}

func (s *Server) loginPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "login", view{Title: "Login", Form: user.Credentials{}})
}

func (s *Server) login(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	creds := user.Credentials{
		Email:    ctx.FormValue("email"),
		Password: ctx.FormValue("password"),
	}
	if err := pages.NewAuth(ws.env, ws.Session()).Login(ctx.Request().Context(), creds); err != nil {
		creds.Password = ""
		return s.render(ctx, http.StatusUnprocessableEntity, "login", view{Title: "Login", Form: creds, Errors: fieldErrors(err)})
	}
	return ctx.Redirect(http.StatusSeeOther, gate.DashboardPath)
}

func (s *Server) registerPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "register", view{Title: "Register", Form: user.Registration{Role: user.RoleTeacher}})
}

func (s *Server) register(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	reg := user.Registration{
		FullName:        ctx.FormValue("full_name"),
		Email:           ctx.FormValue("email"),
		Password:        ctx.FormValue("password"),
		ConfirmPassword: ctx.FormValue("confirm_password"),
		Role:            ctx.FormValue("role"),
	}
	if err := pages.NewAuth(ws.env, ws.Session()).Register(ctx.Request().Context(), reg); err != nil {
		reg.Password, reg.ConfirmPassword = "", ""
		return s.render(ctx, http.StatusUnprocessableEntity, "register", view{Title: "Register", Form: reg, Errors: fieldErrors(err)})
	}
	return ctx.Redirect(http.StatusSeeOther, gate.DashboardPath)
}

// logout is reachable from any state: a logged out browser just lands on the login page.
func (s *Server) logout(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	pages.NewAuth(ws.env, ws.Session()).Logout(ctx.Request().Context())
	ws.unmountAll()
	return ctx.Redirect(http.StatusSeeOther, gate.LoginPath)
}
