// Package console serves the server-rendered admin console.
package console

import (
	"context"
	"crypto/sha256"
	"io/fs"
	"net/http"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/session"
	appfs "github.com/trezcool/masomo-console/fs"
	"github.com/trezcool/masomo-console/services/schoolapi"
)

type Options struct {
	Address              string
	AppName              string
	Build                string
	Debug                bool
	DisableReqLogs       bool
	DisableCSRF          bool
	SecureCookies        bool // https only
	SecretKey            string
	SessionCookie        string
	SessionTTL           time.Duration
	LogoutOnUnauthorized bool

	API        *schoolapi.Client
	Sessions   session.Provider
	Logger     core.Logger
	Mailer     core.EmailService
	Support    mail.Address
	Validate   *validator.Validate
	Translator ut.Translator
	Registry   *prometheus.Registry // served under /metrics when set
}

type Server struct {
	opts       *Options
	app        *echo.Echo
	workspaces *workspaces
}

func NewServer(opts *Options) (*Server, error) {
	if opts.SessionCookie == "" {
		opts.SessionCookie = "masomo_sid"
	}
	if opts.AppName == "" {
		opts.AppName = "Masomo"
	}
	s := &Server{opts: opts, app: echo.New()}
	s.workspaces = newWorkspaces(opts.SessionTTL, s.initWorkspace)
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) initWorkspace(ws *workspace) {
	api := s.opts.API.WithTokens(schoolapi.TokenFunc(ws.token))
	if s.opts.LogoutOnUnauthorized {
		api = api.WithUnauthorizedHook(ws.onUnauthorized)
	}
	ws.env = pages.Env{
		API:        api,
		Toaster:    &ws.toasts,
		Validate:   s.opts.Validate,
		Translator: s.opts.Translator,
		Logger:     s.opts.Logger,
	}
}

func (s *Server) setup() error {
	tmpl, err := newRenderer(appfs.FS)
	if err != nil {
		return err
	}
	static, err := fs.Sub(appfs.FS, "static")
	if err != nil {
		return errors.Wrap(err, "opening static files")
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))

	s.app.HideBanner = true
	s.app.Debug = s.opts.Debug
	s.app.Renderer = tmpl
	s.app.HTTPErrorHandler = s.newHTTPErrorHandler()

	// infrastructure
	s.app.GET("/healthz", s.healthz)
	if s.opts.Registry != nil {
		s.registerMetrics()
		s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))
	}
	s.app.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	// pages
	pg := s.app.Group("", s.sessionMiddleware)
	if !s.opts.DisableCSRF {
		key := sha256.Sum256([]byte(s.opts.SecretKey))
		pg.Use(echo.WrapMiddleware(csrf.Protect(key[:],
			csrf.Secure(s.opts.SecureCookies),
			csrf.Path("/"),
			csrf.CookieName(s.opts.SessionCookie+"_csrf"),
			csrf.FieldName("csrf_token"),
		)))
	}
	pg.POST("/logout", s.logout)

	gated := pg.Group("", s.gateMiddleware)
	registerAuthPages(gated, s)
	registerPages(gated, s)
	return nil
}

func (s *Server) registerMetrics() {
	_ = s.opts.Registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "masomo",
		Subsystem: "console",
		Name:      "workspaces",
		Help:      "Browser sessions with server-side state.",
	}, func() float64 { return float64(s.workspaces.Len()) }))
}

func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *Server) Stop(ctx context.Context) error {
	defer s.workspaces.close()
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.opts.Build})
}
