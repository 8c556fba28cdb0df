// Package mockapi is an in-memory rendition of the school management backend.
// It serves the REST contract the console and the cli talk to, for development and tests.
package mockapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

type Options struct {
	Address        string
	AppName        string
	SecretKey      string
	JWTExpiration  time.Duration
	Debug          bool
	DisableReqLogs bool
	Logger         core.Logger
	Validate       *validator.Validate
	Translator     ut.Translator
}

type fault struct {
	status  int
	message string
}

type Server struct {
	opts  *Options
	app   *echo.Echo
	auth  *authenticator
	store *store

	mu       sync.Mutex
	faults   map[string]fault // "METHOD /route"
	rejected map[string]bool  // student ids whose attendance cannot be marked
	calls    []string
}

func NewServer(opts *Options) *Server {
	if opts.JWTExpiration == 0 {
		opts.JWTExpiration = 24 * time.Hour
	}
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		auth:     newAuthenticator(opts.AppName, opts.SecretKey, opts.JWTExpiration),
		store:    newStore(),
		faults:   make(map[string]fault),
		rejected: make(map[string]bool),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.recordCalls)

	s.app.HideBanner = true
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	api := handlers{store: s.store, auth: s.auth, validate: s.opts.Validate, translator: s.opts.Translator, srv: s}
	jwt := middleware.JWTWithConfig(s.auth.config)

	s.app.POST("/login", api.login)
	s.app.POST("/register", api.register)
	s.app.POST("/logout", api.logout)

	ag := s.app.Group("/api", jwt)
	ag.PUT("/users/profile", api.updateProfile)
	ag.PUT("/users/change-password", api.changePassword)

	ag.GET("/students", api.listStudents)
	ag.POST("/students", api.createStudent)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.DELETE("/students/:id", api.destroyStudent)

	ag.GET("/grades/all", api.listGrades)
	ag.GET("/grades/student/:id", api.listStudentGrades)
	ag.POST("/grades", api.createGrade)

	ag.GET("/attendance", api.listAttendance)
	ag.GET("/attendance/student/:id", api.listStudentAttendance)
	ag.POST("/attendance", api.markAttendance)

	ag.GET("/fees", api.listFees)
	ag.GET("/fees/student/:id", api.listStudentFees)
	ag.POST("/fees", api.createFee)

	ag.GET("/notifications", api.listNotifications)
	ag.GET("/notifications/unread-count", api.unreadCount)
	ag.PUT("/notifications/mark-all-read", api.markAllRead)
	ag.PUT("/notifications/:id/read", api.markRead)
	ag.DELETE("/notifications/:id", api.destroyNotification)

	ag.GET("/stats/dashboard", api.dashboardStats)
	ag.GET("/activities/recent", api.recentActivities)
	ag.GET("/reports/class-distribution", api.classDistribution)
	ag.GET("/reports/top-performers", api.topPerformers)
}

// recordCalls logs every routed request, then answers with an injected fault if one is set.
func (s *Server) recordCalls(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		s.mu.Lock()
		s.calls = append(s.calls, req.Method+" "+req.URL.Path)
		f, ok := s.faults[req.Method+" "+ctx.Path()]
		s.mu.Unlock()
		if ok {
			return echo.NewHTTPError(f.status, f.message)
		}
		return next(ctx)
	}
}

func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Fail makes every request to route (e.g. "/api/students/:id") answer status with message.
func (s *Server) Fail(method, route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+route] = fault{status: status, message: message}
}

// Heal removes all injected faults.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]fault)
	s.rejected = make(map[string]bool)
}

// RejectAttendance makes marking attendance fail for the student.
func (s *Server) RejectAttendance(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[studentID] = true
}

func (s *Server) attendanceRejected(studentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected[studentID]
}

// Calls returns the requests served so far, as "METHOD /path".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls forgets the requests served so far.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// CreateUser registers an account directly, e.g. the seeded admin.
func (s *Server) CreateUser(fullName, email, pwd, role string) (user.Profile, error) {
	usr, err := s.store.createAccount(fullName, email, pwd, role)
	if errors.Is(err, errDuplicate) {
		return usr, errors.Errorf("user %q already exists", email)
	}
	return usr, err
}

// Token issues a token for usr, as the login endpoint would.
func (s *Server) Token(usr user.Profile) (string, error) {
	return s.auth.generateToken(usr)
}

// Notify adds a notification, as the backend does on school events.
func (s *Server) Notify(title, message, typ string) {
	s.store.addNotification(title, message, typ, "")
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Masomo mock API!")
}
