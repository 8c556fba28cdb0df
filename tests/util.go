// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	mockapi "github.com/trezcool/masomo-console/apps/mockapi/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/services/schoolapi"
)

const (
	AdminName     = "Ada Admin"
	AdminEmail    = "admin@school.test"
	AdminPassword = "s3cret-pass"
)

// Entry is one logged message.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log entries.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Levels returns the logged levels, in order.
func (l *Logger) Levels() []string {
	var levels []string
	for _, e := range l.Entries() {
		levels = append(levels, e.Level)
	}
	return levels
}

// NewValidator returns a validator knowing all custom validations and their messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	return validate, translator
}

// Backend is a running mock backend with a seeded admin.
type Backend struct {
	*mockapi.Server
	URL   string
	Admin user.Profile
	Token string // the admin's
}

// StartBackend starts a mock backend, closed at the end of the test.
func StartBackend(t *testing.T) *Backend {
	t.Helper()
	validate, translator := NewValidator()
	srv := mockapi.NewServer(&mockapi.Options{
		AppName:        "Masomo",
		SecretKey:      "test-secret",
		DisableReqLogs: true,
		Logger:         new(Logger),
		Validate:       validate,
		Translator:     translator,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	admin, err := srv.CreateUser(AdminName, AdminEmail, AdminPassword, user.RoleAdmin)
	if err != nil {
		t.Fatalf("StartBackend() failed: %v", err)
	}
	token, err := srv.Token(admin)
	if err != nil {
		t.Fatalf("StartBackend() failed: %v", err)
	}
	return &Backend{Server: srv, URL: ts.URL, Admin: admin, Token: token}
}

// Client returns a client of the backend, authenticated as the admin.
func (b *Backend) Client() *schoolapi.Client {
	return schoolapi.New(b.URL, schoolapi.TokenFunc(func() string { return b.Token }))
}

// CreateStudents adds n active students to class, named "Student 1".."Student n".
func (b *Backend) CreateStudents(t *testing.T, class string, n int) []school.Student {
	t.Helper()
	out := make([]school.Student, 0, n)
	for i := 1; i <= n; i++ {
		st, err := b.Client().CreateStudent(context.Background(), school.NewStudent{
			Name:       fmt.Sprintf("Student %d", i),
			RollNumber: fmt.Sprintf("%s-%03d", class, i),
			Class:      class,
			Age:        12,
			Gender:     "Female",
			Email:      fmt.Sprintf("student%d.%s@school.test", i, strings.ToLower(strings.ReplaceAll(class, " ", ""))),
		})
		if err != nil {
			t.Fatalf("CreateStudents() failed: %v", err)
		}
		out = append(out, st)
	}
	return out
}

// ErrStorage is returned by FailingStorage.
var ErrStorage = errors.New("storage unavailable")

// FailingStorage is a session storage whose every operation fails.
type FailingStorage struct{}

func (FailingStorage) Get(context.Context, string) (string, error) { return "", ErrStorage }
func (FailingStorage) Set(context.Context, string, string) error   { return ErrStorage }
func (FailingStorage) Delete(context.Context, ...string) error     { return ErrStorage }
