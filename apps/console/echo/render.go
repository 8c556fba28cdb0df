package console

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
)

// page templates, each rendered within the layout
var templateNames = []string{
	"login", "register", "dashboard", "students", "add_student", "student", "grades",
	"attendance", "fees", "notifications", "reports", "profile", "help", "error",
}

// view is what every template receives.
type view struct {
	AppName string
	Title   string
	Path    string
	User    user.Profile
	Shell   *pages.Shell // nil on public pages
	Toasts  []page.Toast
	CSRF    template.HTML
	Data    interface{}
	Form    interface{}
	Errors  map[string]string
}

type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(fsys fs.FS) (*renderer, error) {
	r := &renderer{templates: make(map[string]*template.Template, len(templateNames))}
	for _, name := range templateNames {
		t, err := template.New("layout.gohtml").Funcs(funcs).ParseFS(fsys, "templates/layout.gohtml", "templates/"+name+".gohtml")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %q", name)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	// render fully before writing, so that a failure still gets a proper error page
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "rendering %q", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"markdown": renderMarkdown,
	"timeAgo":  core.TimeAgo,
	"date":     func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"money":    func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"percent":  func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	"title":    titleCase,
	"active":   func(path, prefix string) bool { return path == prefix || strings.HasPrefix(path, prefix+"/") },
	"statusOf": func(a *pages.Attendance, id string) string { s, _ := a.StatusOf(id); return s },
	"inc":      func(i int) int { return i + 1 },

	"attendanceStatuses": func() []string { return school.AttendanceStatuses },
	"paymentMethods":     func() []string { return school.PaymentMethods },
	"feeStatuses":        func() []string { return school.FeeStatuses },
	"studentStatuses":    func() []string { return school.StudentStatuses },
	"terms":              func() []string { return school.Terms },
	"genders":            func() []string { return school.Genders },
	"roles":              func() []user.Role { return user.Roles },
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// titleCase turns "bank_transfer" into "Bank Transfer".
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// csrfField is the hidden csrf input of the forms, empty when csrf protection is off.
func (s *Server) csrfField(ctx echo.Context) template.HTML {
	if s.opts.DisableCSRF {
		return ""
	}
	return csrf.TemplateField(ctx.Request())
}
