package console

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/gate"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/services/export"
)

var errUnknownAction = echo.NewHTTPError(http.StatusBadRequest, "Unknown action")

func registerPages(g *echo.Group, s *Server) {
	g.GET(gate.DashboardPath, s.dashboard)

	g.GET("/students", s.students)
	g.POST("/students", s.studentsAction)
	g.GET("/students/add", s.addStudentPage)
	g.POST("/students/add", s.addStudent)
	g.GET("/students/:id", s.studentDetails)

	g.GET("/grades", s.grades)
	g.POST("/grades", s.addGrade)

	g.GET("/attendance", s.attendance)
	g.POST("/attendance", s.attendanceAction)

	g.GET("/fees", s.fees)
	g.POST("/fees", s.recordFee)

	g.GET("/notifications", s.notifications)
	g.POST("/notifications", s.notificationsAction)

	g.GET("/reports", s.reports)

	g.GET("/profile", s.profile)
	g.POST("/profile", s.profileAction)

	g.GET("/help", s.help)
	g.POST("/help", s.contactSupport)
}

// render completes v with the session state, the navbar and the pending toasts, then renders the page name.
func (s *Server) render(ctx echo.Context, code int, name string, v view) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	v.AppName = s.opts.AppName
	v.Path = ctx.Request().URL.Path
	v.CSRF = s.csrfField(ctx)
	if store := ws.Session(); store != nil && store.Active() {
		v.User, _ = store.User()
		shell := pages.NewShell(ws.env, store)
		_ = shell.Mount(ctx.Request().Context()) // silent
		defer shell.Unmount()
		v.Shell = shell
	}
	v.Toasts = ws.toasts.Drain()
	return ctx.Render(code, name, v)
}

// visit enters the page name and reports whether it must be (re)loaded:
// a page refreshed by its last mutation is shown as is.
func visit[T controller](ws *workspace, name string, create func(env pages.Env) T) (T, bool) {
	ws.enter(name)
	p := pageOf(ws, name, create)
	fresh := ws.takeFresh(name)
	return p, !fresh || !p.Mounted()
}

// seeOther ends a form submission, marking the page name fresh.
func seeOther(ctx echo.Context, ws *workspace, name, location string) error {
	if name != "" {
		ws.markFresh(name)
	}
	return ctx.Redirect(http.StatusSeeOther, location)
}

func fieldErrors(err error) map[string]string {
	if vErr, ok := core.AsValidationError(err); ok {
		return vErr.FieldMap()
	}
	return nil
}

// formFloat parses the form field name; nil when empty or not a number.
func formFloat(ctx echo.Context, name string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(ctx.FormValue(name)), 64)
	if err != nil {
		return nil
	}
	return &f
}

// safeNext only allows local redirects.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func withQuery(path string, params map[string]string) string {
	q := make(url.Values, len(params))
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (s *Server) dashboard(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, load := visit(ws, "dashboard", pages.NewDashboard)
	if load {
		_ = p.Mount(ctx.Request().Context())
	}
	return s.render(ctx, http.StatusOK, "dashboard", view{Title: "Dashboard", Data: p})
}

// students

func studentFilterOf(ctx echo.Context) school.StudentFilter {
	return school.StudentFilter{
		Status: ctx.QueryParam("status"),
		Class:  ctx.QueryParam("class"),
		Search: ctx.QueryParam("search"),
	}
}

func studentsURL(f school.StudentFilter) string {
	return withQuery("/students", map[string]string{"status": f.Status, "class": f.Class, "search": f.Search})
}

func (s *Server) students(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	filter := studentFilterOf(ctx)
	p, load := visit(ws, "students", pages.NewStudents)
	if load {
		_ = p.Mount(ctx.Request().Context(), filter)
	} else if p.Filter() != filter {
		_ = p.SetFilter(ctx.Request().Context(), filter)
	}

	data := echo.Map{"Page": p, "Filter": filter, "URL": studentsURL(filter)}
	if id := ctx.QueryParam("confirm"); id != "" {
		if st, ok := p.List.Find(func(st school.Student) bool { return st.ID == id }); ok {
			data["Confirm"] = st
			data["Prompt"] = pages.DeleteStudentPrompt
		}
	}
	return s.render(ctx, http.StatusOK, "students", view{Title: "Students", Data: data})
}

func (s *Server) studentsAction(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	filter := school.StudentFilter{
		Status: ctx.FormValue("status"),
		Class:  ctx.FormValue("class"),
		Search: ctx.FormValue("search"),
	}
	p, _ := visit(ws, "students", pages.NewStudents)
	if !p.Mounted() || p.Filter() != filter {
		_ = p.Mount(ctx.Request().Context(), filter)
	}

	switch ctx.FormValue("_action") {
	case "delete":
		confirmed := page.Confirmed(ctx.FormValue("confirm") == "yes")
		_, _ = p.Delete(ctx.Request().Context(), confirmed, ctx.FormValue("id"))
	default:
		return errUnknownAction
	}
	return seeOther(ctx, ws, "students", studentsURL(filter))
}

func (s *Server) addStudentPage(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("add_student")
	return s.render(ctx, http.StatusOK, "add_student", view{Title: "Add Student", Form: school.NewStudent{Status: school.StudentActive}})
}

func (s *Server) addStudent(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("add_student")

	age, _ := strconv.Atoi(strings.TrimSpace(ctx.FormValue("age")))
	ns := school.NewStudent{
		Name:          ctx.FormValue("name"),
		RollNumber:    ctx.FormValue("rollNumber"),
		Class:         ctx.FormValue("class"),
		Age:           age,
		Gender:        ctx.FormValue("gender"),
		Email:         ctx.FormValue("email"),
		Phone:         ctx.FormValue("phone"),
		Address:       ctx.FormValue("address"),
		GuardianName:  ctx.FormValue("guardianName"),
		GuardianPhone: ctx.FormValue("guardianPhone"),
		Status:        ctx.FormValue("status"),
	}
	if _, err := pages.NewAddStudent(ws.env).Submit(ctx.Request().Context(), ns); err != nil {
		return s.render(ctx, http.StatusUnprocessableEntity, "add_student", view{Title: "Add Student", Form: ns, Errors: fieldErrors(err)})
	}
	return seeOther(ctx, ws, "", "/students")
}

func (s *Server) studentDetails(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	id := ctx.Param("id")
	p, load := visit(ws, "student", pages.NewStudentDetails)
	if load || p.ID() != id {
		_ = p.Mount(ctx.Request().Context(), id)
	}
	return s.render(ctx, http.StatusOK, "student", view{Title: "Student Details", Data: echo.Map{
		"Page":       p,
		"Attendance": pages.SummarizeAttendance(p.Attendance.Items()),
		"Average":    pages.AverageMarks(p.Grades.Items()),
	}})
}

// grades

func (s *Server) grades(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, load := visit(ws, "grades", pages.NewGrades)
	if load {
		_ = p.Mount(ctx.Request().Context())
	}
	return s.renderGrades(ctx, http.StatusOK, p, school.NewGrade{Term: school.Terms[0]}, nil)
}

func (s *Server) renderGrades(ctx echo.Context, code int, p *pages.Grades, form school.NewGrade, errs map[string]string) error {
	search := ctx.QueryParam("search")
	return s.render(ctx, code, "grades", view{
		Title:  "Grades",
		Data:   echo.Map{"Page": p, "Search": search, "Grades": p.Search(search)},
		Form:   form,
		Errors: errs,
	})
}

func (s *Server) addGrade(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, _ := visit(ws, "grades", pages.NewGrades)
	if !p.Mounted() {
		_ = p.Mount(ctx.Request().Context())
	}

	ng := school.NewGrade{
		StudentID:    ctx.FormValue("student_id"),
		Subject:      ctx.FormValue("subject"),
		Marks:        formFloat(ctx, "marks"),
		Term:         ctx.FormValue("term"),
		AcademicYear: ctx.FormValue("academic_year"),
		Remarks:      ctx.FormValue("remarks"),
	}
	if err := p.Add(ctx.Request().Context(), ng); err != nil {
		return s.renderGrades(ctx, http.StatusUnprocessableEntity, p, ng, fieldErrors(err))
	}
	return seeOther(ctx, ws, "grades", "/grades")
}

// attendance

func (s *Server) attendance(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	date := ctx.QueryParam("date")
	if date == "" {
		date = pages.Today()
	}
	p, load := visit(ws, "attendance", pages.NewAttendance)
	if load || p.Date() != date {
		_ = p.Mount(ctx.Request().Context(), date)
	}
	return s.render(ctx, http.StatusOK, "attendance", view{Title: "Attendance", Data: echo.Map{"Page": p, "Summary": p.Summary()}})
}

func (s *Server) attendanceAction(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	date := ctx.FormValue("date")
	if date == "" {
		date = pages.Today()
	}
	p, _ := visit(ws, "attendance", pages.NewAttendance)
	if !p.Mounted() || p.Date() != date {
		_ = p.Mount(ctx.Request().Context(), date)
	}

	switch ctx.FormValue("_action") {
	case "mark":
		_ = p.Mark(ctx.Request().Context(), ctx.FormValue("student_id"), ctx.FormValue("status"), ctx.FormValue("remarks"))
	case "mark-all":
		p.MarkAll(ctx.Request().Context(), ctx.FormValue("status"))
	default:
		return errUnknownAction
	}
	return seeOther(ctx, ws, "attendance", withQuery("/attendance", map[string]string{"date": p.Date()}))
}

// fees

func (s *Server) fees(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, load := visit(ws, "fees", pages.NewFees)
	if load {
		_ = p.Mount(ctx.Request().Context())
	}
	return s.renderFees(ctx, http.StatusOK, p, school.NewFee{PaymentMethod: school.PaymentCash, Term: school.Terms[0], Status: school.FeePaid}, nil)
}

func (s *Server) renderFees(ctx echo.Context, code int, p *pages.Fees, form school.NewFee, errs map[string]string) error {
	filter := school.FeeFilter{Search: ctx.QueryParam("search"), Status: ctx.QueryParam("status")}
	return s.render(ctx, code, "fees", view{
		Title: "Fees",
		Data: echo.Map{
			"Page":   p,
			"Filter": filter,
			"Fees":   p.Filtered(filter),
			"Totals": p.Totals(),
		},
		Form:   form,
		Errors: errs,
	})
}

func (s *Server) recordFee(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, _ := visit(ws, "fees", pages.NewFees)
	if !p.Mounted() {
		_ = p.Mount(ctx.Request().Context())
	}

	var amount float64
	if f := formFloat(ctx, "amount"); f != nil {
		amount = *f
	}
	nf := school.NewFee{
		StudentID:     ctx.FormValue("student_id"),
		Amount:        amount,
		PaymentMethod: ctx.FormValue("payment_method"),
		Term:          ctx.FormValue("term"),
		AcademicYear:  ctx.FormValue("academic_year"),
		ReceiptNumber: ctx.FormValue("receipt_number"),
		Notes:         ctx.FormValue("notes"),
		Status:        ctx.FormValue("status"),
	}
	if err := p.Record(ctx.Request().Context(), nf); err != nil {
		return s.renderFees(ctx, http.StatusUnprocessableEntity, p, nf, fieldErrors(err))
	}
	return seeOther(ctx, ws, "fees", "/fees")
}

// notifications

func (s *Server) notifications(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}

	tab := ctx.QueryParam("tab")
	if tab == "" {
		tab = school.TabAll
	}
	p, load := visit(ws, "notifications", pages.NewNotifications)
	if load {
		_ = p.Mount(ctx.Request().Context())
	}
	return s.render(ctx, http.StatusOK, "notifications", view{Title: "Notifications", Data: echo.Map{
		"Page":          p,
		"Tab":           tab,
		"Tabs":          []string{school.TabAll, school.TabUnread, school.TabRead},
		"Notifications": p.Tab(tab),
	}})
}

func (s *Server) notificationsAction(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	action := ctx.FormValue("_action")

	// from the navbar, on any page
	if next := ctx.FormValue("next"); next != "" {
		if action != "read-all" {
			return errUnknownAction
		}
		_ = pages.NewShell(ws.env, ws.Session()).MarkAllRead(rctx)
		return seeOther(ctx, ws, "", safeNext(next, "/notifications"))
	}

	p, _ := visit(ws, "notifications", pages.NewNotifications)
	if !p.Mounted() {
		_ = p.Mount(rctx)
	}
	switch action {
	case "read":
		_ = p.MarkRead(rctx, ctx.FormValue("id"))
	case "read-all":
		_ = p.MarkAllRead(rctx)
	case "delete":
		_ = p.Delete(rctx, ctx.FormValue("id"))
	default:
		return errUnknownAction
	}
	return seeOther(ctx, ws, "notifications", withQuery("/notifications", map[string]string{"tab": ctx.FormValue("tab")}))
}

// reports

func (s *Server) reports(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	p, load := visit(ws, "reports", pages.NewReports)
	if load {
		_ = p.Mount(ctx.Request().Context())
	}

	format := strings.ToLower(ctx.QueryParam("export"))
	if format == "" {
		report := p.Data.Get()
		shares, total := report.ClassShares()
		return s.render(ctx, http.StatusOK, "reports", view{Title: "Reports", Data: echo.Map{
			"Page":       p,
			"Report":     report,
			"Shares":     shares,
			"Total":      total,
			"TopAverage": report.TopAverage(),
		}})
	}

	if !p.Data.Loaded() {
		return seeOther(ctx, ws, "reports", "/reports")
	}
	data, err := p.Export(format)
	if err != nil {
		return seeOther(ctx, ws, "reports", "/reports")
	}
	var buf bytes.Buffer
	if err := export.Report(&buf, format, data); err != nil {
		return err
	}
	ws.markFresh("reports")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename(format, time.Now())))
	return ctx.Blob(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// profile

type profileForms struct {
	Profile  user.ProfileUpdate
	Password user.PasswordChange
}

func (s *Server) profile(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("profile")

	usr := pages.NewProfile(ws.env, ws.Session()).User()
	form := profileForms{Profile: user.ProfileUpdate{FullName: usr.FullName, Email: usr.Email}}
	return s.render(ctx, http.StatusOK, "profile", view{Title: "Profile", Form: form})
}

func (s *Server) profileAction(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("profile")

	p := pages.NewProfile(ws.env, ws.Session())
	usr := p.User()
	form := profileForms{Profile: user.ProfileUpdate{FullName: usr.FullName, Email: usr.Email}}

	switch ctx.FormValue("_action") {
	case "update":
		form.Profile = user.ProfileUpdate{FullName: ctx.FormValue("full_name"), Email: ctx.FormValue("email")}
		err = p.Update(ctx.Request().Context(), form.Profile)
	case "password":
		err = p.ChangePassword(ctx.Request().Context(), user.PasswordChange{
			CurrentPassword: ctx.FormValue("current_password"),
			NewPassword:     ctx.FormValue("new_password"),
			ConfirmPassword: ctx.FormValue("confirm_password"),
		})
	default:
		return errUnknownAction
	}
	if err != nil {
		return s.render(ctx, http.StatusUnprocessableEntity, "profile", view{Title: "Profile", Form: form, Errors: fieldErrors(err)})
	}
	return seeOther(ctx, ws, "", "/profile")
}

// help

func (s *Server) newHelp(ws *workspace) (*pages.Help, error) {
	return pages.NewHelp(ws.env, ws.Session(), s.opts.Mailer, s.opts.Support)
}

func (s *Server) help(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("help")

	h, err := s.newHelp(ws)
	if err != nil {
		return err
	}
	return s.renderHelp(ctx, http.StatusOK, h, pages.SupportRequest{}, nil)
}

func (s *Server) renderHelp(ctx echo.Context, code int, h *pages.Help, form pages.SupportRequest, errs map[string]string) error {
	q := ctx.QueryParam("q")
	return s.render(ctx, code, "help", view{
		Title: "Help & Support",
		Data: echo.Map{
			"Query":      q,
			"FAQ":        h.Search(q),
			"QuickLinks": pages.QuickLinks,
			"Support":    h.SupportAddress().Address,
		},
		Form:   form,
		Errors: errs,
	})
}

func (s *Server) contactSupport(ctx echo.Context) error {
	ws, err := getWorkspace(ctx)
	if err != nil {
		return err
	}
	ws.enter("help")

	h, err := s.newHelp(ws)
	if err != nil {
		return err
	}
	req := pages.SupportRequest{Subject: ctx.FormValue("subject"), Message: ctx.FormValue("message")}
	if err := h.Contact(ctx.Request().Context(), req); err != nil {
		return s.renderHelp(ctx, http.StatusUnprocessableEntity, h, req, fieldErrors(err))
	}
	return seeOther(ctx, ws, "", "/help")
}
