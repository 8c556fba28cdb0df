package pages

import (
	"context"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
	emailsvc "github.com/trezcool/masomo-console/services/email"
	"github.com/trezcool/masomo-console/services/schoolapi"
	inmemstore "github.com/trezcool/masomo-console/storage/inmem"
	testutil "github.com/trezcool/masomo-console/tests"
)

type fixture struct {
	env     Env
	backend *testutil.Backend
	toasts  *page.Toasts
	session *session.Store
	logger  *testutil.Logger
}

// setup starts a backend and a session; login opens the session as the seeded admin.
func setup(t *testing.T, login bool) *fixture {
	t.Helper()
	backend := testutil.StartBackend(t)
	logger := new(testutil.Logger)
	store := session.NewStore(inmemstore.New().Scope("sid"), logger)
	if login {
		require.NoError(t, store.Login(context.Background(), backend.Token, backend.Admin))
	}
	validate, translator := testutil.NewValidator()
	toasts := new(page.Toasts)
	return &fixture{
		env: Env{
			API:        schoolapi.New(backend.URL, schoolapi.TokenFunc(store.Token)),
			Toaster:    toasts,
			Validate:   validate,
			Translator: translator,
			Logger:     logger,
		},
		backend: backend,
		toasts:  toasts,
		session: store,
		logger:  logger,
	}
}

func success(msg string) []page.Toast { return []page.Toast{{Kind: page.ToastSuccess, Message: msg}} }
func failure(msg string) []page.Toast { return []page.Toast{{Kind: page.ToastError, Message: msg}} }

func createGraduate(t *testing.T, fx *fixture) school.Student {
	t.Helper()
	st, err := fx.backend.Client().CreateStudent(context.Background(), school.NewStudent{
		Name: "Old Boy", RollNumber: "GRAD-001", Class: "SS 3", Age: 19, Gender: "Male",
		Email: "old.boy@school.test", Status: school.StudentGraduated,
	})
	require.NoError(t, err)
	return st
}

func countCalls(calls []string, call string) int {
	var n int
	for _, c := range calls {
		if c == call {
			n++
		}
	}
	return n
}

func hasPrefixCall(calls []string, prefix string) bool {
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func marks(f float64) *float64 { return &f }

func TestAuth_Login(t *testing.T) {
	fx := setup(t, false)
	auth := NewAuth(fx.env, fx.session)
	ctx := context.Background()

	assert.Error(t, auth.Login(ctx, user.Credentials{Email: testutil.AdminEmail, Password: "wrong"}))
	assert.Equal(t, failure("Invalid credentials"), fx.toasts.Drain())
	assert.False(t, fx.session.Active())

	fx.backend.ResetCalls()
	assert.Error(t, auth.Login(ctx, user.Credentials{Email: "not-an-email", Password: "x"}))
	assert.Empty(t, fx.backend.Calls(), "invalid credentials were sent")
	fx.toasts.Drain()

	require.NoError(t, auth.Login(ctx, user.Credentials{Email: " ADMIN@school.test ", Password: testutil.AdminPassword}))
	assert.Equal(t, success("Login successful!"), fx.toasts.Drain())
	usr, ok := fx.session.User()
	require.True(t, ok)
	assert.Equal(t, fx.backend.Admin, usr)
}

func TestAuth_Register(t *testing.T) {
	fx := setup(t, false)
	auth := NewAuth(fx.env, fx.session)
	ctx := context.Background()

	tests := []struct {
		name string
		reg  user.Registration
		want string
	}{
		{"mismatch", user.Registration{FullName: "Tom Teacher", Email: "tom@school.test", Password: "secret1", ConfirmPassword: "secret2", Role: user.RoleTeacher}, "passwords do not match"},
		{"too short", user.Registration{FullName: "Tom Teacher", Email: "tom@school.test", Password: "abc", ConfirmPassword: "abc", Role: user.RoleTeacher}, "password must be at least 6 characters long"},
		{"bad role", user.Registration{FullName: "Tom Teacher", Email: "tom@school.test", Password: "secret1", ConfirmPassword: "secret1", Role: "janitor"}, "role must be one of: admin, teacher"},
	}
	fx.backend.ResetCalls()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, auth.Register(ctx, tt.reg))
			assert.Equal(t, failure(tt.want), fx.toasts.Drain())
		})
	}
	assert.Empty(t, fx.backend.Calls())

	require.NoError(t, auth.Register(ctx, user.Registration{
		FullName: "Tom Teacher", Email: "tom@school.test", Password: "secret1", ConfirmPassword: "secret1", Role: user.RoleTeacher,
	}))
	assert.Equal(t, success("Registration successful!"), fx.toasts.Drain())
	usr, _ := fx.session.User()
	assert.Equal(t, "tom@school.test", usr.Email)

	fx.session.Logout(ctx)
	assert.Error(t, auth.Register(ctx, user.Registration{
		FullName: "Tom Teacher", Email: "tom@school.test", Password: "secret1", ConfirmPassword: "secret1", Role: user.RoleTeacher,
	}))
	assert.Equal(t, failure("User already exists"), fx.toasts.Drain())
}

func TestAuth_Logout(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		fx := setup(t, true)
		NewAuth(fx.env, fx.session).Logout(context.Background())
		assert.False(t, fx.session.Active())
		assert.Equal(t, success("Logged out successfully"), fx.toasts.Drain())
		assert.Equal(t, []string{"POST /logout"}, fx.backend.Calls())
	})

	t.Run("backend failure", func(t *testing.T) {
		fx := setup(t, true)
		fx.backend.Fail(http.MethodPost, "/logout", http.StatusBadGateway, "down")
		NewAuth(fx.env, fx.session).Logout(context.Background())
		assert.False(t, fx.session.Active(), "logout is unconditional")
		assert.Equal(t, success("Logged out successfully"), fx.toasts.Drain())
		assert.Equal(t, []string{"WARN"}, fx.logger.Levels())
	})
}

func TestShell(t *testing.T) {
	fx := setup(t, true)
	for i := 0; i < 7; i++ {
		fx.backend.Notify("Notice", "Something happened", school.NotificationInfo)
	}
	shell := NewShell(fx.env, fx.session)
	ctx := context.Background()

	require.NoError(t, shell.Mount(ctx))
	assert.Equal(t, "AA", shell.Initials())
	assert.Len(t, shell.Recent.Items(), RecentNotifications)
	assert.Equal(t, 7, shell.Unread.Get())

	fx.backend.ResetCalls()
	require.NoError(t, shell.MarkAllRead(ctx))
	assert.Equal(t, []string{"PUT /api/notifications/mark-all-read"}, fx.backend.Calls())
	assert.Zero(t, shell.Unread.Get())
	assert.Zero(t, school.CountUnread(shell.Recent.Items()))
}

func TestStudents_JaneDoe(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()

	jane, err := NewAddStudent(fx.env).Submit(ctx, school.NewStudent{
		Name: "Jane Doe", RollNumber: "STU001", Class: "Grade 10", Age: 15, Gender: "Female", Email: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, success("Student added successfully!"), fx.toasts.Drain())

	students := NewStudents(fx.env)
	require.NoError(t, students.Mount(ctx, school.StudentFilter{}))
	got, ok := students.List.Find(func(s school.Student) bool { return s.ID == jane.ID })
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, school.StudentActive, got.Status)
}

func TestStudents(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	fx.backend.CreateStudents(t, "JSS 1", 2)
	jss2 := fx.backend.CreateStudents(t, "JSS 2", 1)

	students := NewStudents(fx.env)
	require.NoError(t, students.Mount(ctx, school.StudentFilter{}))
	assert.Equal(t, 3, students.List.Len())

	require.NoError(t, students.SetFilter(ctx, school.StudentFilter{Class: "JSS 2"}))
	assert.Equal(t, []school.Student{jss2[0]}, students.List.Items())

	// not confirmed
	fx.backend.ResetCalls()
	ran, err := students.Delete(ctx, page.Confirmed(false), jss2[0].ID)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Empty(t, fx.backend.Calls())

	ran, err = students.Delete(ctx, page.Confirmed(true), jss2[0].ID)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, success("Student deleted successfully"), fx.toasts.Drain())
	assert.Zero(t, students.List.Len(), "deleted student still listed")

	// failures
	ran, err = students.Delete(ctx, page.Confirmed(true), jss2[0].ID)
	assert.True(t, ran)
	assert.Error(t, err)
	assert.Equal(t, failure("Student not found"), fx.toasts.Drain())

	fx.backend.Fail(http.MethodGet, "/api/students", http.StatusInternalServerError, "boom")
	assert.Error(t, students.SetFilter(ctx, school.StudentFilter{}))
	assert.Equal(t, failure("Failed to load students"), fx.toasts.Drain())
}

func TestAddStudent_invalid(t *testing.T) {
	fx := setup(t, true)
	fx.backend.ResetCalls()

	_, err := NewAddStudent(fx.env).Submit(context.Background(), school.NewStudent{Name: "Jane Doe", RollNumber: "STU001"})
	vErr, ok := core.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, vErr.FieldMap(), "class")
	assert.Equal(t, failure("class is required"), fx.toasts.Drain())
	assert.Empty(t, fx.backend.Calls())
}

func TestStudentDetails(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	api := fx.backend.Client()
	st := fx.backend.CreateStudents(t, "JSS 1", 2)

	for _, m := range []float64{80, 65} {
		_, err := api.CreateGrade(ctx, school.NewGrade{StudentID: st[0].ID, Subject: "Maths", Marks: marks(m), Term: "First", AcademicYear: "2024/2025"})
		require.NoError(t, err)
	}
	for date, status := range map[string]string{"2024-09-02": school.Present, "2024-09-03": school.Absent} {
		_, err := api.MarkAttendance(ctx, school.NewAttendance{StudentID: st[0].ID, Date: date, Status: status})
		require.NoError(t, err)
	}
	_, err := api.MarkAttendance(ctx, school.NewAttendance{StudentID: st[1].ID, Date: "2024-09-02", Status: school.Late})
	require.NoError(t, err)

	details := NewStudentDetails(fx.env)
	require.NoError(t, details.Mount(ctx, st[0].ID))
	assert.Equal(t, st[0], details.Student.Get())
	assert.Equal(t, 72.5, AverageMarks(details.Grades.Items()))
	assert.Equal(t, AttendanceSummary{Present: 1, Absent: 1, Total: 2, Rate: 50}, SummarizeAttendance(details.Attendance.Items()))
	assert.Empty(t, details.Fees.Items())

	assert.Error(t, details.Mount(ctx, "missing"))
	assert.Equal(t, failure("Failed to load student details"), fx.toasts.Drain())
}

func TestGrades(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	st := fx.backend.CreateStudents(t, "JSS 1", 2)
	createGraduate(t, fx)

	grades := NewGrades(fx.env)
	require.NoError(t, grades.Mount(ctx))
	assert.Equal(t, 3, grades.Students.Len(), "graduates can be graded too")
	assert.Zero(t, grades.List.Len())

	// rejected before any request
	fx.backend.ResetCalls()
	for _, m := range []float64{-1, 100.5, 150, math.NaN(), math.Inf(1)} {
		assert.Error(t, grades.Add(ctx, school.NewGrade{StudentID: st[0].ID, Subject: "Maths", Marks: marks(m), Term: "First", AcademicYear: "2024/2025"}))
		assert.Equal(t, failure("marks must be between 0 and 100"), fx.toasts.Drain())
	}
	assert.Empty(t, fx.backend.Calls())

	require.NoError(t, grades.Add(ctx, school.NewGrade{StudentID: st[0].ID, Subject: "Maths", Marks: marks(100), Term: "First", AcademicYear: "2024/2025"}))
	require.NoError(t, grades.Add(ctx, school.NewGrade{StudentID: st[1].ID, Subject: "English", Marks: marks(0), Term: "First", AcademicYear: "2024/2025"}))
	assert.Equal(t, []page.Toast{
		{Kind: page.ToastSuccess, Message: "Grade added successfully!"},
		{Kind: page.ToastSuccess, Message: "Grade added successfully!"},
	}, fx.toasts.Drain())
	assert.Equal(t, 2, grades.List.Len())

	tests := []struct {
		term string
		want int
	}{{"", 2}, {"maths", 1}, {"student 2", 1}, {"history", 0}}
	for _, tt := range tests {
		assert.Len(t, grades.Search(tt.term), tt.want, tt.term)
	}
}

func TestAttendance_MarkAll(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	st := fx.backend.CreateStudents(t, "JSS 1", 4)
	fx.backend.RejectAttendance(st[2].ID)

	att := NewAttendance(fx.env)
	require.NoError(t, att.Mount(ctx, "2024-09-02"))
	assert.Equal(t, 4, att.Students.Len())

	fx.backend.ResetCalls()
	res := att.MarkAll(ctx, school.Present)
	assert.Equal(t, page.BulkResult{Total: 4, Failed: 1, Err: res.Err}, res)

	calls := fx.backend.Calls()
	assert.Equal(t, 4, countCalls(calls, "POST /api/attendance"))
	assert.Equal(t, 1, countCalls(calls, "GET /api/attendance"), "records not reloaded")
	assert.Equal(t, failure("Failed to mark bulk attendance"), fx.toasts.Drain())

	assert.Equal(t, 3, att.Records.Len())
	_, ok := att.StatusOf(st[2].ID)
	assert.False(t, ok)
	status, ok := att.StatusOf(st[0].ID)
	assert.True(t, ok)
	assert.Equal(t, school.Present, status)

	// an unknown status is rejected before any request
	fx.backend.ResetCalls()
	res = att.MarkAll(ctx, "bogus")
	assert.False(t, res.OK())
	_, ok = core.AsValidationError(res.Err)
	assert.True(t, ok)
	assert.Empty(t, fx.backend.Calls())
	assert.Equal(t, failure("status must be one of: present, absent, late, excused"), fx.toasts.Drain())

	fx.backend.Heal()
	res = att.MarkAll(ctx, school.Absent)
	assert.True(t, res.OK())
	assert.Equal(t, success("All students marked as absent!"), fx.toasts.Drain())
	assert.Equal(t, AttendanceSummary{Absent: 4, Total: 4}, att.Summary())
	for _, rec := range att.Records.Items() {
		assert.Equal(t, "Bulk marked as absent", rec.Remarks)
	}
}

func TestAttendance(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	st := fx.backend.CreateStudents(t, "JSS 1", 1)

	now := core.NowFunc
	core.NowFunc = func() time.Time { return time.Date(2024, time.September, 1, 23, 30, 0, 0, time.Local) }
	t.Cleanup(func() { core.NowFunc = now })

	att := NewAttendance(fx.env)
	require.NoError(t, att.Mount(ctx, ""))
	assert.Equal(t, "2024-09-01", att.Date())

	require.NoError(t, att.SetDate(ctx, "2024-09-02"))
	require.NoError(t, att.Mark(ctx, st[0].ID, school.Late, " bus "))
	assert.Equal(t, success("Attendance marked successfully!"), fx.toasts.Drain())
	rec, ok := att.Records.Find(func(r school.AttendanceRecord) bool { return r.Student.ID == st[0].ID })
	require.True(t, ok)
	assert.Equal(t, "bus", rec.Remarks)

	assert.Error(t, att.Mark(ctx, st[0].ID, "sleeping", ""))
	assert.Equal(t, failure("status must be one of: present, absent, late, excused"), fx.toasts.Drain())

	// the records load silently
	fx.backend.Fail(http.MethodGet, "/api/attendance", http.StatusInternalServerError, "boom")
	assert.Error(t, att.SetDate(ctx, "2024-09-03"))
	assert.Empty(t, fx.toasts.Drain())
	assert.Equal(t, 1, att.Records.Len(), "prior records kept")
}

func TestFees(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	st := fx.backend.CreateStudents(t, "JSS 1", 1)
	createGraduate(t, fx)

	fees := NewFees(fx.env)
	require.NoError(t, fees.Mount(ctx))
	assert.Equal(t, 2, fees.Students.Len())

	assert.Error(t, fees.Record(ctx, school.NewFee{StudentID: st[0].ID, Amount: 0, PaymentMethod: school.PaymentCash, Term: "First", AcademicYear: "2024/2025"}))
	fx.toasts.Drain()

	require.NoError(t, fees.Record(ctx, school.NewFee{StudentID: st[0].ID, Amount: 5000, PaymentMethod: school.PaymentCash, Term: "First", AcademicYear: "2024/2025"}))
	require.NoError(t, fees.Record(ctx, school.NewFee{StudentID: st[0].ID, Amount: 1500, PaymentMethod: school.PaymentOnline, Term: "First", AcademicYear: "2024/2025", Status: school.FeePending}))
	assert.Equal(t, []page.Toast{
		{Kind: page.ToastSuccess, Message: "Fee payment recorded successfully"},
		{Kind: page.ToastSuccess, Message: "Fee payment recorded successfully"},
	}, fx.toasts.Drain())

	assert.Equal(t, school.FeeTotals{Paid: 5000, Pending: 1500}, fees.Totals())
	assert.Len(t, fees.Filtered(school.FeeFilter{Status: school.FeePending}), 1)
	assert.Len(t, fees.Filtered(school.FeeFilter{Search: "rcp-00001"}), 1)
	assert.Len(t, fees.Filtered(school.FeeFilter{Search: "student 1", Status: school.TabAll}), 2)
}

func TestNotifications(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	fx.backend.Notify("One", "first", school.NotificationInfo)
	fx.backend.Notify("Two", "second", school.NotificationWarning)
	fx.backend.Notify("Three", "third", school.NotificationError)

	ns := NewNotifications(fx.env)
	require.NoError(t, ns.Mount(ctx))
	items := ns.List.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 3, ns.Unread())

	fx.backend.ResetCalls()
	require.NoError(t, ns.MarkRead(ctx, items[0].ID))
	assert.Equal(t, 2, ns.Unread())
	assert.Len(t, ns.Tab(school.TabRead), 1)
	assert.Len(t, ns.Tab(school.TabUnread), 2)

	require.NoError(t, ns.Delete(ctx, items[1].ID))
	assert.Len(t, ns.Tab(school.TabAll), 2)
	assert.Equal(t, 1, ns.Unread())

	require.NoError(t, ns.MarkAllRead(ctx))
	assert.Zero(t, ns.Unread())

	assert.False(t, hasPrefixCall(fx.backend.Calls(), "GET "), "notifications refetched")
	assert.Equal(t, []page.Toast{
		{Kind: page.ToastSuccess, Message: "Notification marked as read"},
		{Kind: page.ToastSuccess, Message: "Notification deleted"},
		{Kind: page.ToastSuccess, Message: "All notifications marked as read"},
	}, fx.toasts.Drain())

	// a failed mutation leaves the list untouched
	assert.Error(t, ns.Delete(ctx, items[1].ID))
	assert.Equal(t, failure("Notification not found"), fx.toasts.Drain())
	assert.Len(t, ns.List.Items(), 2)
}

func TestDashboard(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	api := fx.backend.Client()
	st := fx.backend.CreateStudents(t, "JSS 1", 4)

	_, err := api.MarkAttendance(ctx, school.NewAttendance{StudentID: st[0].ID, Date: Today(), Status: school.Present})
	require.NoError(t, err)
	_, err = api.CreateFee(ctx, school.NewFee{StudentID: st[0].ID, Amount: 750, PaymentMethod: school.PaymentCash, Term: "First", AcademicYear: "2024/2025"})
	require.NoError(t, err)
	_, err = api.CreateFee(ctx, school.NewFee{StudentID: st[1].ID, Amount: 250, PaymentMethod: school.PaymentCash, Term: "First", AcademicYear: "2024/2025", Status: school.FeeOverdue})
	require.NoError(t, err)

	dash := NewDashboard(fx.env)
	require.NoError(t, dash.Mount(ctx))
	assert.Equal(t, 4, dash.Stats.Get().TotalStudents)
	assert.Equal(t, 75.0, dash.FeeCollectionRate())
	assert.Equal(t, 25.0, dash.AttendanceRate())
	assert.NotEmpty(t, dash.Activities.Items())

	fx.backend.Fail(http.MethodGet, "/api/stats/dashboard", http.StatusInternalServerError, "boom")
	assert.Error(t, dash.Mount(ctx))
	assert.Equal(t, failure("Failed to load dashboard statistics"), fx.toasts.Drain())
	assert.Equal(t, 4, dash.Stats.Get().TotalStudents, "prior stats kept")
}

func TestReports(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	api := fx.backend.Client()
	jss1 := fx.backend.CreateStudents(t, "JSS 1", 3)
	fx.backend.CreateStudents(t, "JSS 2", 1)
	for i, m := range []float64{90, 75} {
		_, err := api.CreateGrade(ctx, school.NewGrade{StudentID: jss1[i].ID, Subject: "Maths", Marks: marks(m), Term: "First", AcademicYear: "2024/2025"})
		require.NoError(t, err)
	}

	reports := NewReports(fx.env)
	require.NoError(t, reports.Mount(ctx))
	data := reports.Data.Get()
	shares, total := data.ClassShares()
	assert.Equal(t, 4, total)
	assert.Equal(t, []float64{75, 25}, []float64{shares[0].Percent, shares[1].Percent})
	assert.Equal(t, 82.5, data.TopAverage())
	assert.Equal(t, 4, data.Stats.TotalStudents)

	exported, err := reports.Export("XLSX")
	require.NoError(t, err)
	assert.Equal(t, data, exported)
	assert.Equal(t, success("Exporting XLSX report..."), fx.toasts.Drain())
	_, err = reports.Export("pdf")
	assert.ErrorIs(t, err, ErrExportFormat)
	fx.toasts.Drain()

	// one toast for the whole page
	fx.backend.Fail(http.MethodGet, "/api/reports/top-performers", http.StatusInternalServerError, "boom")
	assert.Error(t, reports.Mount(ctx))
	assert.Equal(t, failure("Failed to load reports"), fx.toasts.Drain())
}

func TestProfile(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	profile := NewProfile(fx.env, fx.session)

	require.NoError(t, profile.Update(ctx, user.ProfileUpdate{FullName: "Ada Lovelace", Email: "Ada@School.test"}))
	assert.Equal(t, success("Profile updated successfully!"), fx.toasts.Drain())
	usr := profile.User()
	assert.Equal(t, "Ada Lovelace", usr.FullName)
	assert.Equal(t, "ada@school.test", usr.Email)
	assert.Equal(t, fx.backend.Admin.ID, usr.ID)

	tests := []struct {
		name string
		chg  user.PasswordChange
		want string
	}{
		{"mismatch", user.PasswordChange{CurrentPassword: testutil.AdminPassword, NewPassword: "n3w-pass-word", ConfirmPassword: "other"}, "passwords do not match"},
		{"too similar", user.PasswordChange{CurrentPassword: testutil.AdminPassword, NewPassword: "adalovelace", ConfirmPassword: "adalovelace"}, "password cannot be similar to your name or email"},
		{"wrong current", user.PasswordChange{CurrentPassword: "nope", NewPassword: "n3w-pass-word", ConfirmPassword: "n3w-pass-word"}, "Current password is incorrect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, profile.ChangePassword(ctx, tt.chg))
			assert.Equal(t, failure(tt.want), fx.toasts.Drain())
		})
	}

	require.NoError(t, profile.ChangePassword(ctx, user.PasswordChange{
		CurrentPassword: testutil.AdminPassword, NewPassword: "n3w-pass-word", ConfirmPassword: "n3w-pass-word",
	}))
	assert.Equal(t, success("Password changed successfully!"), fx.toasts.Drain())
}

func TestHelp(t *testing.T) {
	fx := setup(t, true)
	mailer := emailsvc.NewConsoleServiceMock(&core.Config{AppName: "Masomo", DefaultFromEmail: "noreply@school.test"})
	support := (&core.Config{AppName: "Masomo", SupportEmail: "support@school.test"}).SupportAddress()
	help, err := NewHelp(fx.env, fx.session, mailer, support)
	require.NoError(t, err)

	all := help.Search("")
	require.Len(t, all, 8)
	assert.Equal(t, "How do I add a new student?", all[0].Question)
	assert.Contains(t, string(all[0].AnswerHTML), "<strong>Students</strong>")

	found := help.Search("PASSWORD")
	require.Len(t, found, 1)
	assert.Equal(t, "How do I change my password?", found[0].Question)
	assert.Len(t, help.Search("bulk actions"), 1, "answers are searched")
	assert.Empty(t, help.Search("timetable"))

	assert.Error(t, help.Contact(context.Background(), SupportRequest{Subject: "Help"}))
	assert.Equal(t, failure("message is required"), fx.toasts.Drain())
	assert.Empty(t, mailer.Sent())

	require.NoError(t, help.Contact(context.Background(), SupportRequest{Subject: " Cannot export ", Message: "The export button does nothing."}))
	assert.Equal(t, success("Message sent! Our support team will get back to you soon."), fx.toasts.Drain())
	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "[Support] Cannot export", sent[0].Subject)
	assert.Equal(t, testutil.AdminEmail, sent[0].ReplyTo.Address)
	assert.Equal(t, "support@school.test", sent[0].To[0].Address)
}
