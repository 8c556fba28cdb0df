package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/services/schoolapi"
	filestore "github.com/trezcool/masomo-console/storage/file"
	testutil "github.com/trezcool/masomo-console/tests"
)

type fixture struct {
	cli     *commandLine
	out     *bytes.Buffer
	backend *testutil.Backend
	path    string // session file
}

func setup(t *testing.T, login bool) *fixture {
	t.Helper()
	ctx := context.Background()
	backend := testutil.StartBackend(t)
	logger := new(testutil.Logger)

	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewStore(filestore.New(path), logger)
	require.NoError(t, store.Restore(ctx))
	if login {
		require.NoError(t, store.Login(ctx, backend.Token, backend.Admin))
	}

	validate, translator := testutil.NewValidator()
	out := new(bytes.Buffer)
	return &fixture{
		cli: &commandLine{
			ctx: ctx,
			env: pages.Env{
				API:        schoolapi.New(backend.URL, schoolapi.TokenFunc(store.Token)),
				Toaster:    printToaster{out: out},
				Validate:   validate,
				Translator: translator,
				Logger:     logger,
			},
			session: store,
			out:     out,
		},
		out:     out,
		backend: backend,
		path:    path,
	}
}

func (fx *fixture) run(args ...string) error {
	fx.out.Reset()
	return fx.cli.run(append([]string{"masomo"}, args...))
}

// restored reads the session file back, as the next invocation would.
func (fx *fixture) restored(t *testing.T) *session.Store {
	t.Helper()
	store := session.NewStore(filestore.New(fx.path), new(testutil.Logger))
	require.NoError(t, store.Restore(context.Background()))
	return store
}

func (fx *fixture) countCalls(call string) int {
	var n int
	for _, c := range fx.backend.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// passwords makes the password prompts answer pwds, in order.
func passwords(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

func answer(t *testing.T, yes bool) {
	orig := confirmFunc
	t.Cleanup(func() { confirmFunc = orig })
	confirmFunc = func(io.Writer, string) bool { return yes }
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, fx *fixture) {
	t.Helper()
	err := fx.run(tt.args...)
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
	if tt.wantOut != "" {
		assert.Contains(t, fx.out.String(), tt.wantOut)
	}
}

func Test_commandLine_loggedOut(t *testing.T) {
	fx := setup(t, false)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "whoami", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "dashboard", args: []string{"dashboard"}, wantErr: errNotLoggedIn},
		{name: "students", args: []string{"students"}, wantErr: errNotLoggedIn},
		{name: "add student", args: []string{"students", "add", "-name", "Jane"}, wantErr: errNotLoggedIn},
		{name: "grades", args: []string{"grades"}, wantErr: errNotLoggedIn},
		{name: "attendance", args: []string{"attendance"}, wantErr: errNotLoggedIn},
		{name: "fees", args: []string{"fees"}, wantErr: errNotLoggedIn},
		{name: "notifications", args: []string{"notifications"}, wantErr: errNotLoggedIn},
		{name: "reports", args: []string{"reports"}, wantErr: errNotLoggedIn},
		{name: "profile", args: []string{"profile"}, wantErr: errNotLoggedIn},
		{name: "logout", args: []string{"logout"}, wantOut: "Not logged in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx)
		})
	}
	assert.Empty(t, fx.backend.Calls())
}

func Test_commandLine_login(t *testing.T) {
	fx := setup(t, false)

	t.Run("no args", func(t *testing.T) {
		cliTest{args: []string{"login"}, wantErr: errHelp}.check(t, fx)
	})
	t.Run("no password", func(t *testing.T) {
		passwords(t)
		cliTest{args: []string{"login", "-email", testutil.AdminEmail}, wantErr: errHelp}.check(t, fx)
	})
	t.Run("invalid email", func(t *testing.T) {
		passwords(t, "pwd")
		cliTest{args: []string{"login", "-email", "lol"}, wantErr: errFailed, wantOut: "email must be a valid email address"}.check(t, fx)
		assert.Empty(t, fx.backend.Calls())
	})
	t.Run("wrong password", func(t *testing.T) {
		passwords(t, "wrong")
		cliTest{args: []string{"login", "-email", testutil.AdminEmail}, wantErr: errFailed, wantOut: "✘ Invalid credentials"}.check(t, fx)
		assert.False(t, fx.cli.session.Active())
	})
	t.Run("success", func(t *testing.T) {
		passwords(t, testutil.AdminPassword)
		cliTest{args: []string{"login", "-email", testutil.AdminEmail}, wantOut: "✔ Login successful!"}.check(t, fx)
		assert.Contains(t, fx.out.String(), testutil.AdminName+" <"+testutil.AdminEmail+"> (admin)")

		// the next invocation is logged in
		usr, ok := fx.restored(t).User()
		require.True(t, ok)
		assert.Equal(t, testutil.AdminEmail, usr.Email)
	})
	t.Run("already logged in", func(t *testing.T) {
		fx.backend.ResetCalls()
		cliTest{args: []string{"login", "-email", testutil.AdminEmail}, wantOut: "Already logged in as " + testutil.AdminName}.check(t, fx)
		assert.Empty(t, fx.backend.Calls())
	})
}

func Test_commandLine_register(t *testing.T) {
	fx := setup(t, false)
	args := []string{"register", "-name", "Grace Teacher", "-email", "grace@school.test"}

	t.Run("no args", func(t *testing.T) {
		cliTest{args: []string{"register"}, wantErr: errHelp}.check(t, fx)
	})
	t.Run("passwords do not match", func(t *testing.T) {
		passwords(t, "Zebra-Quartz-91", "Zebra-Quartz-19")
		cliTest{args: args, wantErr: errFailed}.check(t, fx)
		assert.Zero(t, fx.countCalls("POST /register"))
	})
	t.Run("success", func(t *testing.T) {
		passwords(t, "Zebra-Quartz-91", "Zebra-Quartz-91")
		cliTest{args: args, wantOut: "✔ Registration successful!"}.check(t, fx)
		assert.Contains(t, fx.out.String(), "Grace Teacher <grace@school.test> (teacher)")
		assert.True(t, fx.restored(t).Active())
	})
}

func Test_commandLine_logout(t *testing.T) {
	fx := setup(t, true)
	fx.backend.Fail(http.MethodPost, "/logout", http.StatusBadGateway, "down")

	cliTest{args: []string{"logout"}, wantOut: "✔ Logged out successfully"}.check(t, fx)
	assert.Equal(t, 1, fx.countCalls("POST /logout"))
	assert.False(t, fx.cli.session.Active())
	assert.False(t, fx.restored(t).Active())
	_, err := os.Stat(fx.path)
	assert.True(t, os.IsNotExist(err), "session file should be removed")

	cliTest{args: []string{"students"}, wantErr: errNotLoggedIn}.check(t, fx)
}

func Test_commandLine_whoami(t *testing.T) {
	fx := setup(t, true)
	cliTest{args: []string{"whoami"}, wantOut: testutil.AdminName + " <" + testutil.AdminEmail + "> (admin)"}.check(t, fx)
}

func Test_commandLine_students(t *testing.T) {
	fx := setup(t, true)
	ctx := context.Background()
	jane := []string{
		"students", "add",
		"-name", "Jane Doe", "-roll", "STU001", "-class", "Grade 10", "-age", "15",
		"-gender", "Female", "-email", "jane@school.test",
	}

	t.Run("invalid", func(t *testing.T) {
		cliTest{args: []string{"students", "add", "-name", "Jane"}, wantErr: errFailed, wantOut: "rollNumber is required"}.check(t, fx)
		assert.Zero(t, fx.countCalls("POST /api/students"))
	})
	t.Run("add", func(t *testing.T) {
		cliTest{args: jane, wantOut: "✔ Student added successfully!"}.check(t, fx)
		assert.Equal(t, 1, fx.countCalls("POST /api/students"))
	})

	students, err := fx.backend.Client().Students(ctx, school.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	id := students[0].ID

	tests := []cliTest{
		{name: "list", args: []string{"students"}, wantOut: "Jane Doe"},
		{name: "filtered by class", args: []string{"students", "-class", "Grade 10"}, wantOut: "STU001"},
		{name: "no match", args: []string{"students", "-search", "nobody"}, wantOut: "No students found"},
		{name: "show", args: []string{"students", "show", "-id", id}, wantOut: "Grades (average 0.0)"},
		{name: "show without id", args: []string{"students", "show"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"students", "lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx)
		})
	}

	t.Run("delete cancelled", func(t *testing.T) {
		answer(t, false)
		cliTest{args: []string{"students", "delete", "-id", id}, wantOut: "Cancelled"}.check(t, fx)
		assert.Zero(t, fx.countCalls("DELETE /api/students/"+id))
	})
	t.Run("delete", func(t *testing.T) {
		cliTest{args: []string{"students", "delete", "-id", id, "-yes"}, wantOut: "✔ Student deleted successfully"}.check(t, fx)
		assert.Equal(t, 1, fx.countCalls("DELETE /api/students/"+id))
		cliTest{args: []string{"students"}, wantOut: "No students found"}.check(t, fx)
	})
}

func Test_commandLine_grades(t *testing.T) {
	fx := setup(t, true)
	st := fx.backend.CreateStudents(t, "Grade 7", 1)
	grade := func(marks string) []string {
		return []string{"grades", "add", "-student", st[0].ID, "-subject", "Mathematics", "-marks", marks, "-year", "2024/2025"}
	}

	tests := []cliTest{
		{name: "marks out of range", args: grade("120"), wantErr: errFailed},
		{name: "marks not a number", args: grade("lol"), wantErrStr: `invalid marks "lol"`},
		{name: "bad academic year", args: []string{"grades", "add", "-student", st[0].ID, "-subject", "Art", "-marks", "50", "-year", "2024"}, wantErr: errFailed, wantOut: "academic_year must be formatted as YYYY/YYYY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx)
		})
	}
	assert.Zero(t, fx.countCalls("POST /api/grades"))

	t.Run("add", func(t *testing.T) {
		cliTest{args: grade("88"), wantOut: "✔ Grade added successfully!"}.check(t, fx)
		assert.Equal(t, 1, fx.countCalls("POST /api/grades"))
	})
	t.Run("list", func(t *testing.T) {
		cliTest{args: []string{"grades"}, wantOut: "Mathematics"}.check(t, fx)
		assert.Contains(t, fx.out.String(), "Student 1")
	})
	t.Run("search", func(t *testing.T) {
		cliTest{args: []string{"grades", "-search", "physics"}, wantOut: "No grades found"}.check(t, fx)
	})
}

func Test_commandLine_attendance(t *testing.T) {
	fx := setup(t, true)
	st := fx.backend.CreateStudents(t, "Grade 8", 3)
	fx.backend.RejectAttendance(st[2].ID)
	fx.backend.ResetCalls()

	t.Run("mark all, one rejected", func(t *testing.T) {
		cliTest{
			args:    []string{"attendance", "mark-all", "-status", school.Present, "-date", "2024-05-06"},
			wantErr: errFailed,
			wantOut: "1 of 3 students could not be marked",
		}.check(t, fx)
		assert.Contains(t, fx.out.String(), "✘ Failed to mark bulk attendance")
		assert.Equal(t, 3, fx.countCalls("POST /api/attendance"))
	})
	t.Run("list", func(t *testing.T) {
		cliTest{args: []string{"attendance", "-date", "2024-05-06"}, wantOut: "2024-05-06: 2 present, 0 absent"}.check(t, fx)
	})
	t.Run("mark without status", func(t *testing.T) {
		cliTest{args: []string{"attendance", "mark", "-student", st[2].ID}, wantErr: errHelp}.check(t, fx)
	})
	t.Run("mark", func(t *testing.T) {
		fx.backend.Heal()
		cliTest{
			args:    []string{"attendance", "mark", "-student", st[2].ID, "-status", school.Late, "-date", "2024-05-06"},
			wantOut: "✔ Attendance marked successfully!",
		}.check(t, fx)
		cliTest{args: []string{"attendance", "-date", "2024-05-06"}, wantOut: "2 present, 0 absent, 1 late"}.check(t, fx)
	})
	t.Run("mark all, unknown status", func(t *testing.T) {
		posted := fx.countCalls("POST /api/attendance")
		cliTest{
			args:    []string{"attendance", "mark-all", "-status", "holiday", "-date", "2024-05-06"},
			wantErr: errFailed,
			wantOut: "  - status must be one of: present, absent, late, excused",
		}.check(t, fx)
		assert.Equal(t, posted, fx.countCalls("POST /api/attendance"))
	})
}

func Test_commandLine_fees(t *testing.T) {
	fx := setup(t, true)
	st := fx.backend.CreateStudents(t, "Grade 9", 1)
	fee := func(amount string) []string {
		return []string{"fees", "record", "-student", st[0].ID, "-amount", amount, "-year", "2024/2025", "-receipt", "RCP-1"}
	}

	t.Run("negative amount", func(t *testing.T) {
		cliTest{args: fee("-5"), wantErr: errFailed, wantOut: "amount must be greater than 0"}.check(t, fx)
		assert.Zero(t, fx.countCalls("POST /api/fees"))
	})
	t.Run("record", func(t *testing.T) {
		cliTest{args: fee("150"), wantOut: "✔ Fee payment recorded successfully"}.check(t, fx)
	})
	t.Run("list", func(t *testing.T) {
		cliTest{args: []string{"fees"}, wantOut: "Paid $150.00, pending $0.00, overdue $0.00"}.check(t, fx)
		assert.Contains(t, fx.out.String(), "RCP-1")
	})
	t.Run("search", func(t *testing.T) {
		cliTest{args: []string{"fees", "-search", "nobody"}}.check(t, fx)
		assert.NotContains(t, fx.out.String(), "RCP-1")
	})
}

func Test_commandLine_notifications(t *testing.T) {
	fx := setup(t, true)
	fx.backend.Notify("One", "first", school.NotificationInfo)
	fx.backend.Notify("Two", "second", school.NotificationWarning)
	ns, err := fx.backend.Client().Notifications(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, ns, 2)

	tests := []cliTest{
		{name: "list", args: []string{"notifications"}, wantOut: "2 notifications, 2 unread"},
		{name: "read", args: []string{"notifications", "read", "-id", ns[0].ID}, wantOut: "1 unread"},
		{name: "read tab", args: []string{"notifications", "-tab", school.TabRead}, wantOut: "1 notifications, 1 unread"},
		{name: "read without id", args: []string{"notifications", "read"}, wantErr: errHelp},
		{name: "read all", args: []string{"notifications", "read-all"}, wantOut: "✔ All notifications marked as read"},
		{name: "unread tab", args: []string{"notifications", "-tab", school.TabUnread}, wantOut: "0 notifications, 0 unread"},
		{name: "delete", args: []string{"notifications", "delete", "-id", ns[1].ID}, wantOut: "0 unread"},
		{name: "after delete", args: []string{"notifications"}, wantOut: "1 notifications, 0 unread"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx)
		})
	}
}

func Test_commandLine_dashboard(t *testing.T) {
	fx := setup(t, true)
	fx.backend.CreateStudents(t, "Grade 7", 2)

	cliTest{args: []string{"dashboard"}, wantOut: "Total students"}.check(t, fx)
	assert.Regexp(t, regexp.MustCompile(`Total students\s+2\n`), fx.out.String())
}

func Test_commandLine_reports(t *testing.T) {
	fx := setup(t, true)
	fx.backend.CreateStudents(t, "Grade 7", 2)
	dir := t.TempDir()

	t.Run("show", func(t *testing.T) {
		cliTest{args: []string{"reports"}, wantOut: "Class distribution (2 students)"}.check(t, fx)
		assert.Contains(t, fx.out.String(), "Grade 7")
	})
	t.Run("export csv", func(t *testing.T) {
		path := filepath.Join(dir, "report.csv")
		cliTest{args: []string{"reports", "-export", "CSV", "-o", path}, wantOut: "Saved " + path}.check(t, fx)
		assert.Contains(t, fx.out.String(), "✔ Exporting CSV report...")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Total students")
	})
	t.Run("unsupported format", func(t *testing.T) {
		cliTest{args: []string{"reports", "-export", "pdf"}, wantErr: errFailed, wantOut: "✘ Unsupported export format: pdf"}.check(t, fx)
	})
}

func Test_commandLine_profile(t *testing.T) {
	fx := setup(t, true)

	t.Run("show", func(t *testing.T) {
		cliTest{args: []string{"profile"}, wantOut: testutil.AdminEmail}.check(t, fx)
	})
	t.Run("update", func(t *testing.T) {
		cliTest{args: []string{"profile", "update", "-name", "Grace Hopper"}, wantOut: "✔ Profile updated successfully!"}.check(t, fx)
		assert.Contains(t, fx.out.String(), "Grace Hopper <"+testutil.AdminEmail+">")

		usr, ok := fx.restored(t).User()
		require.True(t, ok)
		assert.Equal(t, "Grace Hopper", usr.FullName)
	})
	t.Run("password mismatch", func(t *testing.T) {
		passwords(t, testutil.AdminPassword, "Zebra-Quartz-91", "Zebra-Quartz-19")
		cliTest{args: []string{"profile", "password"}, wantErr: errFailed}.check(t, fx)
		assert.Zero(t, fx.countCalls("PUT /api/users/change-password"))
	})
	t.Run("change password", func(t *testing.T) {
		passwords(t, testutil.AdminPassword, "Zebra-Quartz-91", "Zebra-Quartz-91")
		cliTest{args: []string{"profile", "password"}, wantOut: "✔ Password changed successfully!"}.check(t, fx)
	})
}
