// Package pages implements the pages of the admin client over the school backend:
// what each page loads, how it filters, what its forms submit and what they toast.
// Rendering is left to the frontends (console, cli).
package pages

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
)

// Backend is the school management REST backend.
type Backend interface {
	Login(ctx context.Context, creds user.Credentials) (user.AuthResponse, error)
	Register(ctx context.Context, reg user.Registration) (user.AuthResponse, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd user.ProfileUpdate) (user.Profile, error)
	ChangePassword(ctx context.Context, chg user.PasswordChange) error

	Students(ctx context.Context, filter school.StudentFilter) ([]school.Student, error)
	Student(ctx context.Context, id string) (school.Student, error)
	CreateStudent(ctx context.Context, s school.NewStudent) (school.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	Grades(ctx context.Context) ([]school.GradeRecord, error)
	StudentGrades(ctx context.Context, studentID string) ([]school.GradeRecord, error)
	CreateGrade(ctx context.Context, g school.NewGrade) (school.GradeRecord, error)

	Attendance(ctx context.Context, date string) ([]school.AttendanceRecord, error)
	StudentAttendance(ctx context.Context, studentID string) ([]school.AttendanceRecord, error)
	MarkAttendance(ctx context.Context, a school.NewAttendance) (school.AttendanceRecord, error)

	Fees(ctx context.Context) ([]school.FeeRecord, error)
	StudentFees(ctx context.Context, studentID string) ([]school.FeeRecord, error)
	CreateFee(ctx context.Context, f school.NewFee) (school.FeeRecord, error)

	Notifications(ctx context.Context, limit int) ([]school.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error

	DashboardStats(ctx context.Context) (school.DashboardStats, error)
	RecentActivities(ctx context.Context) ([]school.Activity, error)
	ClassDistribution(ctx context.Context) ([]school.ClassCount, error)
	TopPerformers(ctx context.Context) ([]school.TopPerformer, error)
}

// Env is what every page needs.
type Env struct {
	API        Backend
	Toaster    page.Toaster
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
}

// validator returns the validation of data, run before any submission.
func (e Env) validator(data interface{}) func() error {
	return func() error {
		if err := e.Validate.Struct(data); err != nil {
			return core.ValidationErrorFrom(err, e.Translator)
		}
		return nil
	}
}

// base is embedded by every page.
type base struct {
	env Env
	lc  page.Lifecycle
}

// mount mounts the page; it stays mounted past ctx, until Unmount.
func (b *base) mount(ctx context.Context) {
	b.lc.Mount(context.WithoutCancel(ctx))
}

// Unmount discards the results of loads still in flight.
func (b *base) Unmount() { b.lc.Unmount() }

func (b *base) Mounted() bool { return b.lc.Mounted() }
