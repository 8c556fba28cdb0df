package schoolapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
)

func pathID(prefix, id string) string {
	return prefix + url.PathEscape(id)
}

// Auth

func (c *Client) Login(ctx context.Context, creds user.Credentials) (user.AuthResponse, error) {
	var res user.AuthResponse
	err := c.post(ctx, "/login", "/login", creds, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, reg user.Registration) (user.AuthResponse, error) {
	var res user.AuthResponse
	err := c.post(ctx, "/register", "/register", reg, &res)
	return res, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/logout", "/logout", nil, nil)
}

// Users

// UpdateProfile returns the updated profile as sent back by the backend.
func (c *Client) UpdateProfile(ctx context.Context, upd user.ProfileUpdate) (user.Profile, error) {
	var res user.ProfileResponse
	err := c.put(ctx, "/api/users/profile", "/api/users/profile", upd, &res)
	return res.User, err
}

func (c *Client) ChangePassword(ctx context.Context, chg user.PasswordChange) error {
	return c.put(ctx, "/api/users/change-password", "/api/users/change-password", chg, nil)
}

// Students

func (c *Client) Students(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	var res []school.Student
	err := c.get(ctx, "/api/students", "/api/students", filter.Params(), &res)
	return res, err
}

func (c *Client) Student(ctx context.Context, id string) (school.Student, error) {
	var res school.Student
	err := c.get(ctx, "/api/students/:id", pathID("/api/students/", id), nil, &res)
	return res, err
}

func (c *Client) CreateStudent(ctx context.Context, s school.NewStudent) (school.Student, error) {
	var res school.Student
	err := c.post(ctx, "/api/students", "/api/students", s, &res)
	return res, err
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/students/:id", pathID("/api/students/", id))
}

// Grades

func (c *Client) Grades(ctx context.Context) ([]school.GradeRecord, error) {
	var res []school.GradeRecord
	err := c.get(ctx, "/api/grades/all", "/api/grades/all", nil, &res)
	return res, err
}

func (c *Client) StudentGrades(ctx context.Context, studentID string) ([]school.GradeRecord, error) {
	var res []school.GradeRecord
	err := c.get(ctx, "/api/grades/student/:id", pathID("/api/grades/student/", studentID), nil, &res)
	return res, err
}

func (c *Client) CreateGrade(ctx context.Context, g school.NewGrade) (school.GradeRecord, error) {
	var res school.GradeRecord
	err := c.post(ctx, "/api/grades", "/api/grades", g, &res)
	return res, err
}

// Attendance

// Attendance lists the records of date (YYYY-MM-DD); all records when date is empty.
func (c *Client) Attendance(ctx context.Context, date string) ([]school.AttendanceRecord, error) {
	var params map[string]string
	if date != "" {
		params = map[string]string{"date": date}
	}
	var res []school.AttendanceRecord
	err := c.get(ctx, "/api/attendance", "/api/attendance", params, &res)
	return res, err
}

func (c *Client) StudentAttendance(ctx context.Context, studentID string) ([]school.AttendanceRecord, error) {
	var res []school.AttendanceRecord
	err := c.get(ctx, "/api/attendance/student/:id", pathID("/api/attendance/student/", studentID), nil, &res)
	return res, err
}

func (c *Client) MarkAttendance(ctx context.Context, a school.NewAttendance) (school.AttendanceRecord, error) {
	var res school.AttendanceRecord
	err := c.post(ctx, "/api/attendance", "/api/attendance", a, &res)
	return res, err
}

// Fees

func (c *Client) Fees(ctx context.Context) ([]school.FeeRecord, error) {
	var res []school.FeeRecord
	err := c.get(ctx, "/api/fees", "/api/fees", nil, &res)
	return res, err
}

func (c *Client) StudentFees(ctx context.Context, studentID string) ([]school.FeeRecord, error) {
	var res []school.FeeRecord
	err := c.get(ctx, "/api/fees/student/:id", pathID("/api/fees/student/", studentID), nil, &res)
	return res, err
}

func (c *Client) CreateFee(ctx context.Context, f school.NewFee) (school.FeeRecord, error) {
	var res school.FeeRecord
	err := c.post(ctx, "/api/fees", "/api/fees", f, &res)
	return res, err
}

// Notifications

// Notifications lists the latest notifications; all of them when limit <= 0.
func (c *Client) Notifications(ctx context.Context, limit int) ([]school.Notification, error) {
	var params map[string]string
	if limit > 0 {
		params = map[string]string{"limit": strconv.Itoa(limit)}
	}
	var res []school.Notification
	err := c.get(ctx, "/api/notifications", "/api/notifications", params, &res)
	return res, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var res school.UnreadCount
	err := c.get(ctx, "/api/notifications/unread-count", "/api/notifications/unread-count", nil, &res)
	return res.Count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.put(ctx, "/api/notifications/:id/read", "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.put(ctx, "/api/notifications/mark-all-read", "/api/notifications/mark-all-read", nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/notifications/:id", pathID("/api/notifications/", id))
}

// Aggregates

func (c *Client) DashboardStats(ctx context.Context) (school.DashboardStats, error) {
	var res school.DashboardStats
	err := c.get(ctx, "/api/stats/dashboard", "/api/stats/dashboard", nil, &res)
	return res, err
}

func (c *Client) RecentActivities(ctx context.Context) ([]school.Activity, error) {
	var res []school.Activity
	err := c.get(ctx, "/api/activities/recent", "/api/activities/recent", nil, &res)
	return res, err
}

func (c *Client) ClassDistribution(ctx context.Context) ([]school.ClassCount, error) {
	var res []school.ClassCount
	err := c.get(ctx, "/api/reports/class-distribution", "/api/reports/class-distribution", nil, &res)
	return res, err
}

func (c *Client) TopPerformers(ctx context.Context) ([]school.TopPerformer, error) {
	var res []school.TopPerformer
	err := c.get(ctx, "/api/reports/top-performers", "/api/reports/top-performers", nil, &res)
	return res, err
}
