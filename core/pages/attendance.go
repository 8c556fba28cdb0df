package pages

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

// Attendance shows the attendance of the active students on one date.
type Attendance struct {
	base
	Students *page.List[school.Student]
	Records  *page.List[school.AttendanceRecord]

	mu   sync.Mutex
	date string
}

func NewAttendance(env Env) *Attendance {
	a := &Attendance{base: base{env: env}}
	a.Students = page.NewList(&a.lc, env.Toaster, page.Refetch, "Failed to load students", activeStudents(env.API))
	a.Records = page.NewList(&a.lc, env.Toaster, page.Refetch, "", func(ctx context.Context) ([]school.AttendanceRecord, error) {
		return env.API.Attendance(ctx, a.Date())
	})
	return a
}

// Today is the default date of the page.
func Today() string {
	return core.NowFunc().Format(core.DateLayout)
}

// Mount loads the page for date; today when empty.
func (a *Attendance) Mount(ctx context.Context, date string) error {
	a.mount(ctx)
	return a.SetDate(ctx, date)
}

// SetDate changes the selected date and reloads the page.
func (a *Attendance) SetDate(ctx context.Context, date string) error {
	if date == "" {
		date = Today()
	}
	a.mu.Lock()
	a.date = date
	a.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { return a.Students.Load(ctx) })
	g.Go(func() error { return a.Records.Load(ctx) })
	return g.Wait()
}

func (a *Attendance) Date() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.date
}

// StatusOf returns the status recorded for the student on the selected date.
func (a *Attendance) StatusOf(studentID string) (string, bool) {
	rec, ok := a.Records.Find(func(r school.AttendanceRecord) bool { return r.Student.ID == studentID })
	return rec.Status, ok
}

// Mark records the attendance of one student on the selected date.
func (a *Attendance) Mark(ctx context.Context, studentID, status, remarks string) error {
	na := school.NewAttendance{StudentID: studentID, Date: a.Date(), Status: status, Remarks: core.CleanString(remarks)}
	return a.Records.Submit(ctx, a.env.validator(na), page.Mutation[school.AttendanceRecord]{
		Do: func(ctx context.Context) error {
			_, err := a.env.API.MarkAttendance(ctx, na)
			return err
		},
		Success: "Attendance marked successfully!",
		Failure: "Failed to mark attendance",
	})
}

// MarkAll marks every loaded student with status, one request each.
// An invalid status sends nothing. Otherwise failures are not rolled back
// and the records are reloaded in every case.
func (a *Attendance) MarkAll(ctx context.Context, status string) page.BulkResult {
	date := a.Date()
	students := a.Students.Items()
	if err := a.env.validator(school.NewAttendance{StudentID: "-", Date: date, Status: status})(); err != nil {
		a.env.Toaster.Error(page.Message(err, "Please check the form"))
		return page.BulkResult{Total: len(students), Failed: len(students), Err: err}
	}

	remarks := "Bulk marked as " + status
	res := page.FanOut(ctx, students, func(ctx context.Context, st school.Student) error {
		_, err := a.env.API.MarkAttendance(ctx, school.NewAttendance{StudentID: st.ID, Date: date, Status: status, Remarks: remarks})
		return err
	})
	if res.OK() {
		a.env.Toaster.Success("All students marked as " + status + "!")
	} else {
		a.env.Logger.Warn("bulk attendance: "+res.Err.Error(), res.Err, map[string]interface{}{"failed": res.Failed, "total": res.Total})
		a.env.Toaster.Error("Failed to mark bulk attendance")
	}
	_ = a.Records.Load(ctx)
	return res
}

// Summary counts the records of the selected date per status.
func (a *Attendance) Summary() AttendanceSummary {
	return SummarizeAttendance(a.Records.Items())
}
