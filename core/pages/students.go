package pages

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

const DeleteStudentPrompt = "Are you sure you want to delete this student?"

// Students lists students, filtered server-side.
type Students struct {
	base
	List *page.List[school.Student]

	mu     sync.Mutex
	filter school.StudentFilter
}

func NewStudents(env Env) *Students {
	s := &Students{base: base{env: env}}
	s.List = page.NewList(&s.lc, env.Toaster, page.Refetch, "Failed to load students", func(ctx context.Context) ([]school.Student, error) {
		return env.API.Students(ctx, s.Filter())
	})
	return s
}

func (s *Students) Mount(ctx context.Context, filter school.StudentFilter) error {
	s.mount(ctx)
	return s.SetFilter(ctx, filter)
}

// SetFilter changes the filter and reloads the list.
func (s *Students) SetFilter(ctx context.Context, filter school.StudentFilter) error {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	return s.List.Load(ctx)
}

func (s *Students) Filter() school.StudentFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Delete removes the student once confirmed. It reports whether the deletion ran.
func (s *Students) Delete(ctx context.Context, confirm page.Confirm, id string) (bool, error) {
	return s.List.Delete(ctx, confirm, DeleteStudentPrompt, page.Mutation[school.Student]{
		Do:      func(ctx context.Context) error { return s.env.API.DeleteStudent(ctx, id) },
		Success: "Student deleted successfully",
		Failure: "Failed to delete student",
	})
}

// AddStudent is the student enrolment form.
type AddStudent struct {
	env Env
}

func NewAddStudent(env Env) *AddStudent {
	return &AddStudent{env: env}
}

// Submit enrols ns. On success the caller navigates to the students list.
func (p *AddStudent) Submit(ctx context.Context, ns school.NewStudent) (school.Student, error) {
	ns.Clean()
	var created school.Student
	err := page.Perform(ctx, p.env.Toaster, p.env.validator(ns), page.Action{
		Do: func(ctx context.Context) (err error) {
			created, err = p.env.API.CreateStudent(ctx, ns)
			return err
		},
		Success: "Student added successfully!",
		Failure: "Failed to add student",
	})
	return created, err
}

// StudentDetails shows one student with its grades, attendance and fees.
type StudentDetails struct {
	base
	Student    *page.Value[school.Student]
	Grades     *page.List[school.GradeRecord]
	Attendance *page.List[school.AttendanceRecord]
	Fees       *page.List[school.FeeRecord]

	mu sync.Mutex
	id string
}

func NewStudentDetails(env Env) *StudentDetails {
	d := &StudentDetails{base: base{env: env}}
	d.Student = page.NewValue(&d.lc, env.Toaster, "Failed to load student details", func(ctx context.Context) (school.Student, error) {
		return env.API.Student(ctx, d.ID())
	})
	d.Grades = page.NewList(&d.lc, env.Toaster, page.Refetch, "", func(ctx context.Context) ([]school.GradeRecord, error) {
		return env.API.StudentGrades(ctx, d.ID())
	})
	d.Attendance = page.NewList(&d.lc, env.Toaster, page.Refetch, "", func(ctx context.Context) ([]school.AttendanceRecord, error) {
		return env.API.StudentAttendance(ctx, d.ID())
	})
	d.Fees = page.NewList(&d.lc, env.Toaster, page.Refetch, "", func(ctx context.Context) ([]school.FeeRecord, error) {
		return env.API.StudentFees(ctx, d.ID())
	})
	return d
}

// Mount loads the student and its records concurrently.
// Only a failure to load the student itself is toasted.
func (d *StudentDetails) Mount(ctx context.Context, id string) error {
	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	d.mount(ctx)

	var g errgroup.Group
	g.Go(func() error { return d.Student.Load(ctx) })
	g.Go(func() error { return d.Grades.Load(ctx) })
	g.Go(func() error { return d.Attendance.Load(ctx) })
	g.Go(func() error { return d.Fees.Load(ctx) })
	return g.Wait()
}

func (d *StudentDetails) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// AttendanceSummary counts the loaded attendance records per status.
type AttendanceSummary struct {
	Present, Absent, Late, Excused int
	Total                          int
	Rate                           float64 // present share, 0 - 100
}

func SummarizeAttendance(records []school.AttendanceRecord) AttendanceSummary {
	var s AttendanceSummary
	for _, r := range records {
		switch r.Status {
		case school.Present:
			s.Present++
		case school.Absent:
			s.Absent++
		case school.Late:
			s.Late++
		case school.Excused:
			s.Excused++
		}
	}
	s.Total = len(records)
	s.Rate = school.Percent(float64(s.Present), float64(s.Total))
	return s
}

// AverageMarks averages the marks of grades, rounded to one decimal.
func AverageMarks(grades []school.GradeRecord) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Marks
	}
	return round1(sum / float64(len(grades)))
}
