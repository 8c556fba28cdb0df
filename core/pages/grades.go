package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

// Grades lists every grade record, with the students to grade.
type Grades struct {
	base
	List     *page.List[school.GradeRecord]
	Students *page.List[school.Student]
}

func NewGrades(env Env) *Grades {
	g := &Grades{base: base{env: env}}
	g.List = page.NewList(&g.lc, env.Toaster, page.Refetch, "Failed to load grades", env.API.Grades)
	g.Students = page.NewList(&g.lc, env.Toaster, page.Refetch, "", allStudents(env.API))
	return g
}

func (g *Grades) Mount(ctx context.Context) error {
	g.mount(ctx)
	var eg errgroup.Group
	eg.Go(func() error { return g.List.Load(ctx) })
	eg.Go(func() error { return g.Students.Load(ctx) })
	return eg.Wait()
}

// Search filters the loaded grades on student name or subject.
func (g *Grades) Search(term string) []school.GradeRecord {
	return g.List.Filter(func(rec school.GradeRecord) bool { return school.MatchGrade(rec, term) })
}

// Add records a grade; marks outside 0 - 100 are rejected before any request.
func (g *Grades) Add(ctx context.Context, ng school.NewGrade) error {
	ng.Clean()
	return g.List.Submit(ctx, g.env.validator(ng), page.Mutation[school.GradeRecord]{
		Do: func(ctx context.Context) error {
			_, err := g.env.API.CreateGrade(ctx, ng)
			return err
		},
		Success: "Grade added successfully!",
		Failure: "Failed to add grade",
	})
}

// allStudents backs the student pickers of the grade and fee forms.
func allStudents(api Backend) func(ctx context.Context) ([]school.Student, error) {
	return func(ctx context.Context) ([]school.Student, error) {
		return api.Students(ctx, school.StudentFilter{})
	}
}

func activeStudents(api Backend) func(ctx context.Context) ([]school.Student, error) {
	return func(ctx context.Context) ([]school.Student, error) {
		return api.Students(ctx, school.StudentFilter{Status: school.StudentActive})
	}
}
