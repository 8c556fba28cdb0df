package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

// Fees lists the fee payments, filtered client-side.
type Fees struct {
	base
	List     *page.List[school.FeeRecord]
	Students *page.List[school.Student]
}

func NewFees(env Env) *Fees {
	f := &Fees{base: base{env: env}}
	f.List = page.NewList(&f.lc, env.Toaster, page.Refetch, "Failed to load fees", env.API.Fees)
	f.Students = page.NewList(&f.lc, env.Toaster, page.Refetch, "", allStudents(env.API))
	return f
}

func (f *Fees) Mount(ctx context.Context) error {
	f.mount(ctx)
	var g errgroup.Group
	g.Go(func() error { return f.List.Load(ctx) })
	g.Go(func() error { return f.Students.Load(ctx) })
	return g.Wait()
}

func (f *Fees) Filtered(filter school.FeeFilter) []school.FeeRecord {
	return f.List.Filter(filter.Match)
}

// Totals sums the loaded fees per status.
func (f *Fees) Totals() school.FeeTotals {
	return school.TotalFees(f.List.Items())
}

// Record records a fee payment.
func (f *Fees) Record(ctx context.Context, nf school.NewFee) error {
	nf.Clean()
	return f.List.Submit(ctx, f.env.validator(nf), page.Mutation[school.FeeRecord]{
		Do: func(ctx context.Context) error {
			_, err := f.env.API.CreateFee(ctx, nf)
			return err
		},
		Success: "Fee payment recorded successfully",
		Failure: "Failed to record fee payment",
	})
}
