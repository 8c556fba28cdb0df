package pages

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

// Dashboard shows the headline statistics and the recent activity.
type Dashboard struct {
	base
	Stats      *page.Value[school.DashboardStats]
	Activities *page.List[school.Activity]
}

func NewDashboard(env Env) *Dashboard {
	d := &Dashboard{base: base{env: env}}
	d.Stats = page.NewValue(&d.lc, env.Toaster, "Failed to load dashboard statistics", env.API.DashboardStats)
	d.Activities = page.NewList(&d.lc, env.Toaster, page.Refetch, "", env.API.RecentActivities)
	return d
}

func (d *Dashboard) Mount(ctx context.Context) error {
	d.mount(ctx)
	var g errgroup.Group
	g.Go(func() error { return d.Stats.Load(ctx) })
	g.Go(func() error { return d.Activities.Load(ctx) })
	return g.Wait()
}

// FeeCollectionRate is the paid share of the paid and pending fees.
func (d *Dashboard) FeeCollectionRate() float64 {
	st := d.Stats.Get()
	return school.Percent(st.TotalFeesPaid, st.TotalFeesPaid+st.PendingFees)
}

// AttendanceRate is the share of active students present today.
func (d *Dashboard) AttendanceRate() float64 {
	st := d.Stats.Get()
	return school.Percent(float64(st.PresentToday), float64(st.ActiveStudents))
}

// ReportData is everything the reports page shows.
type ReportData struct {
	Distribution  []school.ClassCount
	TopPerformers []school.TopPerformer
	Stats         school.DashboardStats
}

// ClassShares is the class distribution with each class's share of the students.
func (r ReportData) ClassShares() ([]school.ClassShare, int) {
	return school.ClassShares(r.Distribution)
}

// TopAverage averages the top performers' average marks, rounded to one decimal.
func (r ReportData) TopAverage() float64 {
	if len(r.TopPerformers) == 0 {
		return 0
	}
	var sum float64
	for _, p := range r.TopPerformers {
		sum += p.AverageMarks
	}
	return round1(sum / float64(len(r.TopPerformers)))
}

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

var ErrExportFormat = errors.New("unsupported export format")

// Reports fetches the class distribution, top performers and statistics as one load.
type Reports struct {
	base
	Data *page.Value[ReportData]
}

func NewReports(env Env) *Reports {
	r := &Reports{base: base{env: env}}
	r.Data = page.NewValue(&r.lc, env.Toaster, "Failed to load reports", r.fetch)
	return r
}

func (r *Reports) fetch(ctx context.Context) (ReportData, error) {
	var data ReportData
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Distribution, err = r.env.API.ClassDistribution(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.TopPerformers, err = r.env.API.TopPerformers(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Stats, err = r.env.API.DashboardStats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ReportData{}, err
	}
	return data, nil
}

func (r *Reports) Mount(ctx context.Context) error {
	r.mount(ctx)
	return r.Data.Load(ctx)
}

// Export announces the export of the loaded report as format, and returns it.
func (r *Reports) Export(format string) (ReportData, error) {
	format = strings.ToLower(format)
	if format != ExportCSV && format != ExportXLSX {
		r.env.Toaster.Error("Unsupported export format: " + format)
		return ReportData{}, errors.Wrap(ErrExportFormat, format)
	}
	r.env.Toaster.Success("Exporting " + strings.ToUpper(format) + " report...")
	return r.Data.Get(), nil
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
