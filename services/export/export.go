// Package export writes the reports page as a downloadable file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/masomo-console/core/pages"
)

// Table is one section (csv) or sheet (xlsx) of an export.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// ReportTables lays the report out as tables: summary, class distribution, top performers.
func ReportTables(data pages.ReportData) []Table {
	st := data.Stats
	summary := Table{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]interface{}{
			{"Total students", st.TotalStudents},
			{"Active students", st.ActiveStudents},
			{"Total classes", st.TotalClasses},
			{"Present today", st.PresentToday},
			{"Total fees paid", st.TotalFeesPaid},
			{"Pending fees", st.PendingFees},
			{"Top performers average", data.TopAverage()},
		},
	}

	shares, total := data.ClassShares()
	dist := Table{Name: "Class Distribution", Header: []string{"Class", "Students", "Share (%)"}}
	for _, s := range shares {
		dist.Rows = append(dist.Rows, []interface{}{s.Class, s.Count, s.Percent})
	}
	dist.Rows = append(dist.Rows, []interface{}{"Total", total, 100.0})

	top := Table{Name: "Top Performers", Header: []string{"Rank", "Name", "Roll Number", "Class", "Average Marks", "Subjects"}}
	for i, p := range data.TopPerformers {
		top.Rows = append(top.Rows, []interface{}{i + 1, p.Name, p.RollNumber, p.Class, p.AverageMarks, p.TotalSubjects})
	}
	return []Table{summary, dist, top}
}

// Report writes data to w as format (csv or xlsx).
func Report(w io.Writer, format string, data pages.ReportData) error {
	switch format {
	case pages.ExportCSV:
		return WriteCSV(w, ReportTables(data))
	case pages.ExportXLSX:
		return WriteXLSX(w, ReportTables(data))
	default:
		return errors.Wrap(pages.ErrExportFormat, format)
	}
}

// Filename names the report exported at t.
func Filename(format string, t time.Time) string {
	return fmt.Sprintf("school-report-%s.%s", t.Format("2006-01-02"), format)
}

func ContentType(format string) string {
	if format == pages.ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// WriteCSV writes the tables one after the other, each under its name and separated by a blank line.
func WriteCSV(w io.Writer, tables []Table) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			_ = cw.Write([]string{})
		}
		_ = cw.Write([]string{t.Name})
		_ = cw.Write(t.Header)
		for _, row := range t.Rows {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = formatCell(v)
			}
			_ = cw.Write(rec)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing csv")
}

func formatCell(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// WriteXLSX writes one sheet per table, with a bold header row.
func WriteXLSX(w io.Writer, tables []Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	for i, t := range tables {
		if i == 0 {
			if err = f.SetSheetName("Sheet1", t.Name); err != nil {
				return errors.Wrap(err, "naming sheet")
			}
		} else if _, err = f.NewSheet(t.Name); err != nil {
			return errors.Wrapf(err, "creating sheet %q", t.Name)
		}

		header := make([]interface{}, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		if err = f.SetSheetRow(t.Name, "A1", &header); err != nil {
			return errors.Wrap(err, "writing header")
		}
		if err = f.SetRowStyle(t.Name, 1, 1, bold); err != nil {
			return errors.Wrap(err, "styling header")
		}
		for r, row := range t.Rows {
			cell, cErr := excelize.CoordinatesToCellName(1, r+2)
			if cErr != nil {
				return errors.Wrap(cErr, "locating row")
			}
			row := row
			if err = f.SetSheetRow(t.Name, cell, &row); err != nil {
				return errors.Wrapf(err, "writing row %d of %q", r+1, t.Name)
			}
		}
		if last, cErr := excelize.ColumnNumberToName(len(t.Header)); cErr == nil {
			_ = f.SetColWidth(t.Name, "A", last, 20)
		}
	}

	f.SetActiveSheet(0)
	if err = f.Write(w); err != nil {
		return errors.Wrap(err, "writing xlsx")
	}
	return nil
}
