package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
)

func (cli *commandLine) grades(args []string) error {
	sub, args := subcommand(args)
	switch sub {
	case "", "list":
		return cli.listGrades(args)
	case "add":
		return cli.addGrade(args)
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) listGrades(args []string) error {
	fs := cli.flagSet("grades")
	search := fs.String("search", "", "Student name or subject.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewGrades(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil && !p.List.Loaded() {
		return cli.failed(err)
	}

	items := p.Search(*search)
	if len(items) == 0 {
		fmt.Fprintln(cli.out, "No grades found")
		return nil
	}
	w := cli.table("STUDENT", "SUBJECT", "MARKS", "GRADE", "TERM", "YEAR", "REMARKS")
	for _, g := range items {
		row(w, g.Student.DisplayName(), g.Subject, g.Marks, g.Grade, g.Term, g.AcademicYear, g.Remarks)
	}
	return w.Flush()
}

func (cli *commandLine) addGrade(args []string) error {
	fs := cli.flagSet("grades add")
	var ng school.NewGrade
	fs.StringVar(&ng.StudentID, "student", "", "Student id.")
	fs.StringVar(&ng.Subject, "subject", "", "Subject.")
	marks := fs.String("marks", "", "Marks, 0 - 100.")
	fs.StringVar(&ng.Term, "term", "First", "First, Second or Third.")
	fs.StringVar(&ng.AcademicYear, "year", "", "Academic year, e.g. 2024/2025.")
	fs.StringVar(&ng.Remarks, "remarks", "", "Remarks.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *marks != "" {
		m, err := strconv.ParseFloat(*marks, 64)
		if err != nil {
			return fmt.Errorf("invalid marks %q", *marks)
		}
		ng.Marks = &m
	}

	p := pages.NewGrades(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil && !p.List.Loaded() {
		return cli.failed(err)
	}
	if err := p.Add(cli.ctx, ng); err != nil {
		return cli.failed(err)
	}
	return nil
}

func (cli *commandLine) attendance(args []string) error {
	sub, args := subcommand(args)
	fs := cli.flagSet("attendance " + sub)
	date := fs.String("date", pages.Today(), "Date, YYYY-MM-DD.")

	var mark func(p *pages.Attendance) error
	switch sub {
	case "", "list":
	case "mark":
		student := fs.String("student", "", "Student id.")
		status := fs.String("status", "", "present, absent, late or excused.")
		remarks := fs.String("remarks", "", "Remarks.")
		mark = func(p *pages.Attendance) error {
			if err := required(fs, *student, *status); err != nil {
				return err
			}
			if err := p.Mark(cli.ctx, *student, *status, *remarks); err != nil {
				return cli.failed(err)
			}
			return nil
		}
	case "mark-all":
		status := fs.String("status", "", "present, absent, late or excused.")
		mark = func(p *pages.Attendance) error {
			if err := required(fs, *status); err != nil {
				return err
			}
			if res := p.MarkAll(cli.ctx, *status); !res.OK() {
				if _, ok := core.AsValidationError(res.Err); ok {
					return cli.failed(res.Err)
				}
				fmt.Fprintf(cli.out, "%d of %d students could not be marked\n", res.Failed, res.Total)
				return errFailed
			}
			return nil
		}
	default:
		cli.printUsage()
		return errHelp
	}
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewAttendance(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx, *date); err != nil && !p.Students.Loaded() {
		return cli.failed(err)
	}
	if mark != nil {
		return mark(p)
	}

	w := cli.table("ID", "ROLL", "NAME", "CLASS", "STATUS")
	for _, st := range p.Students.Items() {
		status, ok := p.StatusOf(st.ID)
		if !ok {
			status = "-"
		}
		row(w, st.ID, st.RollNumber, st.Name, st.Class, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	sum := p.Summary()
	fmt.Fprintf(cli.out, "\n%s: %d present, %d absent, %d late, %d excused\n",
		p.Date(), sum.Present, sum.Absent, sum.Late, sum.Excused)
	return nil
}

func (cli *commandLine) fees(args []string) error {
	sub, args := subcommand(args)
	switch sub {
	case "", "list":
		return cli.listFees(args)
	case "record":
		return cli.recordFee(args)
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) listFees(args []string) error {
	fs := cli.flagSet("fees")
	var filter school.FeeFilter
	fs.StringVar(&filter.Search, "search", "", "Student name or receipt number.")
	fs.StringVar(&filter.Status, "status", school.TabAll, "all, paid, pending or overdue.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewFees(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil && !p.List.Loaded() {
		return cli.failed(err)
	}

	w := cli.table("STUDENT", "AMOUNT", "METHOD", "TERM", "YEAR", "RECEIPT", "STATUS", "DATE")
	for _, f := range p.Filtered(filter) {
		row(w, f.DisplayStudent(), money(f.Amount), strings.ReplaceAll(f.PaymentMethod, "_", " "),
			f.Term, f.AcademicYear, f.ReceiptNumber, f.Status, f.CreatedAt.Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	t := p.Totals()
	fmt.Fprintf(cli.out, "\nPaid %s, pending %s, overdue %s\n", money(t.Paid), money(t.Pending), money(t.Overdue))
	return nil
}

func (cli *commandLine) recordFee(args []string) error {
	fs := cli.flagSet("fees record")
	var nf school.NewFee
	fs.StringVar(&nf.StudentID, "student", "", "Student id.")
	fs.Float64Var(&nf.Amount, "amount", 0, "Amount paid.")
	fs.StringVar(&nf.PaymentMethod, "method", school.PaymentCash, "cash, bank_transfer, online or cheque.")
	fs.StringVar(&nf.Term, "term", "First", "First, Second or Third.")
	fs.StringVar(&nf.AcademicYear, "year", "", "Academic year, e.g. 2024/2025.")
	fs.StringVar(&nf.ReceiptNumber, "receipt", "", "Receipt number.")
	fs.StringVar(&nf.Notes, "notes", "", "Notes.")
	fs.StringVar(&nf.Status, "status", school.FeePaid, "paid, pending or overdue.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewFees(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil && !p.List.Loaded() {
		return cli.failed(err)
	}
	if err := p.Record(cli.ctx, nf); err != nil {
		return cli.failed(err)
	}
	return nil
}
