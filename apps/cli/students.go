package main

import (
	"fmt"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
)

func (cli *commandLine) students(args []string) error {
	sub, args := subcommand(args)
	switch sub {
	case "", "list":
		return cli.listStudents(args)
	case "add":
		return cli.addStudent(args)
	case "show":
		return cli.showStudent(args)
	case "delete":
		return cli.deleteStudent(args)
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) listStudents(args []string) error {
	fs := cli.flagSet("students")
	var filter school.StudentFilter
	fs.StringVar(&filter.Status, "status", "all", "all, active, inactive or graduated.")
	fs.StringVar(&filter.Class, "class", "all", "Class name, or all.")
	fs.StringVar(&filter.Search, "search", "", "Name, roll number or email.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewStudents(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx, filter); err != nil {
		return cli.failed(err)
	}

	items := p.List.Items()
	if len(items) == 0 {
		fmt.Fprintln(cli.out, "No students found")
		return nil
	}
	w := cli.table("ID", "ROLL", "NAME", "CLASS", "EMAIL", "STATUS")
	for _, st := range items {
		row(w, st.ID, st.RollNumber, st.Name, st.Class, st.Email, st.Status)
	}
	return w.Flush()
}

func (cli *commandLine) addStudent(args []string) error {
	fs := cli.flagSet("students add")
	var ns school.NewStudent
	fs.StringVar(&ns.Name, "name", "", "Full name.")
	fs.StringVar(&ns.RollNumber, "roll", "", "Roll number.")
	fs.StringVar(&ns.Class, "class", "", "Class name.")
	fs.IntVar(&ns.Age, "age", 0, "Age.")
	fs.StringVar(&ns.Gender, "gender", "", "Male or Female.")
	fs.StringVar(&ns.Email, "email", "", "Email.")
	fs.StringVar(&ns.Phone, "phone", "", "Phone.")
	fs.StringVar(&ns.Address, "address", "", "Address.")
	fs.StringVar(&ns.GuardianName, "guardian", "", "Guardian's name.")
	fs.StringVar(&ns.GuardianPhone, "guardian-phone", "", "Guardian's phone.")
	fs.StringVar(&ns.Status, "status", school.StudentActive, "active, inactive or graduated.")
	if err := parse(fs, args); err != nil {
		return err
	}

	created, err := pages.NewAddStudent(cli.env).Submit(cli.ctx, ns)
	if err != nil {
		return cli.failed(err)
	}
	fmt.Fprintf(cli.out, "%s (%s) enrolled in %s, id %s\n", created.Name, created.RollNumber, created.Class, created.ID)
	return nil
}

func (cli *commandLine) showStudent(args []string) error {
	fs := cli.flagSet("students show")
	id := fs.String("id", "", "Student id.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, *id); err != nil {
		return err
	}

	p := pages.NewStudentDetails(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx, *id); err != nil && !p.Student.Loaded() {
		return cli.failed(err)
	}

	st := p.Student.Get()
	fmt.Fprintf(cli.out, "%s (%s)\n", st.Name, st.RollNumber)
	w := cli.table("FIELD", "VALUE")
	row(w, "Class", st.Class)
	row(w, "Age", st.Age)
	row(w, "Gender", st.Gender)
	row(w, "Email", st.Email)
	row(w, "Phone", st.Phone)
	row(w, "Address", st.Address)
	row(w, "Guardian", st.GuardianName)
	row(w, "Guardian phone", st.GuardianPhone)
	row(w, "Status", st.Status)
	if err := w.Flush(); err != nil {
		return err
	}

	grades := p.Grades.Items()
	fmt.Fprintf(cli.out, "\nGrades (average %.1f)\n", pages.AverageMarks(grades))
	w = cli.table("SUBJECT", "MARKS", "GRADE", "TERM", "YEAR")
	for _, g := range grades {
		row(w, g.Subject, g.Marks, g.Grade, g.Term, g.AcademicYear)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	att := pages.SummarizeAttendance(p.Attendance.Items())
	fmt.Fprintf(cli.out, "\nAttendance: %d present, %d absent, %d late, %d excused (%.1f%%)\n",
		att.Present, att.Absent, att.Late, att.Excused, att.Rate)

	fmt.Fprintln(cli.out, "\nFees")
	w = cli.table("AMOUNT", "METHOD", "TERM", "YEAR", "STATUS")
	for _, f := range p.Fees.Items() {
		row(w, money(f.Amount), f.PaymentMethod, f.Term, f.AcademicYear, f.Status)
	}
	return w.Flush()
}

func (cli *commandLine) deleteStudent(args []string) error {
	fs := cli.flagSet("students delete")
	id := fs.String("id", "", "Student id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, *id); err != nil {
		return err
	}

	confirm := page.Confirm(cli.confirm)
	if *yes {
		confirm = page.Confirmed(true)
	}

	p := pages.NewStudents(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx, school.StudentFilter{}); err != nil {
		return cli.failed(err)
	}
	ran, err := p.Delete(cli.ctx, confirm, *id)
	if err != nil {
		return cli.failed(err)
	}
	if !ran {
		fmt.Fprintln(cli.out, "Cancelled")
	}
	return nil
}
