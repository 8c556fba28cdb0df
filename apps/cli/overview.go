package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/services/export"
)

func (cli *commandLine) dashboard(args []string) error {
	if err := parse(cli.flagSet("dashboard"), args); err != nil {
		return err
	}

	p := pages.NewDashboard(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil && !p.Stats.Loaded() {
		return cli.failed(err)
	}

	st := p.Stats.Get()
	w := cli.table("METRIC", "VALUE")
	row(w, "Total students", st.TotalStudents)
	row(w, "Active students", st.ActiveStudents)
	row(w, "Classes", st.TotalClasses)
	row(w, "Present today", fmt.Sprintf("%d (%.1f%%)", st.PresentToday, p.AttendanceRate()))
	row(w, "Fees collected", fmt.Sprintf("%s (%.1f%%)", money(st.TotalFeesPaid), p.FeeCollectionRate()))
	row(w, "Pending fees", money(st.PendingFees))
	if err := w.Flush(); err != nil {
		return err
	}

	activities := p.Activities.Items()
	if len(activities) == 0 {
		return nil
	}
	fmt.Fprintln(cli.out, "\nRecent activity")
	w = cli.table("WHEN", "WHAT", "DETAILS")
	for _, a := range activities {
		when := a.TimeAgo
		if when == "" {
			when = core.TimeAgo(a.CreatedAt)
		}
		row(w, when, a.Title, a.Description)
	}
	return w.Flush()
}

func (cli *commandLine) notifications(args []string) error {
	sub, args := subcommand(args)
	fs := cli.flagSet("notifications " + sub)
	tab := fs.String("tab", school.TabAll, "all, unread or read.")
	id := fs.String("id", "", "Notification id.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewNotifications(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil {
		return cli.failed(err)
	}

	var err error
	switch sub {
	case "", "list":
		return cli.printNotifications(p, *tab)
	case "read":
		if err = required(fs, *id); err != nil {
			return err
		}
		err = p.MarkRead(cli.ctx, *id)
	case "read-all":
		err = p.MarkAllRead(cli.ctx)
	case "delete":
		if err = required(fs, *id); err != nil {
			return err
		}
		err = p.Delete(cli.ctx, *id)
	default:
		cli.printUsage()
		return errHelp
	}
	if err != nil {
		return cli.failed(err)
	}
	fmt.Fprintf(cli.out, "%d unread\n", p.Unread())
	return nil
}

func (cli *commandLine) printNotifications(p *pages.Notifications, tab string) error {
	items := p.Tab(tab)
	fmt.Fprintf(cli.out, "%d notifications, %d unread\n", len(items), p.Unread())
	if len(items) == 0 {
		return nil
	}
	w := cli.table("", "ID", "WHEN", "TYPE", "TITLE", "MESSAGE")
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		row(w, mark, n.ID, core.TimeAgo(n.CreatedAt), n.Type, n.Title, n.Message)
	}
	return w.Flush()
}

func (cli *commandLine) reports(args []string) error {
	fs := cli.flagSet("reports")
	format := fs.String("export", "", "Export format: csv or xlsx.")
	output := fs.String("o", "", "Export file; defaults to a dated name in the current directory.")
	if err := parse(fs, args); err != nil {
		return err
	}

	p := pages.NewReports(cli.env)
	defer p.Unmount()
	if err := p.Mount(cli.ctx); err != nil {
		return cli.failed(err)
	}
	if *format != "" {
		return cli.exportReport(p, *format, *output)
	}

	data := p.Data.Get()
	shares, total := data.ClassShares()
	fmt.Fprintf(cli.out, "Class distribution (%d students)\n", total)
	w := cli.table("CLASS", "STUDENTS", "SHARE")
	for _, s := range shares {
		row(w, s.Class, s.Count, fmt.Sprintf("%.1f%%", s.Percent))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "\nTop performers (average %.1f)\n", data.TopAverage())
	w = cli.table("#", "NAME", "ROLL", "CLASS", "AVERAGE", "SUBJECTS")
	for i, tp := range data.TopPerformers {
		row(w, i+1, tp.Name, tp.RollNumber, tp.Class, fmt.Sprintf("%.1f", tp.AverageMarks), tp.TotalSubjects)
	}
	return w.Flush()
}

func (cli *commandLine) exportReport(p *pages.Reports, format, output string) (err error) {
	data, err := p.Export(format)
	if err != nil {
		return errFailed
	}
	format = strings.ToLower(format)
	if output == "" {
		output = export.Filename(format, time.Now())
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing export file")
		}
	}()
	if err = export.Report(f, format, data); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Saved %s\n", output)
	return nil
}

func (cli *commandLine) profile(args []string) error {
	sub, args := subcommand(args)
	p := pages.NewProfile(cli.env, cli.session)
	usr := p.User()

	switch sub {
	case "", "show":
		if err := parse(cli.flagSet("profile"), args); err != nil {
			return err
		}
		w := cli.table("FIELD", "VALUE")
		row(w, "Name", usr.FullName)
		row(w, "Initials", usr.Initials())
		row(w, "Email", usr.Email)
		row(w, "Role", usr.Role)
		row(w, "Member since", usr.CreatedAt.Format("January 2, 2006"))
		return w.Flush()

	case "update":
		fs := cli.flagSet("profile update")
		upd := user.ProfileUpdate{FullName: usr.FullName, Email: usr.Email}
		fs.StringVar(&upd.FullName, "name", upd.FullName, "Full name.")
		fs.StringVar(&upd.Email, "email", upd.Email, "Email.")
		if err := parse(fs, args); err != nil {
			return err
		}
		if err := p.Update(cli.ctx, upd); err != nil {
			return cli.failed(err)
		}
		return cli.whoami(nil)

	case "password":
		if err := parse(cli.flagSet("profile password"), args); err != nil {
			return err
		}
		var (
			chg user.PasswordChange
			err error
		)
		if chg.CurrentPassword, err = cli.readPassword("Current password:"); err != nil {
			return err
		}
		if chg.NewPassword, err = cli.readPassword("New password:"); err != nil {
			return err
		}
		if chg.ConfirmPassword, err = cli.readPassword("Confirm new password:"); err != nil {
			return err
		}
		if err = p.ChangePassword(cli.ctx, chg); err != nil {
			return cli.failed(err)
		}
		return nil
	}
	cli.printUsage()
	return errHelp
}
