package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/gate"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	confirmFunc      = confirmStdin      // mockable

	errHelp        = errors.New("help provided")
	errFailed      = errors.New("command failed") // already reported to the user
	errNotLoggedIn = errors.New("not logged in: run `masomo login -email EMAIL` first")
)

const usage = `Usage:
  login -email EMAIL                   - log in; the password is prompted
  register -name NAME -email EMAIL     - create an account and log in; the password is prompted
  logout                               - log out
  whoami                               - show the logged in user
  dashboard                            - show the headline statistics and recent activity
  students [-status S] [-class C] [-search Q]
  students add -name .. -roll .. -class .. -age .. -gender .. -email ..
  students show -id ID
  students delete -id ID [-yes]
  grades [-search Q]
  grades add -student ID -subject S -marks M -term T -year YYYY/YYYY
  attendance [-date YYYY-MM-DD]
  attendance mark -student ID -status S [-date YYYY-MM-DD]
  attendance mark-all -status S [-date YYYY-MM-DD]
  fees [-search Q] [-status S]
  fees record -student ID -amount A -method M -term T -year YYYY/YYYY
  notifications [-tab all|unread|read]
  notifications read -id ID | read-all | delete -id ID
  reports [-export csv|xlsx] [-o FILE]
  profile
  profile update [-name NAME] [-email EMAIL]
  profile password                     - change the password; passwords are prompted
`

type commandLine struct {
	ctx     context.Context
	env     pages.Env
	session *session.Store
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprint(cli.out, usage)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	name, rest := args[1], args[2:]
	var cmd func(args []string) error
	protected := true

	switch name {
	case "login":
		cmd, protected = cli.login, false
	case "register":
		cmd, protected = cli.register, false
	case "logout":
		cmd, protected = cli.logout, false
	case "whoami":
		cmd = cli.whoami
	case "dashboard":
		cmd = cli.dashboard
	case "students":
		cmd = cli.students
	case "grades":
		cmd = cli.grades
	case "attendance":
		cmd = cli.attendance
	case "fees":
		cmd = cli.fees
	case "notifications":
		cmd = cli.notifications
	case "reports":
		cmd = cli.reports
	case "profile":
		cmd = cli.profile
	default:
		cli.printUsage()
		return errHelp
	}

	if protected && gate.StateOf(cli.session.Active()) != gate.Authenticated {
		return errNotLoggedIn
	}
	return cmd(rest)
}

// subcommand splits a leading subcommand, if any, from the flags.
func subcommand(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// required prints the usage of fs when any of values is empty.
func required(fs *flag.FlagSet, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

// failed reports err, already toasted, listing every invalid field of a validation error.
func (cli *commandLine) failed(err error) error {
	if vErr, ok := core.AsValidationError(err); ok {
		for _, f := range vErr.Fields {
			fmt.Fprintf(cli.out, "  - %s\n", f.Error)
		}
	}
	return errFailed
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) confirm(prompt string) bool {
	return confirmFunc(cli.out, prompt)
}

func confirmStdin(out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (cli *commandLine) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func row(w io.Writer, cols ...interface{}) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// printToaster prints toasts as they are raised.
type printToaster struct {
	out io.Writer
}

var _ page.Toaster = printToaster{}

func (t printToaster) Success(msg string) { fmt.Fprintln(t.out, "✔ "+msg) }
func (t printToaster) Error(msg string)   { fmt.Fprintln(t.out, "✘ "+msg) }
