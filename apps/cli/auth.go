package main

import (
	"fmt"

	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/user"
)

func (cli *commandLine) login(args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "The user's email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if usr, ok := cli.session.User(); ok {
		fmt.Fprintf(cli.out, "Already logged in as %s <%s>\n", usr.FullName, usr.Email)
		return nil
	}
	if err := required(fs, *email); err != nil {
		return err
	}

	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	if err := pages.NewAuth(cli.env, cli.session).Login(cli.ctx, user.Credentials{Email: *email, Password: pwd}); err != nil {
		return cli.failed(err)
	}
	return cli.whoami(nil)
}

func (cli *commandLine) register(args []string) error {
	fs := cli.flagSet("register")
	name := fs.String("name", "", "Full name.")
	email := fs.String("email", "", "Email. The password will be prompted next.")
	role := fs.String("role", user.RoleTeacher, "admin or teacher.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if usr, ok := cli.session.User(); ok {
		fmt.Fprintf(cli.out, "Already logged in as %s <%s>\n", usr.FullName, usr.Email)
		return nil
	}
	if err := required(fs, *name, *email); err != nil {
		return err
	}

	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	confirm, err := cli.readPassword("Confirm password:")
	if err != nil {
		return err
	}

	reg := user.Registration{FullName: *name, Email: *email, Password: pwd, ConfirmPassword: confirm, Role: *role}
	if err := pages.NewAuth(cli.env, cli.session).Register(cli.ctx, reg); err != nil {
		return cli.failed(err)
	}
	return cli.whoami(nil)
}

// logout always ends the local session, even when the backend cannot be told.
func (cli *commandLine) logout([]string) error {
	if !cli.session.Active() {
		fmt.Fprintln(cli.out, "Not logged in")
		return nil
	}
	pages.NewAuth(cli.env, cli.session).Logout(cli.ctx)
	return nil
}

func (cli *commandLine) whoami([]string) error {
	usr, ok := cli.session.User()
	if !ok {
		return errNotLoggedIn
	}
	fmt.Fprintf(cli.out, "%s <%s> (%s)\n", usr.FullName, usr.Email, usr.Role)
	return nil
}
