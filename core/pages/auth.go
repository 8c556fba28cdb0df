package pages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
)

// Auth backs the public login and register pages, and the shell's logout.
type Auth struct {
	env     Env
	session *session.Store
}

func NewAuth(env Env, store *session.Store) *Auth {
	return &Auth{env: env, session: store}
}

// Login opens a session for creds.
func (a *Auth) Login(ctx context.Context, creds user.Credentials) error {
	creds.Clean()
	return page.Perform(ctx, a.env.Toaster, a.env.validator(creds), page.Action{
		Do: func(ctx context.Context) error {
			res, err := a.env.API.Login(ctx, creds)
			if err != nil {
				return err
			}
			return a.open(ctx, res)
		},
		Success: "Login successful!",
		Failure: "Login failed",
	})
}

// Register creates the account, then opens a session for it.
func (a *Auth) Register(ctx context.Context, reg user.Registration) error {
	reg.Clean()
	return page.Perform(ctx, a.env.Toaster, a.env.validator(reg), page.Action{
		Do: func(ctx context.Context) error {
			res, err := a.env.API.Register(ctx, reg)
			if err != nil {
				return err
			}
			return a.open(ctx, res)
		},
		Success: "Registration successful!",
		Failure: "Registration failed",
	})
}

func (a *Auth) open(ctx context.Context, res user.AuthResponse) error {
	if err := a.session.Login(ctx, res.Token, res.User); err != nil {
		return errors.Wrap(err, "opening session")
	}
	return nil
}

// Logout notifies the backend then ends the session, whatever the backend answered.
func (a *Auth) Logout(ctx context.Context) {
	if a.session.Active() {
		if err := a.env.API.Logout(ctx); err != nil {
			usr, _ := a.session.User()
			a.env.Logger.Warn("notifying logout: "+err.Error(), err, usr)
		}
	}
	a.session.Logout(ctx)
	a.env.Toaster.Success("Logged out successfully")
}
