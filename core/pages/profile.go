package pages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
)

// Profile edits the session user.
type Profile struct {
	env     Env
	session *session.Store
}

func NewProfile(env Env, store *session.Store) *Profile {
	return &Profile{env: env, session: store}
}

func (p *Profile) User() user.Profile {
	usr, _ := p.session.User()
	return usr
}

// Update saves upd, then replaces the session user with the updated one.
func (p *Profile) Update(ctx context.Context, upd user.ProfileUpdate) error {
	upd.Clean()
	return page.Perform(ctx, p.env.Toaster, p.env.validator(upd), page.Action{
		Do: func(ctx context.Context) error {
			usr, err := p.env.API.UpdateProfile(ctx, upd)
			if err != nil {
				return err
			}
			return errors.Wrap(p.session.ReplaceUser(ctx, usr), "updating session user")
		},
		Success: "Profile updated successfully!",
		Failure: "Failed to update profile",
	})
}

// ChangePassword changes the password; the new one must not resemble the user's name or email.
func (p *Profile) ChangePassword(ctx context.Context, chg user.PasswordChange) error {
	usr := p.User()
	chg.FullName, chg.Email = usr.FullName, usr.Email
	return page.Perform(ctx, p.env.Toaster, p.env.validator(chg), page.Action{
		Do:      func(ctx context.Context) error { return p.env.API.ChangePassword(ctx, chg) },
		Success: "Password changed successfully!",
		Failure: "Failed to change password",
	})
}
