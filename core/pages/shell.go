package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
)

// RecentNotifications is how many notifications the navbar shows.
const RecentNotifications = 5

// Shell is the navbar around every protected page.
type Shell struct {
	base
	session *session.Store

	Recent *page.List[school.Notification]
	Unread *page.Value[int]
}

func NewShell(env Env, store *session.Store) *Shell {
	s := &Shell{base: base{env: env}, session: store}
	s.Recent = page.NewList(&s.lc, env.Toaster, page.PatchLocal, "", func(ctx context.Context) ([]school.Notification, error) {
		return env.API.Notifications(ctx, RecentNotifications)
	})
	s.Unread = page.NewValue(&s.lc, env.Toaster, "", env.API.UnreadCount)
	return s
}

// Mount loads the recent notifications and the unread count, silently.
func (s *Shell) Mount(ctx context.Context) error {
	s.mount(ctx)
	var g errgroup.Group
	g.Go(func() error { return s.Recent.Load(ctx) })
	g.Go(func() error { return s.Unread.Load(ctx) })
	return g.Wait()
}

// User is the session user; the zero Profile when logged out.
func (s *Shell) User() user.Profile {
	usr, _ := s.session.User()
	return usr
}

func (s *Shell) Initials() string {
	return s.User().Initials()
}

// MarkAllRead marks every notification read and clears the badge.
func (s *Shell) MarkAllRead(ctx context.Context) error {
	err := s.Recent.Mutate(ctx, page.Mutation[school.Notification]{
		Do:      s.env.API.MarkAllNotificationsRead,
		Success: "All notifications marked as read",
		Failure: "Failed to mark all as read",
		Patch:   func(ns []school.Notification) []school.Notification { return markRead(ns, "") },
	})
	if err != nil {
		return err
	}
	s.Unread.Set(0)
	return nil
}

// markRead marks the notification id read, or all of them when id is empty.
func markRead(ns []school.Notification, id string) []school.Notification {
	out := make([]school.Notification, len(ns))
	for i, n := range ns {
		if id == "" || n.ID == id {
			n.Read = true
		}
		out[i] = n
	}
	return out
}
