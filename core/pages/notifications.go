package pages

import (
	"context"

	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
)

// Notifications lists every notification. Mutations patch the loaded copy.
type Notifications struct {
	base
	List *page.List[school.Notification]
}

func NewNotifications(env Env) *Notifications {
	n := &Notifications{base: base{env: env}}
	n.List = page.NewList(&n.lc, env.Toaster, page.PatchLocal, "Failed to load notifications", func(ctx context.Context) ([]school.Notification, error) {
		return env.API.Notifications(ctx, 0)
	})
	return n
}

func (n *Notifications) Mount(ctx context.Context) error {
	n.mount(ctx)
	return n.List.Load(ctx)
}

// Tab returns the loaded notifications of tab (all, unread, read).
func (n *Notifications) Tab(tab string) []school.Notification {
	return n.List.Filter(func(nt school.Notification) bool { return school.MatchTab(nt, tab) })
}

// Unread is the unread badge, over the loaded notifications.
func (n *Notifications) Unread() int {
	return school.CountUnread(n.List.Items())
}

func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	return n.List.Mutate(ctx, page.Mutation[school.Notification]{
		Do:      func(ctx context.Context) error { return n.env.API.MarkNotificationRead(ctx, id) },
		Success: "Notification marked as read",
		Failure: "Failed to mark as read",
		Patch:   func(ns []school.Notification) []school.Notification { return markRead(ns, id) },
	})
}

func (n *Notifications) MarkAllRead(ctx context.Context) error {
	return n.List.Mutate(ctx, page.Mutation[school.Notification]{
		Do:      n.env.API.MarkAllNotificationsRead,
		Success: "All notifications marked as read",
		Failure: "Failed to mark all as read",
		Patch:   func(ns []school.Notification) []school.Notification { return markRead(ns, "") },
	})
}

func (n *Notifications) Delete(ctx context.Context, id string) error {
	return n.List.Mutate(ctx, page.Mutation[school.Notification]{
		Do:      func(ctx context.Context) error { return n.env.API.DeleteNotification(ctx, id) },
		Success: "Notification deleted",
		Failure: "Failed to delete notification",
		Patch: func(ns []school.Notification) []school.Notification {
			out := make([]school.Notification, 0, len(ns))
			for _, nt := range ns {
				if nt.ID != id {
					out = append(out, nt)
				}
			}
			return out
		},
	})
}
