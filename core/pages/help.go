package pages

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/mail"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/session"
	appfs "github.com/trezcool/masomo-console/fs"
)

const faqFile = "help/faq.md"

// FAQ is one question of the help page; Answer is markdown.
type FAQ struct {
	Question   string
	Answer     string
	AnswerHTML template.HTML
}

type QuickLink struct {
	Title       string
	Path        string
	Description string
}

var QuickLinks = []QuickLink{
	{Title: "Students Management", Path: "/students", Description: "Add, edit, and manage student records"},
	{Title: "Grade Management", Path: "/grades", Description: "Record and track student grades"},
	{Title: "Attendance Tracking", Path: "/attendance", Description: "Mark daily student attendance"},
	{Title: "Fee Management", Path: "/fees", Description: "Track payments and outstanding fees"},
	{Title: "Reports & Analytics", Path: "/reports", Description: "View comprehensive school statistics"},
	{Title: "Notifications", Path: "/notifications", Description: "Manage system notifications"},
}

// SupportRequest is the contact support form.
type SupportRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// Help is the FAQ and the contact support form.
type Help struct {
	env     Env
	session *session.Store
	mailer  core.EmailService
	support mail.Address
	faqs    []FAQ
}

// NewHelp loads the FAQ; support receives the contact requests.
func NewHelp(env Env, store *session.Store, mailer core.EmailService, support mail.Address) (*Help, error) {
	faqs, err := LoadFAQ(appfs.FS)
	if err != nil {
		return nil, err
	}
	return &Help{env: env, session: store, mailer: mailer, support: support, faqs: faqs}, nil
}

// LoadFAQ reads the FAQ from fsys: every level 2 heading is a question, followed by its answer.
func LoadFAQ(fsys fs.FS) ([]FAQ, error) {
	src, err := fs.ReadFile(fsys, faqFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading faq")
	}

	var (
		faqs   []FAQ
		answer strings.Builder
	)
	flush := func() error {
		if len(faqs) == 0 {
			return nil
		}
		last := &faqs[len(faqs)-1]
		last.Answer = strings.TrimSpace(answer.String())
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(last.Answer), &buf); err != nil {
			return errors.Wrapf(err, "rendering answer to %q", last.Question)
		}
		last.AnswerHTML = template.HTML(buf.String())
		answer.Reset()
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		if q, ok := strings.CutPrefix(line, "## "); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			faqs = append(faqs, FAQ{Question: strings.TrimSpace(q)})
			continue
		}
		answer.WriteString(line)
		answer.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning faq")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return faqs, nil
}

// Search returns the questions whose question or answer contains term, ignoring case.
func (h *Help) Search(term string) []FAQ {
	term = core.CleanString(term)
	out := make([]FAQ, 0, len(h.faqs))
	for _, f := range h.faqs {
		if term == "" || core.ContainsFold(f.Question, term) || core.ContainsFold(f.Answer, term) {
			out = append(out, f)
		}
	}
	return out
}

func (h *Help) SupportAddress() mail.Address { return h.support }

// Contact sends req to the support team, replying to the session user.
func (h *Help) Contact(ctx context.Context, req SupportRequest) error {
	req.Subject = core.CleanString(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	return page.Perform(ctx, h.env.Toaster, h.env.validator(req), page.Action{
		Do: func(ctx context.Context) error {
			usr, ok := h.session.User()
			if !ok {
				return errors.New("no session user")
			}
			from := mail.Address{Name: usr.FullName, Address: usr.Email}
			h.mailer.SendMessages(&core.EmailMessage{
				To:          []mail.Address{h.support},
				ReplyTo:     &from,
				Subject:     "[Support] " + req.Subject,
				TextContent: fmt.Sprintf("%s\n\n-- \n%s (%s)", req.Message, from.String(), usr.Role),
			})
			return nil
		},
		Success: "Message sent! Our support team will get back to you soon.",
		Failure: "Failed to send message",
	})
}
