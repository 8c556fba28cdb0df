package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
)

func testConf() *core.Config {
	return &core.Config{AppName: "Masomo", DefaultFromEmail: "noreply@masomo.test"}
}

func TestConsoleService(t *testing.T) {
	svc := NewConsoleServiceMock(testConf())
	var out bytes.Buffer
	svc.out = &out

	svc.SendMessages(
		&core.EmailMessage{
			To:          []mail.Address{{Name: "Support", Address: "support@masomo.test"}},
			ReplyTo:     &mail.Address{Name: "Jane Doe", Address: "jane@school.test"},
			Subject:     "Help needed",
			TextContent: "I cannot mark attendance",
		},
		&core.EmailMessage{Subject: "no recipients", TextContent: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@masomo.test"}}, Subject: "no content"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Help needed", sent[0].Subject)
	assert.Contains(t, out.String(), "Subject: [Masomo] Help needed")
	assert.Contains(t, out.String(), `Reply-To: "Jane Doe" <jane@school.test>`)
	assert.Contains(t, out.String(), "I cannot mark attendance")
	assert.NotContains(t, out.String(), "text/html")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf(), nil)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Support", Address: "support@masomo.test"}},
		Cc:          []mail.Address{{Address: "cc@masomo.test"}},
		ReplyTo:     &mail.Address{Address: "jane@school.test"},
		Subject:     "Help needed",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Masomo] Help needed", p.Subject)
	assert.Equal(t, "support@masomo.test", p.To[0].Address)
	assert.Equal(t, "cc@masomo.test", p.CC[0].Address)
	assert.Equal(t, "noreply@masomo.test", m.From.Address)
	assert.Equal(t, "jane@school.test", m.ReplyTo.Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
