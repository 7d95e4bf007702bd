package emailsvc

import (
	"net/mail"
	"strings"
	"testing"
	texttmpl "text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core"
	logsvc "github.com/trezcool/campusflow/services/logger"
)

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig(), logsvc.NewTestLogger())
	to := []mail.Address{{Name: "Jane Doe", Address: "jane@example.com"}}

	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "Plain", BodyStr: "hello"},
		&core.EmailMessage{
			To:           to,
			Subject:      "Templated",
			TextTemplate: texttmpl.Must(texttmpl.New("t").Parse("Hi {{.Name}}")),
			TemplateData: map[string]string{"Name": "Jane"},
		},
		&core.EmailMessage{Subject: "No recipient", BodyStr: "lost"},
		&core.EmailMessage{To: to, Subject: "No content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Equal(t, "Hi Jane", sent[1].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleCompose(t *testing.T) {
	svc := &consoleService{
		defaultFromEmail: mail.Address{Name: "CampusFlow", Address: "noreply@localhost"},
		subjPrefix:       "[CampusFlow] ",
	}
	body, err := svc.compose(core.EmailMessage{
		To:          []mail.Address{{Address: "a@example.com"}, {Address: "b@example.com"}},
		Subject:     "Welcome",
		TextContent: "text body",
		HTMLContent: "<p>html body</p>",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"Subject: [CampusFlow] Welcome",
		"To: <a@example.com>, <b@example.com>",
		"text body",
		"<p>html body</p>",
	} {
		assert.True(t, strings.Contains(body, want), "missing %q", want)
	}
	assert.False(t, strings.Contains(body, "CC:"))
}
