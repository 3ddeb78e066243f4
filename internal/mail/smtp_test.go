package mail

import (
	"strings"
	"testing"

	"naalli/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer(t *testing.T) {
	_, err := NewSMTPMailer(config.MailConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	m, err := NewSMTPMailer(config.MailConfig{
		Host:     "smtp.gmail.com",
		Port:     465,
		Username: "agenda@naalli.com",
		Password: "secret",
		From:     "agenda@naalli.com",
	})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestBuildMessage(t *testing.T) {
	subject, body := RecoveryMessage("AB12CD")
	msg := string(BuildMessage("agenda@naalli.com", "ana@naalli.com", subject, body+"\nAté logo"))

	headers, content, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)
	assert.Contains(t, headers, "From: agenda@naalli.com\r\n")
	assert.Contains(t, headers, "To: ana@naalli.com\r\n")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=UTF-8")
	// non-ascii subjects are encoded
	assert.Contains(t, headers, "Subject: =?utf-8?q?")
	assert.Contains(t, content, "AB12CD")
	assert.Contains(t, content, "\r\nAté logo")
}
