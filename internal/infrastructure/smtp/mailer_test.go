package smtp

import (
	"bytes"
	"testing"

	"github.com/cartify-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_Headers(t *testing.T) {
	msg := newMessage("no-reply@cartify.local", []string{"a@x.com"}, "Cartify - Password Reset OTP", "<p>123456</p>")

	assert.Equal(t, []string{"no-reply@cartify.local"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Cartify - Password Reset OTP"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestSendHTML_NoRecipients(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "localhost", SMTPPort: 1025, SMTPFrom: "x@y"})
	err := m.SendHTML(nil, "s", "b")
	assert.ErrorContains(t, err, "no recipients")
}
