package smtp

import (
	"errors"
	"fmt"

	"github.com/cartify-api/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends HTML email.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

type mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		from:   cfg.SMTPFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (m *mailer) SendHTML(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return errors.New("no recipients specified")
	}
	msg := newMessage(m.from, to, subject, htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	return nil
}

func newMessage(from string, to []string, subject, htmlBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return msg
}
