// Package mail sends transactional email. SMTP settings come from the
// server configuration; when no SMTP host is configured the console sender
// is used instead, which just logs outgoing messages.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/avolkovs/runbase/internal/logging"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(to []string, subject, body string) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates an SMTP-backed Mailer.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// ConsoleSender logs messages instead of delivering them. Development only.
type ConsoleSender struct {
	logger logging.Logger
}

func NewConsoleSender(logger logging.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(to []string, subject, body string) error {
	s.logger.Info(context.Background(), "outgoing email",
		"to", fmt.Sprintf("%v", to), "subject", subject, "body", body)
	return nil
}
