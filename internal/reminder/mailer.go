// Package reminder runs the scheduled reminder and report emails: a daily
// sweep at a fixed morning hour and a weekly progress summary on Sunday
// evenings. It reads the store directly and shares no state with the API
// layer.
package reminder

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer dispatches a single HTML email. The scheduler depends on this
// interface rather than an SMTP client so tests can capture sends.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail over SMTP via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("reminder: sending mail to %s: %w", to, err)
	}
	return nil
}
