package mailer

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. The core treats delivery as fire-and-forget.
type Mailer interface {
	SendPasswordResetCode(to, nickname, code string) error
	SendTemporaryPassword(to, nickname, password string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *smtpMailer) SendPasswordResetCode(to, nickname, code string) error {
	body := fmt.Sprintf(
		"Hi %s,<br><br>Your password reset code is <b>%s</b>.<br>It expires in 10 minutes.",
		nickname, code,
	)
	return m.send(to, "Password reset code", body)
}

func (m *smtpMailer) SendTemporaryPassword(to, nickname, password string) error {
	body := fmt.Sprintf(
		"Hi %s,<br><br>Your temporary password is <b>%s</b>.<br>Please change it after signing in.",
		nickname, password,
	)
	return m.send(to, "Temporary password issued", body)
}

// NewLogMailer returns a Mailer that only logs, for development setups
// without SMTP credentials.
func NewLogMailer() Mailer {
	return logMailer{}
}

type logMailer struct{}

func (logMailer) SendPasswordResetCode(to, nickname, code string) error {
	log.Printf("password reset code for %s: %s", to, code)
	return nil
}

func (logMailer) SendTemporaryPassword(to, nickname, password string) error {
	log.Printf("temporary password for %s: %s", to, password)
	return nil
}

func (m *smtpMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
