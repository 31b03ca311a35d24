// Package mail sends transactional email over SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/beaufnet/quotes-api/internal/core/domain"
)

// Config captures the SMTP settings and the public base URL used to build
// confirmation links.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// Sender delivers confirmation emails. Implements queue.MailSender.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// SendConfirmation mails the account-confirmation link to the user.
func (s *Sender) SendConfirmation(user *domain.User, token string) error {
	confirmURL := fmt.Sprintf("%s/confirm?token=%s", strings.TrimRight(s.cfg.BaseURL, "/"), token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", user.Email)
	fmt.Fprintf(&b, "Subject: Welcome! Confirm your email\r\n")
	fmt.Fprintf(&b, "\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", user.Username)
	fmt.Fprintf(&b, "Confirm your account by visiting:\r\n%s\r\n\r\n", confirmURL)
	fmt.Fprintf(&b, "If you did not sign up, ignore this message.\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{user.Email}, []byte(b.String())); err != nil {
		return fmt.Errorf("cannot send mail: %w", err)
	}
	return nil
}
