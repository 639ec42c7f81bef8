package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/idefi-ai/agents/lib/config"
)

// SMTPSender sends mails directly to an SMTP relay.
type SMTPSender struct {
	conf config.SMTPConfig
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender returns a sender for the relay in conf. Authentication is only used when user and password are set.
func NewSMTPSender(conf config.SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if conf.User != "" && conf.Password != "" {
		auth = smtp.PlainAuth("", conf.User, conf.Password, conf.Host)
	}

	return &SMTPSender{conf: conf, auth: auth, send: smtp.SendMail}
}

// Send delivers one html mail.
func (s *SMTPSender) Send(ctx context.Context, subject, body, to string) error {
	if to == "" {
		return ErrNoRecipient
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	to = sanitizeHeader(to)
	addr := s.conf.Host + ":" + s.conf.Port

	if err := s.send(addr, s.auth, s.conf.From, []string{to}, s.message(subject, body, to)); err != nil {
		return fmt.Errorf("smtp %s: %w", addr, err)
	}

	return nil
}

func (s *SMTPSender) message(subject, body, to string) []byte {
	from := s.conf.From
	if strings.TrimSpace(s.conf.FromName) != "" {
		from = fmt.Sprintf("%s <%s>", s.conf.FromName, s.conf.From)
	}

	lines := []string{
		"From: " + sanitizeHeader(from),
		"To: " + to,
		"Subject: " + sanitizeHeader(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}

	return []byte(strings.Join(lines, "\r\n"))
}

// sanitizeHeader drops line breaks so values cannot inject extra headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
