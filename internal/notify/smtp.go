package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers notifications over SMTP with STARTTLS.
type SMTPSender struct {
	appName  string
	from     string
	password string
	host     string
	port     int
}

// SMTPConfig holds the SMTP sender parameters.
type SMTPConfig struct {
	AppName  string
	From     string
	Password string
	Host     string
	Port     int
}

// NewSMTPSender creates an SMTPSender from the given configuration.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		appName:  cfg.AppName,
		from:     cfg.From,
		password: cfg.Password,
		host:     cfg.Host,
		port:     cfg.Port,
	}
}

// SendEmail composes a MIME HTML message and submits it to the configured
// SMTP relay. The context is checked before dialing; net/smtp does not
// support cancellation mid-send.
func (s *SMTPSender) SendEmail(ctx context.Context, recipient, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", recipient, err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.appName, s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", recipient, err)
	}
	return nil
}

// Compile-time interface check.
var _ Mailer = (*SMTPSender)(nil)
