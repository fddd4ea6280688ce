// Package mailer renders and delivers notification e-mails.
package mailer

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/config"
)

// Message is a single HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the mailer selected by cfg.Provider.
func New(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail.smtp_host is required for the smtp provider")
		}
		return NewSMTP(cfg), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mail.resend_api_key is required for the resend provider")
		}
		return NewResend(cfg.ResendAPIKey, cfg.FromEmail), nil
	case "log", "":
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}
