// Package mailer delivers plain-text email through SMTP, SendGrid or the log.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"moneypool-backend/internal/logger"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
	CC      []string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures a Sender.
type Config struct {
	Provider       string // "smtp", "sendgrid" or "log"
	Host           string
	Port           int
	User           string
	Password       string
	From           string
	FromName       string
	SendGridAPIKey string
}

// New builds the Sender named by cfg.Provider. An empty provider means smtp
// when a host is configured and log otherwise.
func New(cfg Config) (Sender, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "log"
		if cfg.Host != "" {
			provider = "smtp"
		}
	}

	switch provider {
	case "smtp":
		return NewSMTPSender(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.From, cfg.FromName), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an API key")
		}
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName), nil
	case "log":
		return LogSender{}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}

// LogSender writes messages to the application log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.InfoContext(ctx, "Email (log only)", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.Body))
	return nil
}
