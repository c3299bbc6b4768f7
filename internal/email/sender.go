package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// Message is one outbound reply
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers reply messages. Implementations are blocking network
// calls; callers bound them with the context deadline.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Config selects and configures the outbound provider
type Config struct {
	Provider string // "sendgrid" or "smtp"
	From     string
	FromName string

	SendGridAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

// NewSender builds the configured provider
func NewSender(cfg Config) (Sender, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		return NewSendGridSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
}

// ValidateAddress checks for injection characters and RFC 5322 compliance
func ValidateAddress(address string) error {
	if strings.ContainsAny(address, "\r\n,;") {
		return fmt.Errorf("address contains invalid characters")
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

func validateMessage(from string, msg Message) error {
	if err := ValidateAddress(from); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := ValidateAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	// Reject headers with CRLF to prevent injection
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	return nil
}
