package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid address", address: "user@example.com", wantErr: false},
		{name: "valid with plus tag", address: "user+tag@example.com", wantErr: false},
		{name: "missing domain", address: "user@", wantErr: true},
		{name: "missing local part", address: "@example.com", wantErr: true},
		{name: "crlf injection", address: "user@example.com\r\nBcc: evil@example.com", wantErr: true},
		{name: "comma separated list", address: "a@example.com,b@example.com", wantErr: true},
		{name: "empty", address: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessageRejectsHeaderInjection(t *testing.T) {
	err := validateMessage("support@example.com", Message{
		To:      "customer@example.com",
		Subject: "Re: Help\r\nBcc: evil@example.com",
		Body:    "hi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}

func TestNewSenderSelectsProvider(t *testing.T) {
	s, err := NewSender(Config{Provider: "sendgrid", SendGridAPIKey: "k", From: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", s.Name())

	s, err = NewSender(Config{Provider: "smtp", SMTPHost: "mail.example.com", From: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())

	// smtp is the default
	s, err = NewSender(Config{From: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())

	_, err = NewSender(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestSanitizeSMTPError(t *testing.T) {
	assert.EqualError(t, sanitizeSMTPError(errors.New("535 authentication credentials invalid")), "SMTP authentication failed")
	assert.EqualError(t, sanitizeSMTPError(errors.New("x509: certificate signed by unknown authority")), "TLS certificate error")
	assert.EqualError(t, sanitizeSMTPError(errors.New("connection refused")), "SMTP error: check your configuration")
}
