package ingest

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"mailtriage/internal/triage"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"
)

// Body size cap for fetched mailbox messages
const maxBodyBytes = 10000

// MailboxConfig holds the IMAP connection settings
type MailboxConfig struct {
	Server   string
	Port     int
	Email    string
	Password string
	Folder   string
	Window   time.Duration // how far back to search
	Timeout  time.Duration // dial and command timeout
}

// Mailbox fetches candidate support emails over IMAP. Fetching is a
// blocking network operation bounded by the configured timeout; a failed
// connection is reported to the caller, one failed message is skipped.
type Mailbox struct {
	cfg    MailboxConfig
	logger zerolog.Logger
	client *client.Client
}

// NewMailbox creates a mailbox fetcher; folder defaults to INBOX, the
// search window to 7 days and the timeout to 30 seconds.
func NewMailbox(cfg MailboxConfig, logger zerolog.Logger) *Mailbox {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.Window <= 0 {
		cfg.Window = 7 * 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailbox{cfg: cfg, logger: logger}
}

// Connect dials the IMAP server over TLS and logs in
func (m *Mailbox) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)

	m.logger.Info().Str("server", addr).Msg("Connecting to IMAP server")

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	c, err := client.DialWithDialerTLS(dialer, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	c.Timeout = m.cfg.Timeout

	if err := c.Login(m.cfg.Email, m.cfg.Password); err != nil {
		_ = c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	m.client = c
	return nil
}

// Disconnect closes the IMAP session
func (m *Mailbox) Disconnect() error {
	if m.client != nil {
		return m.client.Logout()
	}
	return nil
}

// Fetch returns up to limit recent messages whose subject matches the
// mailbox filter table. The caller runs the result through the ingestion
// pipeline, which applies the canonical admission filter again.
func (m *Mailbox) Fetch(ctx context.Context, limit int) ([]Incoming, error) {
	if m.client == nil {
		return nil, fmt.Errorf("not connected to IMAP server")
	}
	if limit <= 0 {
		limit = 50
	}

	if _, err := m.client.Select(m.cfg.Folder, true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", m.cfg.Folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().Add(-m.cfg.Window)

	ids, err := m.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	// Newest first when the window holds more than we want
	if len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- m.client.Fetch(seqset, items, messages)
	}()

	var batch []Incoming
	for msg := range messages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		in, ok := m.convert(msg, section)
		if !ok {
			continue
		}
		batch = append(batch, in)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return batch, nil
}

// convert turns one fetched message into an ingestion tuple; malformed
// messages are skipped rather than failing the batch.
func (m *Mailbox) convert(msg *imap.Message, section *imap.BodySectionName) (Incoming, bool) {
	if msg == nil || msg.Envelope == nil {
		return Incoming{}, false
	}

	subject := msg.Envelope.Subject
	if !subjectMatchesFilters(subject) {
		return Incoming{}, false
	}

	var sender string
	if len(msg.Envelope.From) > 0 {
		sender = msg.Envelope.From[0].Address()
	}

	body, err := extractTextBody(msg.GetBody(section))
	if err != nil {
		m.logger.Warn().Err(err).Str("subject", subject).Msg("Failed to parse message body, skipping")
		return Incoming{}, false
	}

	return Incoming{
		MessageID:  msg.Envelope.MessageId,
		Sender:     sender,
		Subject:    subject,
		Body:       body,
		ReceivedAt: msg.Envelope.Date.UTC().Format(time.RFC3339),
	}, true
}

// subjectMatchesFilters applies the richer mailbox filter table used for
// inbox search querying.
func subjectMatchesFilters(subject string) bool {
	s := strings.ToLower(subject)
	for _, term := range triage.MailboxSearchTerms() {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// extractTextBody walks the MIME parts and returns the first plain-text
// part, falling back to HTML when no plain text exists. Output is capped.
func extractTextBody(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	var plain, html strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			_, _ = io.Copy(&plain, io.LimitReader(part.Body, maxBodyBytes))
		case "text/html":
			if html.Len() == 0 {
				_, _ = io.Copy(&html, io.LimitReader(part.Body, maxBodyBytes))
			}
		}
		if plain.Len() >= maxBodyBytes {
			break
		}
	}

	body := plain.String()
	if body == "" {
		body = html.String()
	}
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	return body, nil
}
