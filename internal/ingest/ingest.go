package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"mailtriage/internal/models"
	"mailtriage/internal/store"
	"mailtriage/internal/triage"

	"github.com/rs/zerolog"
)

// Incoming is the tuple an ingestion source hands the pipeline. MessageID is
// the natural key; sources without one (CSV exports) leave it empty and a
// stable key is derived from the message itself.
type Incoming struct {
	MessageID  string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt string
}

// Options selects the per-source ingestion variant
type Options struct {
	// Status stamped on admitted records (processed for CSV, new for mailbox)
	Status string
	// LengthBonus enables the short-body score bonus (mailbox path only)
	LengthBonus bool
	// MatchCategory sets the best-guess matched category (mailbox path only)
	MatchCategory bool
}

// Report summarizes one ingestion run
type Report struct {
	Rows   int `json:"rows"`
	Stored int `json:"stored"`
}

// Service runs the admission filter, classification and upsert for batches
// of incoming messages. One bad message never aborts the batch.
type Service struct {
	store  store.Store
	logger zerolog.Logger
}

// NewService creates an ingestion pipeline over the store
func NewService(s store.Store, logger zerolog.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Process classifies and upserts every admitted message in the batch.
// Messages whose subject fails the admission filter are skipped silently;
// messages that fail to store are logged and skipped.
func (s *Service) Process(batch []Incoming, opts Options) Report {
	var report Report

	for _, msg := range batch {
		report.Rows++

		if !triage.Admit(msg.Subject) {
			continue
		}

		c := triage.Classify(msg.Subject, msg.Body, msg.Sender, triage.Options{LengthBonus: opts.LengthBonus})

		rec := models.EmailRecord{
			MessageID:     naturalKey(msg),
			Sender:        msg.Sender,
			Subject:       msg.Subject,
			Body:          msg.Body,
			ReceivedAt:    normalizeTimestamp(msg.ReceivedAt),
			Sentiment:     c.Sentiment,
			Priority:      c.Priority,
			PriorityScore: c.PriorityScore,
			Extraction:    c.Extraction,
			Status:        opts.Status,
		}
		if opts.MatchCategory {
			rec.MatchedCategory = triage.MatchedCategory(msg.Subject)
		}

		if _, err := s.store.Upsert(rec); err != nil {
			s.logger.Warn().Err(err).Str("message_id", rec.MessageID).Msg("Failed to store email, skipping")
			continue
		}
		report.Stored++
	}

	return report
}

// naturalKey returns the message id, deriving a stable hash when the source
// did not supply one.
func naturalKey(msg Incoming) string {
	if msg.MessageID != "" {
		return msg.MessageID
	}
	sum := sha256.Sum256([]byte(msg.Sender + "\x00" + msg.Subject + "\x00" + msg.ReceivedAt))
	return hex.EncodeToString(sum[:])
}

// Accepted received-timestamp layouts, tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// normalizeTimestamp parses the raw received date into RFC 3339 UTC.
// Unparsable dates fall back to now rather than failing ingestion.
func normalizeTimestamp(raw string) string {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}
