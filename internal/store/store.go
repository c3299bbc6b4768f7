package store

import (
	"errors"

	"mailtriage/internal/models"
)

// ErrNotFound is returned when a record or draft id is unknown
var ErrNotFound = errors.New("not found")

// Store owns all email records and reply drafts. Records are keyed by a
// generated id and indexed by their natural key (message id); drafts only
// reference their email, many drafts may point at one record.
type Store interface {
	// Upsert inserts the record or, when its MessageID already exists,
	// overwrites the existing record in place and returns the existing id.
	Upsert(rec models.EmailRecord) (string, error)

	// Get returns the full record or ErrNotFound.
	Get(id string) (models.EmailRecord, error)

	// List returns up to limit records sorted by priority score descending;
	// records with equal scores keep their insertion order. A limit of zero
	// or less returns everything.
	List(limit int) ([]models.EmailRecord, error)

	// SetStatus overwrites the status field; unknown ids are a no-op.
	SetStatus(id, status string) error

	// SetResponded marks the record responded and stamps the responded
	// timestamp; unknown ids are a no-op.
	SetResponded(id, respondedAt string) error

	// AddResponse appends a new draft for the email and returns its id.
	AddResponse(emailID, draft, model string) (string, error)

	// LatestDraft returns the newest draft for the email that has not been
	// sent yet, or ErrNotFound.
	LatestDraft(emailID string) (models.ResponseDraft, error)

	// FinalizeDraft marks a draft as sent; unknown ids are a no-op.
	FinalizeDraft(draftID string) error

	// Count returns the number of stored email records.
	Count() (int, error)

	// ClearAll empties both collections. Reset and test surface only.
	ClearAll() error
}
