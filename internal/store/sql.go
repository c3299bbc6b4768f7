package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mailtriage/internal/models"

	_ "github.com/go-sql-driver/mysql" // mysql:// DSNs
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres:// DSNs
	_ "modernc.org/sqlite" // file-based embedded default
)

// SQL is a durable Store over two keyed tables: emails (unique message_id
// index enforces the natural key) and responses. Driver is detected from the
// URL; anything that is not mysql:// or postgres:// is treated as a sqlite
// file path.
type SQL struct {
	db *sqlx.DB
}

// OpenSQL connects, configures the pool and creates the schema
func OpenSQL(databaseURL string) (*SQL, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL not set")
	}

	driver := "sqlite"
	dsn := databaseURL
	switch {
	case strings.HasPrefix(databaseURL, "mysql://"):
		driver = "mysql"
		dsn = strings.TrimPrefix(databaseURL, "mysql://")
	case strings.HasPrefix(databaseURL, "postgres://"):
		driver = "postgres"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQL{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// NewSQL wraps an existing connection; used by tests with sqlmock
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

// createTables bootstraps the schema for the embedded sqlite default.
// MySQL and Postgres deployments are expected to provision the equivalent
// schema up front.
func (s *SQL) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS emails (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			message_id TEXT NOT NULL UNIQUE,
			sender TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			received_at TEXT NOT NULL DEFAULT '',
			sentiment TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			priority_score REAL NOT NULL DEFAULT 0,
			extraction TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'new',
			responded_at TEXT NOT NULL DEFAULT '',
			matched_category TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS responses (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			email_id TEXT NOT NULL,
			draft TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			final INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_email_id ON responses(email_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// emailRow flattens EmailRecord for sqlx scanning; extraction travels as a
// JSON text column.
type emailRow struct {
	ID              string  `db:"id"`
	MessageID       string  `db:"message_id"`
	Sender          string  `db:"sender"`
	Subject         string  `db:"subject"`
	Body            string  `db:"body"`
	ReceivedAt      string  `db:"received_at"`
	Sentiment       string  `db:"sentiment"`
	Priority        string  `db:"priority"`
	PriorityScore   float64 `db:"priority_score"`
	Extraction      string  `db:"extraction"`
	Status          string  `db:"status"`
	RespondedAt     string  `db:"responded_at"`
	MatchedCategory string  `db:"matched_category"`
}

func toRow(rec models.EmailRecord) (emailRow, error) {
	ext, err := json.Marshal(rec.Extraction)
	if err != nil {
		return emailRow{}, fmt.Errorf("failed to encode extraction: %w", err)
	}
	return emailRow{
		ID:              rec.ID,
		MessageID:       rec.MessageID,
		Sender:          rec.Sender,
		Subject:         rec.Subject,
		Body:            rec.Body,
		ReceivedAt:      rec.ReceivedAt,
		Sentiment:       rec.Sentiment,
		Priority:        rec.Priority,
		PriorityScore:   rec.PriorityScore,
		Extraction:      string(ext),
		Status:          rec.Status,
		RespondedAt:     rec.RespondedAt,
		MatchedCategory: rec.MatchedCategory,
	}, nil
}

func (r emailRow) toRecord() models.EmailRecord {
	rec := models.EmailRecord{
		ID:              r.ID,
		MessageID:       r.MessageID,
		Sender:          r.Sender,
		Subject:         r.Subject,
		Body:            r.Body,
		ReceivedAt:      r.ReceivedAt,
		Sentiment:       r.Sentiment,
		Priority:        r.Priority,
		PriorityScore:   r.PriorityScore,
		Status:          r.Status,
		RespondedAt:     r.RespondedAt,
		MatchedCategory: r.MatchedCategory,
	}
	// A corrupt extraction column degrades to an empty extraction
	_ = json.Unmarshal([]byte(r.Extraction), &rec.Extraction)
	return rec
}

func (s *SQL) Upsert(rec models.EmailRecord) (string, error) {
	var existingID string
	err := s.db.Get(&existingID, s.db.Rebind("SELECT id FROM emails WHERE message_id = ?"), rec.MessageID)
	if err == nil {
		rec.ID = existingID
		row, err := toRow(rec)
		if err != nil {
			return "", err
		}
		_, err = s.db.NamedExec(`UPDATE emails SET
			sender = :sender, subject = :subject, body = :body,
			received_at = :received_at, sentiment = :sentiment,
			priority = :priority, priority_score = :priority_score,
			extraction = :extraction, status = :status,
			responded_at = :responded_at, matched_category = :matched_category
			WHERE id = :id`, row)
		if err != nil {
			return "", fmt.Errorf("failed to update email: %w", err)
		}
		return existingID, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row, rowErr := toRow(rec)
	if rowErr != nil {
		return "", rowErr
	}
	_, err = s.db.NamedExec(`INSERT INTO emails
		(id, message_id, sender, subject, body, received_at, sentiment,
		 priority, priority_score, extraction, status, responded_at, matched_category)
		VALUES
		(:id, :message_id, :sender, :subject, :body, :received_at, :sentiment,
		 :priority, :priority_score, :extraction, :status, :responded_at, :matched_category)`, row)
	if err != nil {
		return "", fmt.Errorf("failed to insert email: %w", err)
	}
	return rec.ID, nil
}

func (s *SQL) Get(id string) (models.EmailRecord, error) {
	var row emailRow
	err := s.db.Get(&row, s.db.Rebind(`SELECT id, message_id, sender, subject, body,
		received_at, sentiment, priority, priority_score, extraction,
		status, responded_at, matched_category
		FROM emails WHERE id = ?`), id)
	if err != nil {
		return models.EmailRecord{}, ErrNotFound
	}
	return row.toRecord(), nil
}

func (s *SQL) List(limit int) ([]models.EmailRecord, error) {
	query := `SELECT id, message_id, sender, subject, body,
		received_at, sentiment, priority, priority_score, extraction,
		status, responded_at, matched_category
		FROM emails ORDER BY priority_score DESC, seq ASC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []emailRow
	err := s.db.Select(&rows, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	recs := make([]models.EmailRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toRecord())
	}
	return recs, nil
}

func (s *SQL) SetStatus(id, status string) error {
	_, err := s.db.Exec(s.db.Rebind("UPDATE emails SET status = ? WHERE id = ?"), status, id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func (s *SQL) SetResponded(id, respondedAt string) error {
	_, err := s.db.Exec(s.db.Rebind("UPDATE emails SET status = ?, responded_at = ? WHERE id = ?"),
		models.StatusResponded, respondedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark responded: %w", err)
	}
	return nil
}

func (s *SQL) AddResponse(emailID, draft, model string) (string, error) {
	d := models.ResponseDraft{
		ID:        uuid.NewString(),
		EmailID:   emailID,
		Draft:     draft,
		Model:     model,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.Exec(s.db.Rebind(`INSERT INTO responses (id, email_id, draft, model, created_at, final)
		VALUES (?, ?, ?, ?, ?, 0)`), d.ID, d.EmailID, d.Draft, d.Model, d.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert draft: %w", err)
	}
	return d.ID, nil
}

func (s *SQL) LatestDraft(emailID string) (models.ResponseDraft, error) {
	var d models.ResponseDraft
	err := s.db.Get(&d, s.db.Rebind(`SELECT id, email_id, draft, model, created_at, final
		FROM responses WHERE email_id = ? AND final = 0
		ORDER BY seq DESC LIMIT 1`), emailID)
	if err != nil {
		return models.ResponseDraft{}, ErrNotFound
	}
	return d, nil
}

func (s *SQL) FinalizeDraft(draftID string) error {
	_, err := s.db.Exec(s.db.Rebind("UPDATE responses SET final = 1 WHERE id = ?"), draftID)
	if err != nil {
		return fmt.Errorf("failed to finalize draft: %w", err)
	}
	return nil
}

func (s *SQL) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM emails"); err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return n, nil
}

func (s *SQL) ClearAll() error {
	if _, err := s.db.Exec("DELETE FROM emails"); err != nil {
		return fmt.Errorf("failed to clear emails: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM responses"); err != nil {
		return fmt.Errorf("failed to clear responses: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *SQL) Close() error {
	return s.db.Close()
}
