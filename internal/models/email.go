package models

// Sentiment labels produced by the triage analyzer
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Priority labels produced by the triage analyzer
const (
	PriorityUrgent    = "urgent"
	PriorityNotUrgent = "not_urgent"
)

// Email lifecycle statuses
const (
	StatusNew       = "new"
	StatusProcessed = "processed"
	StatusResponded = "responded"
	StatusPending   = "pending"
)

// Extraction holds the structured information pulled out of an email body
type Extraction struct {
	Phones        []string `json:"phones" db:"-"`
	Emails        []string `json:"emails" db:"-"`
	KeyPhrases    []string `json:"key_phrases" db:"-"`
	Sentiment     string   `json:"sentiment,omitempty" db:"-"`
	UrgencyReason string   `json:"urgency_reason,omitempty" db:"-"`
}

// EmailRecord represents one ingested support email.
// MessageID is the natural key: re-ingesting the same MessageID updates the
// existing record in place. ReceivedAt and RespondedAt are RFC 3339 strings;
// stats aggregation skips values that fail to parse.
type EmailRecord struct {
	ID              string     `json:"id" db:"id"`
	MessageID       string     `json:"message_id" db:"message_id"`
	Sender          string     `json:"sender" db:"sender"`
	Subject         string     `json:"subject" db:"subject"`
	Body            string     `json:"body,omitempty" db:"body"`
	ReceivedAt      string     `json:"received_at" db:"received_at"`
	Sentiment       string     `json:"sentiment" db:"sentiment"`
	Priority        string     `json:"priority" db:"priority"`
	PriorityScore   float64    `json:"priority_score" db:"priority_score"`
	Extraction      Extraction `json:"extraction" db:"-"`
	Status          string     `json:"status" db:"status"`
	RespondedAt     string     `json:"responded_at,omitempty" db:"responded_at"`
	MatchedCategory string     `json:"matched_category,omitempty" db:"matched_category"`
}

// ResponseDraft represents one generated or sent reply. Drafts for the same
// email supersede each other; the one that gets sent is marked Final.
type ResponseDraft struct {
	ID        string `json:"id" db:"id"`
	EmailID   string `json:"email_id" db:"email_id"`
	Draft     string `json:"draft" db:"draft"`
	Model     string `json:"model" db:"model"`
	CreatedAt string `json:"created_at" db:"created_at"`
	Final     bool   `json:"final" db:"final"`
}

// Stats represents the aggregate dashboard numbers computed over the store
type Stats struct {
	TotalLast24h           int            `json:"total_last_24h"`
	Urgent                 int            `json:"urgent"`
	Responded              int            `json:"responded"`
	Pending                int            `json:"pending"`
	SentimentCounts        map[string]int `json:"sentiment_counts"`
	AvgResponseTimeMinutes *float64       `json:"avg_response_time_minutes"`
	TotalEmails            int            `json:"total_emails"`
}
