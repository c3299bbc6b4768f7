package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// ErrorResponse represents a generic error payload
// @Description Error response payload
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"email not found"`
}

// IngestResponse reports the outcome of a CSV or mailbox ingestion run
// @Description Ingestion result payload
type IngestResponse struct {
	Success bool   `json:"success" example:"true"`
	Rows    int    `json:"rows" example:"20"`   // Candidate messages seen
	Stored  int    `json:"stored" example:"12"` // Messages admitted and upserted
	Reason  string `json:"reason,omitempty" example:""`
}

// LoadCSVRequest selects the CSV file to ingest; empty path uses the
// configured default
type LoadCSVRequest struct {
	Path string `json:"path,omitempty"`
}

// DraftResponse carries a freshly generated reply draft
// @Description Draft generation payload
type DraftResponse struct {
	Success bool   `json:"success" example:"true"`
	DraftID string `json:"draft_id,omitempty"`
	Draft   string `json:"draft,omitempty"`
	Model   string `json:"model,omitempty" example:"template"`
	Error   string `json:"error,omitempty"`
}

// SendRequest optionally overrides the draft text to send
type SendRequest struct {
	Draft string `json:"draft,omitempty"`
}

// SendResponse reports the outcome of sending one reply
// @Description Send result payload
type SendResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
	SentAt  string `json:"sent_at,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkSendResponse reports the outcome of a bulk send run
// @Description Bulk send result payload
type BulkSendResponse struct {
	Sent   int      `json:"sent" example:"3"`
	Failed int      `json:"failed" example:"1"`
	Errors []string `json:"errors,omitempty"`
}

// ClearResponse confirms a store reset
type ClearResponse struct {
	ClearedEmails    bool `json:"cleared_emails"`
	ClearedResponses bool `json:"cleared_responses"`
}
