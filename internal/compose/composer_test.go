package compose

import (
	"context"
	"strings"
	"testing"
	"time"

	"mailtriage/internal/models"
	"mailtriage/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urgentRecord() models.EmailRecord {
	return models.EmailRecord{
		ID:        "abc12345-6789-0000-1111-222233334444",
		MessageID: "msg-1",
		Sender:    "jane.doe@client.com",
		Subject:   "Urgent help needed - cannot access account",
		Body:      "I cannot access my account",
		Sentiment: models.SentimentNeutral,
		Priority:  models.PriorityUrgent,
		Extraction: models.Extraction{
			KeyPhrases: []string{"account", "access"},
		},
	}
}

func TestTemplateDraft_Structure(t *testing.T) {
	draft := TemplateDraft(urgentRecord())

	parts := strings.Split(draft, "\n\n")
	assert.GreaterOrEqual(t, len(parts), 3, "opening, body and closing separated by blank lines")
	assert.True(t, strings.HasPrefix(draft, "Dear jane.doe,"))
}

func TestTemplateDraft_IsDeterministic(t *testing.T) {
	rec := urgentRecord()
	assert.Equal(t, TemplateDraft(rec), TemplateDraft(rec))
}

func TestTemplateDraft_UrgentClosing(t *testing.T) {
	draft := TemplateDraft(urgentRecord())

	assert.Contains(t, draft, "within the next 2 hours")
	assert.Contains(t, draft, "#SP-ABC12345")
}

func TestTemplateDraft_NonUrgentClosing(t *testing.T) {
	rec := urgentRecord()
	rec.Priority = models.PriorityNotUrgent
	rec.Sentiment = models.SentimentNeutral
	rec.Subject = "Question about my support plan"

	draft := TemplateDraft(rec)
	assert.Contains(t, draft, "within 24 hours")
	assert.NotContains(t, draft, "#SP-")
}

func TestTemplateDraft_Openings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.EmailRecord)
		expected string
	}{
		{
			name: "outage apology for access subjects",
			mutate: func(r *models.EmailRecord) {
				r.Subject = "Cannot access dashboard"
				r.Priority = models.PriorityUrgent
			},
			expected: "sincerely apologize",
		},
		{
			name: "billing opening for charged subjects",
			mutate: func(r *models.EmailRecord) {
				r.Subject = "Support: charged twice"
				r.Sentiment = models.SentimentNegative
				r.Priority = models.PriorityNotUrgent
			},
			expected: "billing concern",
		},
		{
			name: "generic concern for other negative emails",
			mutate: func(r *models.EmailRecord) {
				r.Subject = "Very disappointed"
				r.Sentiment = models.SentimentNegative
				r.Priority = models.PriorityNotUrgent
			},
			expected: "I understand your concern",
		},
		{
			name: "friendly opening for calm emails",
			mutate: func(r *models.EmailRecord) {
				r.Subject = "Question about plans"
				r.Sentiment = models.SentimentNeutral
				r.Priority = models.PriorityNotUrgent
			},
			expected: "delighted to assist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := urgentRecord()
			tt.mutate(&rec)
			assert.Contains(t, TemplateDraft(rec), tt.expected)
		})
	}
}

func TestTemplateDraft_BodyParagraphs(t *testing.T) {
	tests := []struct {
		name     string
		phrases  []string
		expected string
	}{
		{"access group", []string{"password"}, "password reset link"},
		{"billing group", []string{"refund"}, "billing department"},
		{"integration group", []string{"integration"}, "integration capabilities"},
		{"pricing group", []string{"pricing"}, "pricing information"},
		{"fallback lists up to three phrases", []string{"widget", "gadget", "doodad", "extra"}, "widget, gadget, doodad"},
		{"fallback without phrases", nil, "your request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := urgentRecord()
			rec.Extraction.KeyPhrases = tt.phrases
			assert.Contains(t, TemplateDraft(rec), tt.expected)
		})
	}
}

func TestTemplateDraft_GroupOrderWins(t *testing.T) {
	rec := urgentRecord()
	// Both access and billing phrases present: access group comes first
	rec.Extraction.KeyPhrases = []string{"billing", "login"}
	assert.Contains(t, TemplateDraft(rec), "account access issue")
}

func TestTemplateDraft_SenderWithoutAddress(t *testing.T) {
	rec := urgentRecord()
	rec.Sender = ""
	assert.Contains(t, TemplateDraft(rec), "Dear valued customer,")
}

func TestComposeDraft_AppendsToStore(t *testing.T) {
	mem := store.NewMemory()
	c := NewComposer(mem, "", 5*time.Second)

	rec := urgentRecord()
	id, err := mem.Upsert(rec)
	require.NoError(t, err)
	rec.ID = id

	draft, err := c.ComposeDraft(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, ModelTemplate, draft.Model)
	assert.NotEmpty(t, draft.Draft)

	stored, err := mem.LatestDraft(id)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, stored.ID)
	assert.Equal(t, draft.Draft, stored.Draft)
}

func TestComposeDraft_SuccessiveDraftsSupersede(t *testing.T) {
	mem := store.NewMemory()
	c := NewComposer(mem, "", 5*time.Second)

	rec := urgentRecord()
	id, err := mem.Upsert(rec)
	require.NoError(t, err)
	rec.ID = id

	first, err := c.ComposeDraft(context.Background(), rec)
	require.NoError(t, err)
	second, err := c.ComposeDraft(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	latest, err := mem.LatestDraft(id)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}
