package ingest

import (
	"strings"
	"testing"
	"time"

	"mailtriage/internal/models"
	"mailtriage/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewService(mem, zerolog.Nop()), mem
}

func TestProcess_AdmissionFilter(t *testing.T) {
	svc, mem := newService(t)

	report := svc.Process([]Incoming{
		{MessageID: "a", Subject: "Support needed", Body: "please assist", ReceivedAt: "2025-06-01T10:00:00Z"},
		{MessageID: "b", Subject: "Monthly newsletter", Body: "read all about it", ReceivedAt: "2025-06-01T10:00:00Z"},
		{MessageID: "c", Subject: "Help with billing", Body: "charged twice", ReceivedAt: "2025-06-01T10:00:00Z"},
	}, Options{Status: models.StatusProcessed})

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 2, report.Stored)

	n, err := mem.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProcess_ClassifiesAndStamps(t *testing.T) {
	svc, mem := newService(t)

	report := svc.Process([]Incoming{{
		MessageID:  "msg-1",
		Sender:     "angry@client.com",
		Subject:    "URGENT support request",
		Body:       "The system is down and I am very frustrated. Call 555-123-4567.",
		ReceivedAt: "2025-06-01T10:00:00Z",
	}}, Options{Status: models.StatusProcessed})

	require.Equal(t, 1, report.Stored)

	recs, err := mem.List(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, models.PriorityUrgent, rec.Priority)
	assert.Equal(t, models.SentimentNegative, rec.Sentiment)
	assert.Equal(t, 7.0, rec.PriorityScore)
	assert.Equal(t, models.StatusProcessed, rec.Status)
	assert.Equal(t, "2025-06-01T10:00:00Z", rec.ReceivedAt)
	assert.Equal(t, []string{"555-123-4567"}, rec.Extraction.Phones)
	assert.Empty(t, rec.MatchedCategory)
}

func TestProcess_MailboxVariant(t *testing.T) {
	svc, mem := newService(t)

	svc.Process([]Incoming{{
		MessageID:  "msg-1",
		Sender:     "a@b.com",
		Subject:    "Help: invoice issue",
		Body:       "there is an issue",
		ReceivedAt: "2025-06-01T10:00:00Z",
	}}, Options{Status: models.StatusNew, LengthBonus: true, MatchCategory: true})

	recs, err := mem.List(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, models.StatusNew, rec.Status)
	assert.Equal(t, "billing", rec.MatchedCategory)
	// not urgent, negative ("issue") plus the short-body bonus
	assert.InDelta(t, 2.0+(1.0-17.0/5000.0), rec.PriorityScore, 1e-9)
}

func TestProcess_ReingestUpdatesInPlace(t *testing.T) {
	svc, mem := newService(t)

	opts := Options{Status: models.StatusProcessed}
	svc.Process([]Incoming{{MessageID: "msg-1", Subject: "Support", Body: "first body", ReceivedAt: "2025-06-01T10:00:00Z"}}, opts)
	svc.Process([]Incoming{{MessageID: "msg-1", Subject: "Support", Body: "second body", ReceivedAt: "2025-06-01T10:00:00Z"}}, opts)

	n, _ := mem.Count()
	assert.Equal(t, 1, n)

	recs, err := mem.List(1)
	require.NoError(t, err)
	assert.Equal(t, "second body", recs[0].Body)
}

func TestProcess_MalformedDateFallsBackToNow(t *testing.T) {
	svc, mem := newService(t)

	before := time.Now().UTC().Add(-time.Minute)
	svc.Process([]Incoming{{MessageID: "msg-1", Subject: "Support", Body: "hi", ReceivedAt: "last tuesday"}}, Options{Status: models.StatusProcessed})

	recs, err := mem.List(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	ts, err := time.Parse(time.RFC3339, recs[0].ReceivedAt)
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}

func TestProcess_SynthesizesNaturalKey(t *testing.T) {
	svc, mem := newService(t)

	opts := Options{Status: models.StatusProcessed}
	row := Incoming{Sender: "a@b.com", Subject: "Support request", Body: "v1", ReceivedAt: "2025-06-01T10:00:00Z"}
	svc.Process([]Incoming{row}, opts)

	row.Body = "v2"
	svc.Process([]Incoming{row}, opts)

	// Same sender/subject/date resolves to the same synthetic key
	n, _ := mem.Count()
	assert.Equal(t, 1, n)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"rfc3339 passes through", "2025-06-01T10:00:00Z", "2025-06-01T10:00:00Z"},
		{"isoformat without zone", "2025-06-01T10:00:00", "2025-06-01T10:00:00Z"},
		{"space separated", "2025-06-01 10:00:00", "2025-06-01T10:00:00Z"},
		{"date only", "2025-06-01", "2025-06-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTimestamp(tt.input))
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"sender,subject,body,sent_date",
		`alice@corp.com,Support request,"Help, something broke",2025-06-01T09:00:00`,
		"bob@corp.com,Hello,just hi,2025-06-01T10:00:00",
	}, "\n")

	batch, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "alice@corp.com", batch[0].Sender)
	assert.Equal(t, "Support request", batch[0].Subject)
	assert.Equal(t, "Help, something broke", batch[0].Body)
	assert.Equal(t, "2025-06-01T09:00:00", batch[0].ReceivedAt)
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	input := strings.Join([]string{
		"Subject, Sender ,body,sent_date",
		"Support,a@b.com,hello,2025-06-01",
	}, "\n")

	batch, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "Support", batch[0].Subject)
	assert.Equal(t, "a@b.com", batch[0].Sender)
}

func TestReadCSV_MissingColumnsAreEmpty(t *testing.T) {
	input := "sender,subject\na@b.com,Support request\n"

	batch, err := readCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Empty(t, batch[0].Body)
	assert.Empty(t, batch[0].ReceivedAt)
}

func TestSubjectMatchesFilters(t *testing.T) {
	assert.True(t, subjectMatchesFilters("Invoice overdue"))
	assert.True(t, subjectMatchesFilters("Need HELP now"))
	assert.False(t, subjectMatchesFilters("Lunch on friday?"))
}
