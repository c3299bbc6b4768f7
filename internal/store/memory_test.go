package store

import (
	"testing"

	"mailtriage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(msgID string, score float64) models.EmailRecord {
	return models.EmailRecord{
		MessageID:     msgID,
		Sender:        "customer@example.com",
		Subject:       "Support request",
		Body:          "please help",
		ReceivedAt:    "2025-06-01T10:00:00Z",
		Sentiment:     models.SentimentNeutral,
		Priority:      models.PriorityNotUrgent,
		PriorityScore: score,
		Status:        models.StatusNew,
	}
}

func TestMemory_UpsertAssignsID(t *testing.T) {
	m := NewMemory()

	id, err := m.Upsert(record("msg-1", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", got.MessageID)
	assert.Equal(t, id, got.ID)
}

func TestMemory_UpsertIsIdempotent(t *testing.T) {
	m := NewMemory()

	first, err := m.Upsert(record("msg-1", 1))
	require.NoError(t, err)
	second, err := m.Upsert(record("msg-1", 1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_UpsertOverwritesInPlace(t *testing.T) {
	m := NewMemory()

	id, err := m.Upsert(record("msg-1", 1))
	require.NoError(t, err)

	updated := record("msg-1", 1)
	updated.Body = "second body"
	again, err := m.Upsert(updated)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "second body", got.Body)

	n, _ := m.Count()
	assert.Equal(t, 1, n)
}

func TestMemory_GetUnknown(t *testing.T) {
	m := NewMemory()
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListSortsByScoreDescending(t *testing.T) {
	m := NewMemory()

	_, _ = m.Upsert(record("low", 0))
	_, _ = m.Upsert(record("high", 7))
	_, _ = m.Upsert(record("mid", 2))

	recs, err := m.List(10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "high", recs[0].MessageID)
	assert.Equal(t, "mid", recs[1].MessageID)
	assert.Equal(t, "low", recs[2].MessageID)
}

func TestMemory_ListStableForEqualScores(t *testing.T) {
	m := NewMemory()

	for _, msgID := range []string{"a", "b", "c", "d"} {
		_, _ = m.Upsert(record(msgID, 2))
	}

	recs, err := m.List(10)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for i, want := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, want, recs[i].MessageID)
	}
}

func TestMemory_ListTruncatesToLimit(t *testing.T) {
	m := NewMemory()

	for _, msgID := range []string{"a", "b", "c"} {
		_, _ = m.Upsert(record(msgID, 1))
	}

	recs, err := m.List(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestMemory_SetStatus(t *testing.T) {
	m := NewMemory()

	id, _ := m.Upsert(record("msg-1", 1))
	require.NoError(t, m.SetStatus(id, models.StatusProcessed))

	got, _ := m.Get(id)
	assert.Equal(t, models.StatusProcessed, got.Status)

	// Unknown id is a no-op, not an error
	assert.NoError(t, m.SetStatus("missing", models.StatusResponded))
}

func TestMemory_SetResponded(t *testing.T) {
	m := NewMemory()

	id, _ := m.Upsert(record("msg-1", 1))
	require.NoError(t, m.SetResponded(id, "2025-06-01T12:00:00Z"))

	got, _ := m.Get(id)
	assert.Equal(t, models.StatusResponded, got.Status)
	assert.Equal(t, "2025-06-01T12:00:00Z", got.RespondedAt)
}

func TestMemory_Drafts(t *testing.T) {
	m := NewMemory()
	id, _ := m.Upsert(record("msg-1", 1))

	first, err := m.AddResponse(id, "draft one", "template")
	require.NoError(t, err)
	second, err := m.AddResponse(id, "draft two", "template")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// Latest unsent draft wins
	latest, err := m.LatestDraft(id)
	require.NoError(t, err)
	assert.Equal(t, second, latest.ID)
	assert.Equal(t, "draft two", latest.Draft)
	assert.False(t, latest.Final)

	// Finalizing the newest surfaces the older one
	require.NoError(t, m.FinalizeDraft(second))
	latest, err = m.LatestDraft(id)
	require.NoError(t, err)
	assert.Equal(t, first, latest.ID)

	require.NoError(t, m.FinalizeDraft(first))
	_, err = m.LatestDraft(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_LatestDraftUnknownEmail(t *testing.T) {
	m := NewMemory()
	_, err := m.LatestDraft("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ClearAll(t *testing.T) {
	m := NewMemory()
	id, _ := m.Upsert(record("msg-1", 1))
	_, _ = m.AddResponse(id, "draft", "template")

	require.NoError(t, m.ClearAll())

	n, _ := m.Count()
	assert.Equal(t, 0, n)
	_, err := m.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.LatestDraft(id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Store stays usable after a reset
	_, err = m.Upsert(record("msg-2", 1))
	assert.NoError(t, err)
}
