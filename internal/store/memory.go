package store

import (
	"sort"
	"sync"
	"time"

	"mailtriage/internal/models"

	"github.com/google/uuid"
)

// Memory is the default in-process store: mutex-guarded maps plus an
// insertion-order slice so priority ties stay in arrival order.
type Memory struct {
	mu       sync.RWMutex
	emails   map[string]models.EmailRecord
	byMsgID  map[string]string
	order    []string
	drafts   map[string]models.ResponseDraft
	draftSeq []string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		emails:  make(map[string]models.EmailRecord),
		byMsgID: make(map[string]string),
		drafts:  make(map[string]models.ResponseDraft),
	}
}

func (m *Memory) Upsert(rec models.EmailRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byMsgID[rec.MessageID]; ok && rec.MessageID != "" {
		rec.ID = id
		m.emails[id] = rec
		return id, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.emails[rec.ID] = rec
	if rec.MessageID != "" {
		m.byMsgID[rec.MessageID] = rec.ID
	}
	m.order = append(m.order, rec.ID)
	return rec.ID, nil
}

func (m *Memory) Get(id string) (models.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.emails[id]
	if !ok {
		return models.EmailRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) List(limit int) ([]models.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]models.EmailRecord, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.emails[id])
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PriorityScore > recs[j].PriorityScore
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *Memory) SetStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.emails[id]; ok {
		rec.Status = status
		m.emails[id] = rec
	}
	return nil
}

func (m *Memory) SetResponded(id, respondedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.emails[id]; ok {
		rec.Status = models.StatusResponded
		rec.RespondedAt = respondedAt
		m.emails[id] = rec
	}
	return nil
}

func (m *Memory) AddResponse(emailID, draft, model string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := models.ResponseDraft{
		ID:        uuid.NewString(),
		EmailID:   emailID,
		Draft:     draft,
		Model:     model,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Final:     false,
	}
	m.drafts[d.ID] = d
	m.draftSeq = append(m.draftSeq, d.ID)
	return d.ID, nil
}

func (m *Memory) LatestDraft(emailID string) (models.ResponseDraft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.draftSeq) - 1; i >= 0; i-- {
		d := m.drafts[m.draftSeq[i]]
		if d.EmailID == emailID && !d.Final {
			return d, nil
		}
	}
	return models.ResponseDraft{}, ErrNotFound
}

func (m *Memory) FinalizeDraft(draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.drafts[draftID]; ok {
		d.Final = true
		m.drafts[draftID] = d
	}
	return nil
}

func (m *Memory) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.emails), nil
}

func (m *Memory) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = make(map[string]models.EmailRecord)
	m.byMsgID = make(map[string]string)
	m.order = nil
	m.drafts = make(map[string]models.ResponseDraft)
	m.draftSeq = nil
	return nil
}
