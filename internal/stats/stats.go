package stats

import (
	"fmt"
	"math"
	"sync"
	"time"

	"mailtriage/internal/models"
	"mailtriage/internal/store"
)

// Service aggregates dashboard stats over the record store. Snapshots are
// cached for a short TTL so the stats endpoint does not rescan the store on
// every poll.
type Service struct {
	store store.Store

	mu       sync.Mutex
	snapshot models.Stats
	cachedAt time.Time
	ttl      time.Duration
}

// NewService creates a stats service; ttl <= 0 disables the snapshot cache
func NewService(s store.Store, ttl time.Duration) *Service {
	return &Service{store: s, ttl: ttl}
}

// Compute scans every record and produces the aggregate stats relative to
// now. Timestamps that fail to parse are silently excluded from the
// 24-hour window and the response-latency mean.
func (s *Service) Compute(now time.Time) (models.Stats, error) {
	recs, err := s.store.List(0)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to scan store: %w", err)
	}

	windowStart := now.Add(-24 * time.Hour)
	stats := models.Stats{
		SentimentCounts: make(map[string]int),
		TotalEmails:     len(recs),
	}

	var latencySum float64
	var latencyCount int

	for _, rec := range recs {
		if received, err := time.Parse(time.RFC3339, rec.ReceivedAt); err == nil {
			if !received.Before(windowStart) && !received.After(now) {
				stats.TotalLast24h++
			}
		}

		if rec.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
		if rec.Status == models.StatusResponded {
			stats.Responded++
		} else {
			stats.Pending++
		}

		sentiment := rec.Sentiment
		if sentiment == "" {
			sentiment = models.SentimentNeutral
		}
		stats.SentimentCounts[sentiment]++

		if rec.Status == models.StatusResponded && rec.RespondedAt != "" {
			received, rerr := time.Parse(time.RFC3339, rec.ReceivedAt)
			responded, perr := time.Parse(time.RFC3339, rec.RespondedAt)
			if rerr == nil && perr == nil {
				latencySum += responded.Sub(received).Minutes()
				latencyCount++
			}
		}
	}

	if latencyCount > 0 {
		avg := math.Round(latencySum/float64(latencyCount)*100) / 100
		stats.AvgResponseTimeMinutes = &avg
	}

	return stats, nil
}

// Cached returns the snapshot from the last Compute when it is still fresh,
// recomputing otherwise.
func (s *Service) Cached(now time.Time) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 && !s.cachedAt.IsZero() && now.Sub(s.cachedAt) < s.ttl {
		return s.snapshot, nil
	}

	snap, err := s.Compute(now)
	if err != nil {
		return models.Stats{}, err
	}
	s.snapshot = snap
	s.cachedAt = now
	return snap, nil
}

// Invalidate drops the cached snapshot; called after bulk mutations so the
// next read reflects them immediately.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedAt = time.Time{}
}
