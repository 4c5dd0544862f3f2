package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-reports/internal/weather"
)

var (
	// ErrNotFound is returned when no outcomes have been recorded for a provider.
	ErrNotFound = errors.New("no outcomes recorded for provider")
)

// OutcomeHistory holds a time-ordered list of call outcomes for one provider.
type OutcomeHistory struct {
	Outcomes []weather.Outcome
}

// ProviderStats summarizes the retained outcomes of one provider.
type ProviderStats struct {
	Provider    string            `json:"provider"`
	Successes   int               `json:"successes"`
	Failures    int               `json:"failures"`
	LastSuccess *time.Time        `json:"lastSuccess,omitempty"`
	LastFailure *time.Time        `json:"lastFailure,omitempty"`
	LastError   string            `json:"lastError,omitempty"`
	Recent      []weather.Outcome `json:"recent"`
}

// MemoryStore is a concurrency-safe in-memory record of provider outcomes.
// It implements weather.OutcomeRecorder.
type MemoryStore struct {
	mu sync.RWMutex

	// key: provider name, value: history
	data map[string]*OutcomeHistory

	// retention configuration
	maxHistory int           // max number of outcomes per provider
	maxAge     time.Duration // optional max age for outcomes

	now func() time.Time
}

var _ weather.OutcomeRecorder = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*OutcomeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Record appends an outcome for its provider and enforces retention.
func (s *MemoryStore) Record(o weather.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[o.Provider]
	if !ok {
		history = &OutcomeHistory{}
		s.data[o.Provider] = history
	}

	history.Outcomes = append(history.Outcomes, o)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Outcomes) > s.maxHistory {
		over := len(history.Outcomes) - s.maxHistory
		history.Outcomes = history.Outcomes[over:]
	}

	s.pruneLocked(history)
}

// pruneLocked drops outcomes older than maxAge. Callers hold the write lock.
func (s *MemoryStore) pruneLocked(history *OutcomeHistory) {
	if s.maxAge <= 0 {
		return
	}
	cutoff := s.now().Add(-s.maxAge)
	// Concurrent fan-outs may record out of At order, so scan everything.
	kept := history.Outcomes[:0]
	for _, o := range history.Outcomes {
		if !o.At.Before(cutoff) {
			kept = append(kept, o)
		}
	}
	history.Outcomes = kept
}

// Stats returns the retained outcome summary for a provider.
func (s *MemoryStore) Stats(provider string) (ProviderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[provider]
	if ok {
		s.pruneLocked(history)
	}
	if !ok || len(history.Outcomes) == 0 {
		return ProviderStats{}, ErrNotFound
	}
	return summarize(provider, history.Outcomes), nil
}

// All returns stats for every provider with retained outcomes, sorted by name.
func (s *MemoryStore) All() []ProviderStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.data))
	for name, history := range s.data {
		s.pruneLocked(history)
		if len(history.Outcomes) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]ProviderStats, 0, len(names))
	for _, name := range names {
		result = append(result, summarize(name, s.data[name].Outcomes))
	}
	return result
}

func summarize(provider string, outcomes []weather.Outcome) ProviderStats {
	stats := ProviderStats{
		Provider: provider,
		Recent:   append([]weather.Outcome(nil), outcomes...),
	}
	for _, o := range outcomes {
		at := o.At
		if o.OK() {
			stats.Successes++
			if stats.LastSuccess == nil || at.After(*stats.LastSuccess) {
				stats.LastSuccess = &at
			}
			continue
		}
		stats.Failures++
		if stats.LastFailure == nil || !at.Before(*stats.LastFailure) {
			stats.LastFailure = &at
			stats.LastError = o.Error
		}
	}
	return stats
}
