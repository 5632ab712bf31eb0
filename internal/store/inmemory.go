package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	leads   []LeadRecord
	entries map[string][]EntryRecord
	reports []ReportRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]EntryRecord)}
}

func (s *InMemoryStore) SaveLead(_ context.Context, record LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.leads = append(s.leads, record)
	return nil
}

func (s *InMemoryStore) SaveTranscriptEntry(_ context.Context, record EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.entries[record.SessionID] = append(s.entries[record.SessionID], record)
	return nil
}

func (s *InMemoryStore) SaveReport(_ context.Context, record ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.reports = append(s.reports, record)
	return nil
}

func (s *InMemoryStore) SessionTranscript(_ context.Context, sessionID string) ([]EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.entries[sessionID]
	out := make([]EntryRecord, len(arr))
	copy(out, arr)
	return out, nil
}

// Leads returns all captured leads, newest last. Test helper.
func (s *InMemoryStore) Leads() []LeadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LeadRecord, len(s.leads))
	copy(out, s.leads)
	return out
}

// Reports returns all saved reports. Test helper.
func (s *InMemoryStore) Reports() []ReportRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReportRecord, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *InMemoryStore) Close() error { return nil }
