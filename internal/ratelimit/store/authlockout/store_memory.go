package authlockout

import (
	"context"
	"sync"
	"time"

	"taskmanager/internal/ratelimit/models"
	"taskmanager/pkg/requestcontext"
)

// InMemoryAuthLockoutStore keeps counters in process. Expired windows are
// reset lazily on the next failure.
type InMemoryAuthLockoutStore struct {
	mu      sync.Mutex
	records map[string]*models.AuthLockout
}

func New() *InMemoryAuthLockoutStore {
	return &InMemoryAuthLockoutStore{
		records: make(map[string]*models.AuthLockout),
	}
}

func (s *InMemoryAuthLockoutStore) RecordFailure(ctx context.Context, key string, window time.Duration) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok || !record.ActiveAt(now) {
		record = &models.AuthLockout{Identifier: key, WindowEnd: now.Add(window)}
		s.records[key] = record
	}
	record.FailureCount++

	out := *record
	return &out, nil
}

func (s *InMemoryAuthLockoutStore) Get(ctx context.Context, key string) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if !record.ActiveAt(now) {
		delete(s.records, key)
		return nil, nil
	}
	out := *record
	return &out, nil
}

func (s *InMemoryAuthLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
