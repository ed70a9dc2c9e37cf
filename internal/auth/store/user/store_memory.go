package user

import (
	"context"
	"fmt"
	"sync"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map guarded by a RWMutex. Records are
// cloned on the way in and out.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return fmt.Errorf("email %w", sentinel.ErrConflict)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("id %w", sentinel.ErrConflict)
	}
	s.users[user.ID] = user.Clone()
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	return user.Clone(), nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	return s.users[userID].Clone(), nil
}

// Update replaces the profile fields of an existing user. Tokens are owned by
// the token operations and are left untouched.
func (s *InMemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return fmt.Errorf("email %w", sentinel.ErrConflict)
	}

	next := user.Clone()
	next.Tokens = current.Tokens
	next.CreatedAt = current.CreatedAt
	delete(s.byEmail, current.Email)
	s.byEmail[next.Email] = next.ID
	s.users[next.ID] = next
	return nil
}

func (s *InMemoryUserStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	delete(s.byEmail, user.Email)
	delete(s.users, userID)
	return nil
}

func (s *InMemoryUserStore) AppendToken(_ context.Context, userID id.UserID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	user.Tokens = append(user.Tokens, token)
	return nil
}

// RemoveToken drops every occurrence of token. Removing an absent token is
// not an error.
func (s *InMemoryUserStore) RemoveToken(_ context.Context, userID id.UserID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept
	return nil
}

func (s *InMemoryUserStore) ClearTokens(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	user.Tokens = nil
	return nil
}

func (s *InMemoryUserStore) HasToken(_ context.Context, userID id.UserID, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return false, fmt.Errorf("user %w", sentinel.ErrNotFound)
	}
	return user.HasToken(token), nil
}
