package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
)

// InMemoryTaskStore keeps tasks per owner. Lookups scoped to the wrong owner
// behave as if the task did not exist.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[id.TaskID]*models.Task
	guard OwnerGuard
}

// OwnerGuard runs insert only while ownerID exists, excluding account
// deletion for the duration. It stands in for the tasks.owner_id foreign key.
type OwnerGuard interface {
	GuardOwner(ctx context.Context, ownerID id.UserID, insert func() error) error
}

func New() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[id.TaskID]*models.Task)}
}

// GuardWith routes every Create through g. Without a guard, tasks are
// accepted for any owner.
func (s *InMemoryTaskStore) GuardWith(g OwnerGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = g
}

func (s *InMemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	s.mu.RLock()
	guard := s.guard
	s.mu.RUnlock()

	insert := func() error { return s.insert(task) }
	if guard == nil {
		return insert()
	}
	return guard.GuardOwner(ctx, task.OwnerID, insert)
}

func (s *InMemoryTaskStore) insert(task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %w", sentinel.ErrConflict)
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *InMemoryTaskStore) FindByID(_ context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return nil, fmt.Errorf("task %w", sentinel.ErrNotFound)
	}
	copied := *task
	return &copied, nil
}

func (s *InMemoryTaskStore) List(_ context.Context, ownerID id.UserID, filter models.ListFilter) ([]*models.Task, error) {
	s.mu.RLock()
	matched := make([]*models.Task, 0)
	for _, task := range s.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		copied := *task
		matched = append(matched, &copied)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b *models.Task) int {
		c := compareBy(filter.SortBy, a, b)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if filter.Desc {
			return -c
		}
		return c
	})

	if filter.Skip >= len(matched) {
		return []*models.Task{}, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func compareBy(field models.SortField, a, b *models.Task) int {
	switch field {
	case models.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case models.SortDescription:
		return strings.Compare(a.Description, b.Description)
	case models.SortCompleted:
		return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *InMemoryTaskStore) Update(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok || current.OwnerID != task.OwnerID {
		return fmt.Errorf("task %w", sentinel.ErrNotFound)
	}
	copied := *task
	copied.CreatedAt = current.CreatedAt
	s.tasks[task.ID] = &copied
	return nil
}

func (s *InMemoryTaskStore) Delete(_ context.Context, ownerID id.UserID, taskID id.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return fmt.Errorf("task %w", sentinel.ErrNotFound)
	}
	delete(s.tasks, taskID)
	return nil
}

// DeleteByOwner removes every task of ownerID and reports how many went.
func (s *InMemoryTaskStore) DeleteByOwner(_ context.Context, ownerID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for taskID, task := range s.tasks {
		if task.OwnerID == ownerID {
			delete(s.tasks, taskID)
			removed++
		}
	}
	return removed, nil
}
