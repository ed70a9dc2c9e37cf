package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
)

type InMemoryTaskStoreSuite struct {
	suite.Suite
	store *InMemoryTaskStore
	ctx   context.Context
	owner id.UserID
	base  time.Time
}

func (s *InMemoryTaskStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.owner = id.NewUserID()
	s.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestInMemoryTaskStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTaskStoreSuite))
}

func (s *InMemoryTaskStoreSuite) seed(owner id.UserID, description string, completed bool, offset time.Duration) *models.Task {
	task := &models.Task{
		ID:          id.NewTaskID(),
		OwnerID:     owner,
		Description: description,
		Completed:   completed,
		CreatedAt:   s.base.Add(offset),
		UpdatedAt:   s.base.Add(offset),
	}
	s.Require().NoError(s.store.Create(s.ctx, task))
	return task
}

func (s *InMemoryTaskStoreSuite) TestFindByIDScopedToOwner() {
	task := s.seed(s.owner, "Buy milk", false, 0)

	found, err := s.store.FindByID(s.ctx, s.owner, task.ID)
	s.Require().NoError(err)
	s.Equal(task.Description, found.Description)

	_, err = s.store.FindByID(s.ctx, id.NewUserID(), task.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryTaskStoreSuite) TestListFiltersSortsAndPages() {
	s.seed(s.owner, "c", true, time.Minute)
	s.seed(s.owner, "a", false, 2*time.Minute)
	s.seed(s.owner, "b", true, 3*time.Minute)
	s.seed(id.NewUserID(), "other", true, 0)

	all, err := s.store.List(s.ctx, s.owner, models.DefaultListFilter())
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"c", "a", "b"}, descriptions(all))

	completed := true
	filter := models.ListFilter{Completed: &completed, SortBy: models.SortDescription, Desc: true, Limit: 10}
	done, err := s.store.List(s.ctx, s.owner, filter)
	s.Require().NoError(err)
	s.Equal([]string{"c", "b"}, descriptions(done))

	page, err := s.store.List(s.ctx, s.owner, models.ListFilter{SortBy: models.SortDescription, Limit: 1, Skip: 1})
	s.Require().NoError(err)
	s.Equal([]string{"b"}, descriptions(page))

	empty, err := s.store.List(s.ctx, s.owner, models.ListFilter{Limit: 10, Skip: 10})
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *InMemoryTaskStoreSuite) TestUpdateAndDelete() {
	task := s.seed(s.owner, "Buy milk", false, 0)

	task.Completed = true
	s.Require().NoError(s.store.Update(s.ctx, task))
	found, err := s.store.FindByID(s.ctx, s.owner, task.ID)
	s.Require().NoError(err)
	s.True(found.Completed)

	s.ErrorIs(s.store.Delete(s.ctx, id.NewUserID(), task.ID), sentinel.ErrNotFound)
	s.Require().NoError(s.store.Delete(s.ctx, s.owner, task.ID))
	s.ErrorIs(s.store.Delete(s.ctx, s.owner, task.ID), sentinel.ErrNotFound)
}

func (s *InMemoryTaskStoreSuite) TestDeleteByOwner() {
	s.seed(s.owner, "one", false, 0)
	s.seed(s.owner, "two", false, time.Second)
	other := id.NewUserID()
	kept := s.seed(other, "keep", false, 0)

	removed, err := s.store.DeleteByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(2, removed)

	remaining, err := s.store.List(s.ctx, s.owner, models.DefaultListFilter())
	s.Require().NoError(err)
	s.Empty(remaining)

	_, err = s.store.FindByID(s.ctx, other, kept.ID)
	s.NoError(err)
}

func descriptions(tasks []*models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Description)
	}
	return out
}

type ownerSet map[id.UserID]bool

func (o ownerSet) GuardOwner(_ context.Context, ownerID id.UserID, insert func() error) error {
	if !o[ownerID] {
		return fmt.Errorf("owner %w", sentinel.ErrNotFound)
	}
	return insert()
}

func (s *InMemoryTaskStoreSuite) TestCreateRequiresKnownOwner() {
	s.store.GuardWith(ownerSet{s.owner: true})

	s.seed(s.owner, "Buy milk", false, 0)

	orphan := &models.Task{ID: id.NewTaskID(), OwnerID: id.NewUserID(), Description: "orphan"}
	err := s.store.Create(s.ctx, orphan)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByID(s.ctx, orphan.OwnerID, orphan.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
