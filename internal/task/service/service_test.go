package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"taskmanager/internal/task/models"
	"taskmanager/internal/task/service/mocks"
	taskstore "taskmanager/internal/task/store"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	service *Service
	ctx     context.Context
	owner   id.UserID
	now     time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.ctx = context.Background()
	s.owner = id.NewUserID()
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := New(s.store, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCreate() {
	s.Run("stores trimmed task for owner", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, task *models.Task) error {
				s.Equal(s.owner, task.OwnerID)
				s.Equal("Buy milk", task.Description)
				s.Equal(s.now, task.CreatedAt)
				return nil
			})

		task, err := s.service.Create(s.ctx, s.owner, &models.CreateTaskRequest{Description: " Buy milk "})
		s.Require().NoError(err)
		s.False(task.ID.IsNil())
	})

	s.Run("missing description never reaches the store", func() {
		_, err := s.service.Create(s.ctx, s.owner, &models.CreateTaskRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure is internal", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

		_, err := s.service.Create(s.ctx, s.owner, &models.CreateTaskRequest{Description: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestGetForeignTaskIsNotFound() {
	taskID := id.NewTaskID()
	s.store.EXPECT().FindByID(gomock.Any(), s.owner, taskID).
		Return(nil, fmt.Errorf("task %w", sentinel.ErrNotFound))

	_, err := s.service.Get(s.ctx, s.owner, taskID)
	s.ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "task not found"))
}

func (s *ServiceSuite) TestUpdate() {
	taskID := id.NewTaskID()

	s.Run("unsupported field rejected before lookup", func() {
		raw := map[string]json.RawMessage{"owner": json.RawMessage(`"x"`)}
		_, err := s.service.Update(s.ctx, s.owner, taskID, raw)
		s.ErrorIs(err, dErrors.New(dErrors.CodeValidation, "unsupported field: owner"))
	})

	s.Run("applies patch", func() {
		existing := &models.Task{ID: taskID, OwnerID: s.owner, Description: "Buy milk"}
		s.store.EXPECT().FindByID(gomock.Any(), s.owner, taskID).Return(existing, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		raw := map[string]json.RawMessage{"completed": json.RawMessage(`true`)}
		task, err := s.service.Update(s.ctx, s.owner, taskID, raw)
		s.Require().NoError(err)
		s.True(task.Completed)
		s.Equal(s.now, task.UpdatedAt)
	})
}

func (s *ServiceSuite) TestDeleteReturnsTask() {
	taskID := id.NewTaskID()
	existing := &models.Task{ID: taskID, OwnerID: s.owner, Description: "Buy milk"}
	s.store.EXPECT().FindByID(gomock.Any(), s.owner, taskID).Return(existing, nil)
	s.store.EXPECT().Delete(gomock.Any(), s.owner, taskID).Return(nil)

	task, err := s.service.Delete(s.ctx, s.owner, taskID)
	s.Require().NoError(err)
	s.Equal("Buy milk", task.Description)
}

func TestServiceWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	svc, err := New(taskstore.New())
	if err != nil {
		t.Fatal(err)
	}
	owner, stranger := id.NewUserID(), id.NewUserID()

	task, err := svc.Create(ctx, owner, &models.CreateTaskRequest{Description: "Walk dog"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, stranger, task.ID); !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
	tasks, err := svc.List(ctx, owner, models.DefaultListFilter())
	if err != nil || len(tasks) != 1 {
		t.Fatalf("expected one task, got %d (%v)", len(tasks), err)
	}
}
