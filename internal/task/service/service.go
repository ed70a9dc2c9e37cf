package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"taskmanager/internal/platform/metrics"
	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/sentinel"
	"taskmanager/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

// Store persists tasks. Every lookup is scoped to the owner; a task owned by
// someone else is reported with sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error)
	List(ctx context.Context, ownerID id.UserID, filter models.ListFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, ownerID id.UserID, taskID id.TaskID) error
}

// Service manages the tasks owned by authenticated users.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("task store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) Create(ctx context.Context, ownerID id.UserID, req *models.CreateTaskRequest) (*models.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	task := &models.Task{
		ID:          id.NewTaskID(),
		OwnerID:     ownerID,
		Description: req.Description,
		Completed:   req.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, s.translate(ctx, err, "failed to create task")
	}
	s.metrics.IncrementTasksCreated()
	s.logger.InfoContext(ctx, "task created",
		"task_id", task.ID.String(),
		"user_id", ownerID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return task, nil
}

func (s *Service) List(ctx context.Context, ownerID id.UserID, filter models.ListFilter) ([]*models.Task, error) {
	tasks, err := s.store.List(ctx, ownerID, filter)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list tasks")
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error) {
	task, err := s.store.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load task")
	}
	return task, nil
}

// Update applies an allow-listed patch. Unsupported keys reject the request
// before the store is read.
func (s *Service) Update(ctx context.Context, ownerID id.UserID, taskID id.TaskID, raw map[string]json.RawMessage) (*models.Task, error) {
	patch, err := models.ParseTaskPatch(raw)
	if err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	patch.Apply(task, s.now().UTC())
	if err := s.store.Update(ctx, task); err != nil {
		return nil, s.translate(ctx, err, "failed to update task")
	}
	return task, nil
}

// Delete removes the task and returns it as it was.
func (s *Service) Delete(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, ownerID, taskID); err != nil {
		return nil, s.translate(ctx, err, "failed to delete task")
	}
	s.logger.InfoContext(ctx, "task deleted",
		"task_id", taskID.String(),
		"user_id", ownerID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return task, nil
}

func (s *Service) translate(ctx context.Context, err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "task not found")
	}
	s.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
