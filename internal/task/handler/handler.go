package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/httputil"
	"taskmanager/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the task operations the handler needs.
type Service interface {
	Create(ctx context.Context, ownerID id.UserID, req *models.CreateTaskRequest) (*models.Task, error)
	List(ctx context.Context, ownerID id.UserID, filter models.ListFilter) ([]*models.Task, error)
	Get(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error)
	Update(ctx context.Context, ownerID id.UserID, taskID id.TaskID, raw map[string]json.RawMessage) (*models.Task, error)
	Delete(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error)
}

// Handler serves /tasks for the authenticated user.
type Handler struct {
	tasks       Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func New(tasks Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		tasks:       tasks,
		logger:      logger,
		requireAuth: requireAuth,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateTaskRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	task, err := h.tasks.Create(ctx, requestcontext.UserID(ctx), req)
	if err != nil {
		h.fail(ctx, w, "create task", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := models.ParseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tasks, err := h.tasks.List(ctx, requestcontext.UserID(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "list tasks", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Get(ctx, requestcontext.UserID(ctx), taskID)
	if err != nil {
		h.fail(ctx, w, "get task", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &raw); err != nil {
		httputil.WriteError(w, err)
		return
	}
	task, err := h.tasks.Update(ctx, requestcontext.UserID(ctx), taskID, raw)
	if err != nil {
		h.fail(ctx, w, "update task", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Delete(ctx, requestcontext.UserID(ctx), taskID)
	if err != nil {
		h.fail(ctx, w, "delete task", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

// taskID parses the {id} path segment. A malformed ID is reported as a
// missing task.
func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (id.TaskID, bool) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "task not found"))
		return id.TaskID{}, false
	}
	return taskID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
