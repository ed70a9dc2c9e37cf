package models

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          id.TaskID `json:"id"`
	OwnerID     id.UserID `json:"owner"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateTaskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (r *CreateTaskRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	return nil
}

// SortField is a sortable task column.
type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortDescription SortField = "description"
	SortCompleted   SortField = "completed"
)

var sortFields = map[SortField]bool{
	SortCreatedAt:   true,
	SortUpdatedAt:   true,
	SortDescription: true,
	SortCompleted:   true,
}

// ListFilter selects and orders a page of tasks.
type ListFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    SortField
	Desc      bool
}

// DefaultListFilter is the first page ordered by creation.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: DefaultLimit, SortBy: SortCreatedAt}
}

// ParseListFilter reads ?completed=, ?limit=, ?skip= and ?sortBy=field:asc|desc.
func ParseListFilter(q url.Values) (ListFilter, error) {
	f := DefaultListFilter()

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "completed must be true or false")
		}
		f.Completed = &completed
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "limit must be a number")
		}
		if limit > 0 {
			f.Limit = min(limit, MaxLimit)
		}
	}
	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return f, dErrors.New(dErrors.CodeValidation, "skip must be a non-negative number")
		}
		f.Skip = skip
	}
	if v := q.Get("sortBy"); v != "" {
		field, dir, _ := strings.Cut(v, ":")
		if !sortFields[SortField(field)] {
			return f, dErrors.New(dErrors.CodeValidation, "unsupported sort field: "+field)
		}
		switch dir {
		case "", "asc":
		case "desc":
			f.Desc = true
		default:
			return f, dErrors.New(dErrors.CodeValidation, "sort direction must be asc or desc")
		}
		f.SortBy = SortField(field)
	}
	return f, nil
}

// TaskPatch carries the fields an update may change.
type TaskPatch struct {
	Description *string
	Completed   *bool
}

var allowedTaskFields = map[string]bool{
	"description": true,
	"completed":   true,
}

// ParseTaskPatch rejects the whole patch when any key is not allow-listed.
func ParseTaskPatch(raw map[string]json.RawMessage) (*TaskPatch, error) {
	for key := range raw {
		if !allowedTaskFields[key] {
			return nil, dErrors.New(dErrors.CodeValidation, "unsupported field: "+key)
		}
	}

	patch := &TaskPatch{}
	if v, ok := raw["description"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "description must be a string")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "description is required")
		}
		patch.Description = &s
	}
	if v, ok := raw["completed"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "completed must be a boolean")
		}
		patch.Completed = &b
	}
	return patch, nil
}

// Apply writes the patch onto task.
func (p *TaskPatch) Apply(task *Task, now time.Time) {
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Completed != nil {
		task.Completed = *p.Completed
	}
	task.UpdatedAt = now
}
