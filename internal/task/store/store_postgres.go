package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
	txcontext "taskmanager/pkg/platform/tx"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var sortColumns = map[models.SortField]string{
	models.SortCreatedAt:   "created_at",
	models.SortUpdatedAt:   "updated_at",
	models.SortDescription: "description",
	models.SortCompleted:   "completed",
}

// PostgresStore persists tasks in the tasks table.
type PostgresStore struct {
	exec txcontext.Executor
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{exec: db}
}

// NewPostgresTx returns a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{exec: tx}
}

const selectTask = `
	SELECT id, owner_id, description, completed, created_at, updated_at
	FROM tasks
`

func (s *PostgresStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, owner_id, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.exec.ExecContext(ctx, query,
		uuid.UUID(task.ID),
		uuid.UUID(task.OwnerID),
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return translate("create task", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, ownerID id.UserID, taskID id.TaskID) (*models.Task, error) {
	row := s.exec.QueryRowContext(ctx, selectTask+` WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(taskID), uuid.UUID(ownerID))
	task, err := scanTask(row)
	if err != nil {
		return nil, translate("find task", err)
	}
	return task, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID id.UserID, filter models.ListFilter) ([]*models.Task, error) {
	query, args := listQuery(ownerID, filter)
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list tasks", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, translate("scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list tasks", err)
	}
	return tasks, nil
}

// listQuery builds the page query. The ORDER BY column comes from a fixed
// map so no caller text reaches the SQL.
func listQuery(ownerID id.UserID, filter models.ListFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(selectTask)
	b.WriteString(" WHERE owner_id = $1")
	args := []any{uuid.UUID(ownerID)}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		b.WriteString(" AND completed = $" + strconv.Itoa(len(args)))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	b.WriteString(" ORDER BY " + column + " " + direction + ", id " + direction)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	args = append(args, filter.Skip)
	b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	return b.String(), args
}

func (s *PostgresStore) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET description = $3, completed = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2
	`
	res, err := s.exec.ExecContext(ctx, query,
		uuid.UUID(task.ID),
		uuid.UUID(task.OwnerID),
		task.Description,
		task.Completed,
		task.UpdatedAt,
	)
	if err != nil {
		return translate("update task", err)
	}
	return requireRow(res, "update task")
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID id.UserID, taskID id.TaskID) error {
	res, err := s.exec.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(taskID), uuid.UUID(ownerID))
	if err != nil {
		return translate("delete task", err)
	}
	return requireRow(res, "delete task")
}

func (s *PostgresStore) DeleteByOwner(ctx context.Context, ownerID id.UserID) (int, error) {
	res, err := s.exec.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, uuid.UUID(ownerID))
	if err != nil {
		return 0, translate("delete tasks by owner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		task      models.Task
		taskID    uuid.UUID
		ownerUUID uuid.UUID
	)
	if err := row.Scan(&taskID, &ownerUUID, &task.Description, &task.Completed,
		&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.ID = id.TaskID(taskID)
	task.OwnerID = id.UserID(ownerUUID)
	return &task, nil
}

func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		case foreignKeyViolation:
			return fmt.Errorf("%s: owner %w", op, sentinel.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
