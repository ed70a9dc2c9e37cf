package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
	txcontext "taskmanager/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists users in the users table. Token membership lives in
// a TEXT[] column so issuance and revocation are single-row atomic updates.
type PostgresStore struct {
	exec txcontext.Executor
}

// NewPostgres returns a store on db.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{exec: db}
}

// NewPostgresTx returns a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{exec: tx}
}

const selectUser = `
	SELECT id, name, email, password_hash, tokens, avatar, created_at, updated_at
	FROM users
`

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, tokens, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Name,
		user.Email,
		user.PasswordHash,
		pq.Array(nonNilTokens(user.Tokens)),
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.exec.QueryRowContext(ctx, selectUser+` WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.exec.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email)
	return scanUser(row)
}

// Update writes profile fields; the tokens column is left alone.
func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, avatar = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.exec.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.UpdatedAt,
	)
	if err != nil {
		return translate("update user", err)
	}
	return requireRow(res, "update user")
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return translate("delete user", err)
	}
	return requireRow(res, "delete user")
}

func (s *PostgresStore) AppendToken(ctx context.Context, userID id.UserID, token string) error {
	res, err := s.exec.ExecContext(ctx,
		`UPDATE users SET tokens = array_append(tokens, $2) WHERE id = $1`,
		uuid.UUID(userID), token)
	if err != nil {
		return translate("append token", err)
	}
	return requireRow(res, "append token")
}

func (s *PostgresStore) RemoveToken(ctx context.Context, userID id.UserID, token string) error {
	res, err := s.exec.ExecContext(ctx,
		`UPDATE users SET tokens = array_remove(tokens, $2) WHERE id = $1`,
		uuid.UUID(userID), token)
	if err != nil {
		return translate("remove token", err)
	}
	return requireRow(res, "remove token")
}

func (s *PostgresStore) ClearTokens(ctx context.Context, userID id.UserID) error {
	res, err := s.exec.ExecContext(ctx,
		`UPDATE users SET tokens = '{}' WHERE id = $1`,
		uuid.UUID(userID))
	if err != nil {
		return translate("clear tokens", err)
	}
	return requireRow(res, "clear tokens")
}

func (s *PostgresStore) HasToken(ctx context.Context, userID id.UserID, token string) (bool, error) {
	var present bool
	err := s.exec.QueryRowContext(ctx,
		`SELECT $2 = ANY(tokens) FROM users WHERE id = $1`,
		uuid.UUID(userID), token).Scan(&present)
	if err != nil {
		return false, translate("check token", err)
	}
	return present, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user   models.User
		uid    uuid.UUID
		tokens pq.StringArray
	)
	err := row.Scan(&uid, &user.Name, &user.Email, &user.PasswordHash, &tokens,
		&user.Avatar, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translate("find user", err)
	}
	user.ID = id.UserID(uid)
	user.Tokens = []string(tokens)
	return &user, nil
}

func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
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

func nonNilTokens(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}
