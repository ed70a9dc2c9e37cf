package user

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/auth/models"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

var userColumns = []string{"id", "name", "email", "password_hash", "tokens", "avatar", "created_at", "updated_at"}

func TestPostgresCreate(t *testing.T) {
	store, mock := newMockStore(t)
	user := newUser("rachhen.it@gmail.com")

	t.Run("inserts row", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.ID.String(), user.Name, user.Email, user.PasswordHash, "{}", sqlmock.AnyArg(), user.CreatedAt, user.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Create(context.Background(), user))
	})

	t.Run("unique violation maps to ErrConflict", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := store.Create(context.Background(), user)
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	userID := id.NewUserID()
	now := time.Now().UTC()

	t.Run("scans tokens array", func(t *testing.T) {
		rows := sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "Rachhen", "rachhen.it@gmail.com", "hash", "{t1,t2}", nil, now, now)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("rachhen.it@gmail.com").
			WillReturnRows(rows)

		user, err := store.FindByEmail(context.Background(), "rachhen.it@gmail.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, []string{"t1", "t2"}, user.Tokens)
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("missing@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := store.FindByEmail(context.Background(), "missing@example.com")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTokenOps(t *testing.T) {
	store, mock := newMockStore(t)
	userID := id.NewUserID()
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("array_append(tokens, $2)")).
		WithArgs(userID.String(), "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.AppendToken(ctx, userID, "tok"))

	mock.ExpectExec(regexp.QuoteMeta("array_remove(tokens, $2)")).
		WithArgs(userID.String(), "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.RemoveToken(ctx, userID, "tok"))

	mock.ExpectExec(regexp.QuoteMeta("SET tokens = '{}'")).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.ClearTokens(ctx, userID), sentinel.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("$2 = ANY(tokens)")).
		WithArgs(userID.String(), "tok").
		WillReturnRows(sqlmock.NewRows([]string{"present"}).AddRow(false))
	ok, err := store.HasToken(ctx, userID, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateAndDelete(t *testing.T) {
	store, mock := newMockStore(t)
	user := &models.User{ID: id.NewUserID(), Name: "Koko", Email: "koko@example.com", PasswordHash: "h", UpdatedAt: time.Now().UTC()}
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(user.ID.String(), "Koko", "koko@example.com", "h", sqlmock.AnyArg(), user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Update(ctx, user))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
		WithArgs(user.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.Delete(ctx, user.ID), sentinel.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
