package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/platform/postgres/migrations"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_users.sql", "00002_tasks.sql", "00003_audit_events.sql"}, files)

	users, err := fs.ReadFile(migrations.Migrations, "00001_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "users_email_key")
	assert.Contains(t, string(users), "-- +goose Down")
}

func TestMigrate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	t.Run("runs from the embedded root", func(t *testing.T) {
		var gotDir string
		gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
			gotDir = dir
			return nil
		}
		require.NoError(t, Migrate(context.Background(), nil, logger))
		assert.Equal(t, ".", gotDir)
	})

	t.Run("wraps goose failures", func(t *testing.T) {
		gooseUp = func(context.Context, *sql.DB, string) error {
			return errors.New("syntax error")
		}
		err := Migrate(context.Background(), nil, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "apply migrations")
	})
}
