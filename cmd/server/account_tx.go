package main

import (
	"context"
	"database/sql"
	"time"

	authservice "taskmanager/internal/auth/service"
	userstore "taskmanager/internal/auth/store/user"
	taskstore "taskmanager/internal/task/store"
	dErrors "taskmanager/pkg/domain-errors"
	txcontext "taskmanager/pkg/platform/tx"
)

const defaultAccountTxTimeout = 5 * time.Second

// accountPostgresTx runs account units in one database transaction. The
// transaction also rides in the context so the audit store joins it.
type accountPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newAccountPostgresTx(db *sql.DB) *accountPostgresTx {
	return &accountPostgresTx{db: db}
}

func (t *accountPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores authservice.AccountStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultAccountTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := authservice.AccountStores{
		Users: userstore.NewPostgresTx(tx),
		Tasks: taskstore.NewPostgresTx(tx),
	}
	if err := fn(txcontext.WithTx(ctx, tx), stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
