package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/platform/sentinel"
)

// defaultAccountTxTimeout bounds a transaction when ctx has no deadline.
const defaultAccountTxTimeout = 5 * time.Second

// InMemoryAccountTx serializes transactional units with one mutex. It offers
// isolation, not rollback.
type InMemoryAccountTx struct {
	mu      sync.Mutex
	stores  AccountStores
	timeout time.Duration
}

// NewInMemoryTx wraps in-memory stores in a coarse-lock transaction runner.
func NewInMemoryTx(stores AccountStores) *InMemoryAccountTx {
	return &InMemoryAccountTx{stores: stores, timeout: defaultAccountTxTimeout}
}

func (t *InMemoryAccountTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores AccountStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.stores)
}

// GuardOwner runs insert under the transaction lock after confirming ownerID
// exists, so an insert can never land between a task purge and the user
// delete of the same account.
func (t *InMemoryAccountTx) GuardOwner(ctx context.Context, ownerID id.UserID, insert func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.stores.Users.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("owner %w", sentinel.ErrNotFound)
		}
		return err
	}
	return insert()
}
