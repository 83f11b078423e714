package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finboard/internal/domain/account"
	"finboard/internal/domain/banksync"
)

// TransactionSyncer is the part of the sync engine a job drives.
type TransactionSyncer interface {
	SyncUserTransactions(ctx context.Context, userID int64) (*banksync.SyncResult, error)
}

// BalanceRefresher refreshes the stored balances of a user's accounts.
type BalanceRefresher interface {
	RefreshBalances(ctx context.Context, userID int64) ([]*account.Account, error)
}

// UserSyncJob pulls new transactions for one user and then refreshes their
// balances. A balance failure does not undo the transaction sync.
type UserSyncJob struct {
	userID   int64
	syncer   TransactionSyncer
	balances BalanceRefresher
}

// NewUserSyncJob builds a job for userID. balances may be nil.
func NewUserSyncJob(userID int64, syncer TransactionSyncer, balances BalanceRefresher) *UserSyncJob {
	return &UserSyncJob{userID: userID, syncer: syncer, balances: balances}
}

// Execute runs the sync. A user who unlinked everything since the job was
// queued is not an error.
func (j *UserSyncJob) Execute(ctx context.Context) error {
	result, err := j.syncer.SyncUserTransactions(ctx, j.userID)
	switch {
	case errors.Is(err, banksync.ErrNoLinkedAccounts):
		slog.DebugContext(ctx, "user has no linked institutions, skipping", "user_id", j.userID)
		return nil
	case err != nil:
		return fmt.Errorf("transaction sync: %w", err)
	}

	slog.InfoContext(ctx, "scheduled transaction sync finished",
		"user_id", j.userID,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed,
		"skipped", result.Skipped,
	)

	if j.balances == nil {
		return nil
	}
	if _, err := j.balances.RefreshBalances(ctx, j.userID); err != nil && !errors.Is(err, banksync.ErrNoLinkedAccounts) {
		return fmt.Errorf("balance refresh: %w", err)
	}
	return nil
}

func (j *UserSyncJob) UserID() int64 {
	return j.userID
}

func (j *UserSyncJob) Description() string {
	return fmt.Sprintf("sync for user %d", j.userID)
}
