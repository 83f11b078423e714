// Package banksync links institutions through the bank data provider and keeps
// the local ledger in step with it.
package banksync

import (
	"context"
	"time"

	"finboard/internal/domain/account"
	"finboard/internal/domain/institution"
	"finboard/internal/shared/errs"
)

var (
	ErrNoLinkedAccounts = errs.New(errs.ErrValidation, "no linked bank accounts found")
	ErrSyncInProgress   = errs.New(errs.ErrConflict, "a sync is already running for this institution")
	ErrPublicTokenEmpty = errs.New(errs.ErrValidation, "public token is required")
)

// SyncResult totals one user's sync across all of their institutions.
// Skipped counts added transactions whose account is not stored locally.
type SyncResult struct {
	UserID   int64 `json:"-"`
	Added    int   `json:"added"`
	Modified int   `json:"modified"`
	Removed  int   `json:"removed"`
	Skipped  int   `json:"skipped"`
}

func (r *SyncResult) merge(o SyncResult) {
	r.Added += o.Added
	r.Modified += o.Modified
	r.Removed += o.Removed
	r.Skipped += o.Skipped
}

// LinkMetadata is what the Link widget reports about the chosen institution.
type LinkMetadata struct {
	InstitutionID   string
	InstitutionName string
}

// LinkResult is the newly stored institution and its accounts.
type LinkResult struct {
	Institution *institution.Institution
	Accounts    []*account.Account
}

// SyncCompletedEvent is published after a user's sync finishes without error.
type SyncCompletedEvent struct {
	UserID      int64     `json:"user_id"`
	Added       int       `json:"added"`
	Modified    int       `json:"modified"`
	Removed     int       `json:"removed"`
	Skipped     int       `json:"skipped"`
	CompletedAt time.Time `json:"completed_at"`
}

// Transactor runs fn inside one database transaction. Repository calls made
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker grants exclusive access to a key. TryLock returns ErrSyncInProgress
// when the key is already held. The work the lock guards must run with the
// returned context, which may pin resources the lock holds.
type Locker interface {
	TryLock(ctx context.Context, key string) (lockCtx context.Context, unlock func(), err error)
}

// EventPublisher announces finished syncs to other services.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, event SyncCompletedEvent) error
}
