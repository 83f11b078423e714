package banksync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"finboard/internal/domain/account"
	"finboard/internal/domain/institution"
	"finboard/internal/domain/transaction"
	"finboard/internal/infrastructure/plaid"
)

var (
	syncMeter         = otel.Meter("finboard/banksync")
	syncAddedTotal, _ = syncMeter.Int64Counter("sync.transactions.added",
		metric.WithDescription("Transactions inserted or replaced by sync"),
	)
	syncModifiedTotal, _ = syncMeter.Int64Counter("sync.transactions.modified",
		metric.WithDescription("Transaction modifications applied by sync"),
	)
	syncRemovedTotal, _ = syncMeter.Int64Counter("sync.transactions.removed",
		metric.WithDescription("Transactions removed by sync"),
	)
	syncSkippedTotal, _ = syncMeter.Int64Counter("sync.transactions.skipped",
		metric.WithDescription("Added transactions whose account is unknown"),
	)
	syncDuration, _ = syncMeter.Float64Histogram("sync.duration",
		metric.WithDescription("Duration of a full user sync in seconds"),
		metric.WithUnit("s"),
	)
)

// maxPaginationRestarts bounds how often one institution sync starts over
// after the provider reports data changing mid-pagination.
const maxPaginationRestarts = 3

// TransactionSyncService pulls incremental transaction changes for every
// institution a user has linked.
type TransactionSyncService struct {
	client          plaid.ClientInterface
	institutionRepo institution.Repository
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	tx              Transactor
	locker          Locker
	publisher       EventPublisher
	concurrency     int
}

// NewTransactionSyncService wires the sync engine. A nil publisher disables
// sync events; concurrency below one is treated as one.
func NewTransactionSyncService(
	client plaid.ClientInterface,
	institutionRepo institution.Repository,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	tx Transactor,
	locker Locker,
	publisher EventPublisher,
	concurrency int,
) *TransactionSyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TransactionSyncService{
		client:          client,
		institutionRepo: institutionRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		tx:              tx,
		locker:          locker,
		publisher:       publisher,
		concurrency:     concurrency,
	}
}

// SyncUserTransactions syncs every institution of the user. Institutions run
// in parallel; pages of one institution run in order, each committed together
// with its cursor. The first institution error is returned and the remaining
// institutions still run to completion.
func (s *TransactionSyncService) SyncUserTransactions(ctx context.Context, userID int64) (*SyncResult, error) {
	institutions, err := s.institutionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	if len(institutions) == 0 {
		return nil, ErrNoLinkedAccounts
	}

	start := time.Now()
	result := &SyncResult{UserID: userID}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, inst := range institutions {
		g.Go(func() error {
			counts, err := s.syncInstitution(ctx, inst)

			mu.Lock()
			result.merge(counts)
			mu.Unlock()

			if err != nil {
				slog.ErrorContext(ctx, "institution sync failed",
					"user_id", userID,
					"institution_id", inst.ID,
					"error", err,
				)
				return fmt.Errorf("sync institution %s: %w", inst.ID, err)
			}
			return nil
		})
	}
	err = g.Wait()

	s.recordMetrics(ctx, result, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "transaction sync completed",
		"user_id", userID,
		"institutions", len(institutions),
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed,
		"skipped", result.Skipped,
	)

	s.publish(ctx, result)
	return result, nil
}

// syncInstitution drains the provider's change feed for one institution. The
// returned counts only include pages that committed. When the feed changes
// mid-pagination the run starts over from its first cursor; replayed pages
// are idempotent and counted once.
func (s *TransactionSyncService) syncInstitution(ctx context.Context, inst *institution.Institution) (SyncResult, error) {
	var total SyncResult

	ctx, unlock, err := s.locker.TryLock(ctx, inst.ID)
	if err != nil {
		return total, err
	}
	defer unlock()

	accountIDs, err := s.accountRepo.ExternalIDMap(ctx, inst.ID)
	if err != nil {
		return total, fmt.Errorf("load account map: %w", err)
	}

	start := inst.CursorValue()
	cursor := start
	restarts := 0
	for {
		page, err := s.client.SyncTransactions(ctx, inst.AccessToken, cursor)
		if plaid.HasErrorCode(err, plaid.CodeMutationDuringPagination) && restarts < maxPaginationRestarts {
			restarts++
			slog.WarnContext(ctx, "transactions changed during pagination, restarting",
				"institution_id", inst.ID,
				"restart", restarts,
			)
			total = SyncResult{}
			cursor = start
			continue
		}
		if err != nil {
			return total, err
		}

		var counts SyncResult
		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			counts = SyncResult{}
			if err := s.applyPage(ctx, inst.UserID, page, accountIDs, &counts); err != nil {
				return err
			}
			return s.institutionRepo.UpdateCursor(ctx, inst.UserID, inst.ID, page.NextCursor)
		})
		if err != nil {
			return total, fmt.Errorf("apply page: %w", err)
		}

		total.merge(counts)
		cursor = page.NextCursor
		if !page.HasMore {
			return total, nil
		}
	}
}

func (s *TransactionSyncService) applyPage(
	ctx context.Context,
	userID int64,
	page *plaid.SyncPage,
	accountIDs map[string]string,
	counts *SyncResult,
) error {
	for _, t := range page.Added {
		localAccountID, ok := accountIDs[t.AccountID]
		if !ok {
			slog.DebugContext(ctx, "skipping transaction for unknown account",
				"transaction_id", t.TransactionID,
				"account_id", t.AccountID,
			)
			counts.Skipped++
			continue
		}

		written, err := s.transactionRepo.Upsert(ctx, transaction.UpsertParams{
			ID:              uuid.NewString(),
			AccountID:       localAccountID,
			UserID:          userID,
			TransactionID:   t.TransactionID,
			Amount:          t.Amount,
			Date:            t.Date,
			Name:            t.Name,
			MerchantName:    t.MerchantName,
			Category:        categoryOf(t),
			CategoryID:      t.CategoryID,
			Pending:         t.Pending,
			IsoCurrencyCode: t.IsoCurrencyCode,
		})
		if err != nil {
			return fmt.Errorf("upsert transaction %s: %w", t.TransactionID, err)
		}
		if !written {
			slog.WarnContext(ctx, "skipping transaction owned by another user",
				"transaction_id", t.TransactionID,
				"user_id", userID,
			)
			counts.Skipped++
			continue
		}
		counts.Added++
	}

	for _, t := range page.Modified {
		_, err := s.transactionRepo.ApplyModification(ctx, transaction.ModifyParams{
			UserID:        userID,
			TransactionID: t.TransactionID,
			Amount:        t.Amount,
			Date:          t.Date,
			Name:          t.Name,
			MerchantName:  t.MerchantName,
			Category:      categoryOf(t),
			Pending:       t.Pending,
		})
		if err != nil {
			return fmt.Errorf("modify transaction %s: %w", t.TransactionID, err)
		}
		counts.Modified++
	}

	for _, r := range page.Removed {
		if _, err := s.transactionRepo.DeleteByExternalID(ctx, userID, r.TransactionID); err != nil {
			return fmt.Errorf("remove transaction %s: %w", r.TransactionID, err)
		}
		counts.Removed++
	}

	return nil
}

func categoryOf(t plaid.Transaction) string {
	var primary string
	if t.PersonalFinanceCategory != nil {
		primary = t.PersonalFinanceCategory.Primary
	}
	return transaction.DeriveCategory(primary, t.Category)
}

func (s *TransactionSyncService) recordMetrics(ctx context.Context, r *SyncResult, elapsed time.Duration, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	syncAddedTotal.Add(ctx, int64(r.Added), attrs)
	syncModifiedTotal.Add(ctx, int64(r.Modified), attrs)
	syncRemovedTotal.Add(ctx, int64(r.Removed), attrs)
	syncSkippedTotal.Add(ctx, int64(r.Skipped), attrs)
	syncDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (s *TransactionSyncService) publish(ctx context.Context, r *SyncResult) {
	if s.publisher == nil {
		return
	}
	event := SyncCompletedEvent{
		UserID:      r.UserID,
		Added:       r.Added,
		Modified:    r.Modified,
		Removed:     r.Removed,
		Skipped:     r.Skipped,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishSyncCompleted(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish sync event", "user_id", r.UserID, "error", err)
	}
}
