package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finboard/internal/domain/banksync"
	"finboard/internal/infrastructure/crypto"
	"finboard/internal/infrastructure/plaid"
	"finboard/internal/infrastructure/postgres"
	"finboard/internal/shared/config"
	"finboard/internal/shared/logging"
)

const defaultWorkers = 4

type syncOptions struct {
	userIDs string
	all     bool
	workers int
	timeout time.Duration
}

// userOutcome is the result of syncing one user.
type userOutcome struct {
	userID int64
	result *banksync.SyncResult
	err    error
}

func newSyncCmd() *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run an incremental transaction sync outside the API server",
		Example: `  admin sync --user-id=1
  admin sync --user-id=1,2,3
  admin sync --all --workers=8 --timeout=1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userIDs == "" && !opts.all {
				return errors.New("must specify --user-id or --all")
			}
			if opts.workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", opts.workers)
			}
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.userIDs, "user-id", "", "User ID(s) to sync (comma-separated for multiple)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Sync every user with a linked institution")
	cmd.Flags().IntVar(&opts.workers, "workers", defaultWorkers, "Number of users synced concurrently")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Minute, "Timeout for the whole run")
	cmd.MarkFlagsMutuallyExclusive("user-id", "all")

	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return err
	}
	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:   cfg.Plaid.ClientID,
		Secret:     cfg.Plaid.Secret,
		Env:        cfg.Plaid.Env,
		ClientName: cfg.Plaid.ClientName,
		Timeout:    cfg.Plaid.Timeout,
		RateLimit:  cfg.Plaid.RateLimit,
	})
	if err != nil {
		return err
	}

	institutionRepo := postgres.NewInstitutionRepository(db, encryptor)
	syncService := banksync.NewTransactionSyncService(
		plaidClient,
		institutionRepo,
		postgres.NewAccountRepository(db),
		postgres.NewTransactionRepository(db),
		db,
		postgres.NewAdvisoryLocker(db),
		nil,
		cfg.Sync.Concurrency,
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var userIDs []int64
	if opts.all {
		userIDs, err = institutionRepo.ListUserIDs(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
	} else {
		userIDs, err = parseUserIDs(opts.userIDs)
		if err != nil {
			return err
		}
	}

	if len(userIDs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users to process")
		return nil
	}

	slog.Info("starting sync", "users", len(userIDs), "workers", opts.workers)
	start := time.Now()

	outcomes := syncUsers(ctx, syncService, userIDs, opts.workers)

	failed := 0
	for _, o := range outcomes {
		printOutcome(cmd, o)
		if o.err != nil {
			failed++
		}
	}

	slog.Info("sync finished", "users", len(userIDs), "failed", failed, "elapsed", time.Since(start))
	if failed > 0 {
		return fmt.Errorf("%d of %d user syncs failed", failed, len(userIDs))
	}
	return nil
}

type userSyncer interface {
	SyncUserTransactions(ctx context.Context, userID int64) (*banksync.SyncResult, error)
}

// syncUsers syncs each user with at most workers in flight and returns the
// outcomes ordered by user id. One user's failure does not stop the others.
func syncUsers(ctx context.Context, syncer userSyncer, userIDs []int64, workers int) []userOutcome {
	var (
		mu       sync.Mutex
		outcomes = make([]userOutcome, 0, len(userIDs))
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, id := range userIDs {
		g.Go(func() error {
			result, err := syncer.SyncUserTransactions(ctx, id)
			mu.Lock()
			outcomes = append(outcomes, userOutcome{userID: id, result: result, err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].userID < outcomes[j].userID })
	return outcomes
}

func printOutcome(cmd *cobra.Command, o userOutcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== User %d ===\n", o.userID)
	if o.err != nil {
		fmt.Fprintf(out, "  Error: %v\n", o.err)
		return
	}
	fmt.Fprintf(out, "  Added:    %d\n", o.result.Added)
	fmt.Fprintf(out, "  Modified: %d\n", o.result.Modified)
	fmt.Fprintf(out, "  Removed:  %d\n", o.result.Removed)
	fmt.Fprintf(out, "  Skipped:  %d\n", o.result.Skipped)
}

// parseUserIDs parses a comma-separated list of user ids, dropping blanks and
// duplicates.
func parseUserIDs(s string) ([]int64, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid user ID %q", p)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
