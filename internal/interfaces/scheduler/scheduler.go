// Package scheduler runs the sync engine in the background: on a fixed
// interval for every user with a linked institution, and on demand for a
// single user.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// UserLister lists the users that have at least one linked institution.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type Config struct {
	Interval     time.Duration
	WorkerCount  int
	JobDelay     time.Duration
	QueueSize    int
	RunOnStartup bool
}

// Scheduler queues a UserSyncJob per user every Interval.
type Scheduler struct {
	pool         *WorkerPool
	users        UserLister
	syncer       TransactionSyncer
	balances     BalanceRefresher
	interval     time.Duration
	runOnStartup bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, users UserLister, syncer TransactionSyncer, balances BalanceRefresher) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %v", cfg.Interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:         NewWorkerPool(cfg.WorkerCount, cfg.JobDelay, cfg.QueueSize),
		users:        users,
		syncer:       syncer,
		balances:     balances,
		interval:     cfg.Interval,
		runOnStartup: cfg.RunOnStartup,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start launches the worker pool and the ticker loop.
func (s *Scheduler) Start() {
	s.pool.Start()

	if s.runOnStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runAll()
		}()
	}

	s.wg.Add(1)
	go s.loop()

	slog.Info("scheduler started", "interval", s.interval, "run_on_startup", s.runOnStartup)
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runAll()
		}
	}
}

// runAll queues one job per user. Users that do not fit in the queue are
// picked up on the next tick.
func (s *Scheduler) runAll() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "scheduler failed to list users", "error", err)
		return
	}
	if len(userIDs) == 0 {
		return
	}

	jobs := make([]Job, 0, len(userIDs))
	for _, id := range userIDs {
		jobs = append(jobs, NewUserSyncJob(id, s.syncer, s.balances))
	}
	s.pool.SubmitBatch(jobs)
}

// Enqueue queues a sync for one user outside the regular interval.
func (s *Scheduler) Enqueue(userID int64) error {
	return s.pool.Submit(NewUserSyncJob(userID, s.syncer, s.balances))
}

// Stop ends the ticker loop and drains the pool, cancelling jobs still
// running after timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.cancel()
	s.wg.Wait()
	s.pool.ShutdownWithTimeout(timeout)
	slog.Info("scheduler stopped")
}
