package main

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/domain/account"
	"finboard/internal/domain/analytics"
	"finboard/internal/domain/banksync"
	"finboard/internal/domain/budget"
	"finboard/internal/domain/category"
	"finboard/internal/domain/investment"
	"finboard/internal/domain/transaction"
	"finboard/internal/domain/user"
	"finboard/internal/infrastructure/crypto"
	"finboard/internal/infrastructure/events"
	"finboard/internal/infrastructure/plaid"
	"finboard/internal/infrastructure/postgres"
	"finboard/internal/infrastructure/postgres/listener"
	httphandlers "finboard/internal/interfaces/http"
	"finboard/internal/interfaces/scheduler"
	"finboard/internal/shared/auth"
	"finboard/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB        *postgres.DB
	Publisher *events.Publisher

	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	PlaidHandler       *httphandlers.PlaidHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	BudgetHandler      *httphandlers.BudgetHandler
	CategoryHandler    *httphandlers.CategoryHandler
	InvestmentHandler  *httphandlers.InvestmentHandler

	// Auth
	JWT *auth.JWT

	// Background sync
	Scheduler    *scheduler.Scheduler
	LinkListener *listener.LinkListener
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	deps := &Dependencies{DB: db}
	if err := deps.wire(cfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) wire(cfg *config.Config) error {
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
		return fmt.Errorf("create plaid client: %w", err)
	}

	// Sync events are optional; without a broker the engine runs silently.
	var publisher banksync.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		d.Publisher = p
		publisher = p
		slog.Info("sync events enabled", "exchange", cfg.AMQP.Exchange)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(d.DB)
	institutionRepo := postgres.NewInstitutionRepository(d.DB, encryptor)
	accountRepo := postgres.NewAccountRepository(d.DB)
	transactionRepo := postgres.NewTransactionRepository(d.DB)
	budgetRepo := postgres.NewBudgetRepository(d.DB)
	categoryRepo := postgres.NewCategoryRepository(d.DB)
	analyticsRepo := postgres.NewAnalyticsRepository(d.DB)

	// Domain services
	userService := user.NewService(userRepo)
	accountService := account.NewService(accountRepo)
	transactionService := transaction.NewService(transactionRepo)
	budgetService := budget.NewService(budgetRepo)
	categoryService := category.NewService(categoryRepo)
	analyticsService := analytics.NewService(analyticsRepo, budgetRepo)
	investmentService := investment.NewService(plaidClient, institutionRepo, cfg.Sync.Concurrency)

	accountSync := banksync.NewAccountSyncService(plaidClient, institutionRepo, accountRepo, d.DB)
	transactionSync := banksync.NewTransactionSyncService(
		plaidClient,
		institutionRepo,
		accountRepo,
		transactionRepo,
		d.DB,
		postgres.NewAdvisoryLocker(d.DB),
		publisher,
		cfg.Sync.Concurrency,
	)
	institutionService := banksync.NewInstitutionService(plaidClient, institutionRepo)

	d.JWT = auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	// Handlers
	d.AuthHandler = httphandlers.NewAuthHandler(userService, d.JWT)
	d.PlaidHandler = httphandlers.NewPlaidHandler(accountSync, transactionSync, institutionService)
	d.AccountHandler = httphandlers.NewAccountHandler(accountService, accountSync, analyticsService)
	d.TransactionHandler = httphandlers.NewTransactionHandler(transactionService, analyticsService)
	d.BudgetHandler = httphandlers.NewBudgetHandler(budgetService, analyticsService)
	d.CategoryHandler = httphandlers.NewCategoryHandler(categoryService)
	d.InvestmentHandler = httphandlers.NewInvestmentHandler(investmentService)

	if !cfg.Scheduler.Enabled {
		slog.Info("scheduler is disabled")
		return nil
	}

	d.Scheduler, err = scheduler.New(scheduler.Config{
		Interval:     cfg.Scheduler.Interval,
		WorkerCount:  cfg.Scheduler.WorkerCount,
		JobDelay:     cfg.Scheduler.JobDelay,
		QueueSize:    cfg.Scheduler.QueueSize,
		RunOnStartup: cfg.Scheduler.RunOnStartup,
	}, institutionRepo, transactionSync, accountSync)
	if err != nil {
		return err
	}

	if cfg.Scheduler.SyncOnLink {
		sched := d.Scheduler
		d.LinkListener = listener.NewLinkListener(cfg.Database.ConnectionString(), func(ctx context.Context, event listener.ItemLinked) {
			if err := sched.Enqueue(event.UserID); err != nil {
				slog.WarnContext(ctx, "failed to queue initial sync", "user_id", event.UserID, "item_id", event.ItemID, "error", err)
			}
		})
	}
	return nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
