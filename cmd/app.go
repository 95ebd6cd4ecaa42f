/*
Package cmd wires the application together: config, logger, the chosen
persistence layer (MySQL or in-memory), application services, HTTP
router and the outbox worker, plus graceful shutdown.
*/
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace/api"
	apifinance "marketplace/api/finance"
	"marketplace/api/health"
	apiorder "marketplace/api/order"
	financeapp "marketplace/application/finance"
	orderapp "marketplace/application/order"
	"marketplace/config"
	financedomain "marketplace/domain/finance"
	orderdomain "marketplace/domain/order"
	sellerdomain "marketplace/domain/seller"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/memory"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/infrastructure/persistence/retry"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the assembled application.
type App struct {
	config *config.Config
	router *api.Router
	server *http.Server

	db           *gorm.DB
	outboxWorker *mysql.OutboxWorker
	workerCancel context.CancelFunc
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Type))

	retryConfig := retry.FromAppConfig(cfg)

	var (
		db           *gorm.DB
		sqlDB        *sql.DB
		orderRepo    orderdomain.Repository
		payoutRepo   financedomain.PayoutRepository
		profileRepo  sellerdomain.Repository
		uowFactory   shared.UnitOfWorkFactory
		outboxWorker *mysql.OutboxWorker
	)

	switch cfg.Database.Type {
	case "mysql":
		var err error
		db, sqlDB, err = connectMySQL(cfg)
		if err != nil {
			return nil, err
		}

		orderRepo = mysql.NewOrderRepository(db)
		payoutRepo = mysql.NewPayoutRepository(db)
		profileRepo = mysql.NewSellerRepository(db)
		uowFactory = mysql.NewUnitOfWorkFactory(db, retryConfig)

		outboxWorker, err = mysql.NewOutboxWorker(
			mysql.NewOutboxRepository(db),
			&mysql.LoggingOutboxPublisher{},
			cfg.Outbox.PollInterval,
			cfg.Outbox.BatchSize,
			cfg.Outbox.MaxRetries,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox worker: %w", err)
		}

	case "memory":
		logger.Info("Using in-memory persistence layer")
		orderRepo = memory.NewOrderRepository()
		payoutRepo = memory.NewPayoutRepository()
		profileRepo = memory.NewSellerRepository()
		// Without an outbox, events go straight to the in-process bus.
		uowFactory = memory.NewUnitOfWorkFactory(shared.NewEventBus(), retryConfig)

	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Database.Type)
	}

	orderService := orderapp.NewApplicationService(orderRepo, uowFactory)
	financeService := financeapp.NewApplicationService(
		orderRepo, payoutRepo, profileRepo, uowFactory,
		cfg.Finance.CommissionRateBps, cfg.Finance.Currency)

	router := api.NewRouter(
		cfg,
		health.NewController(cfg, sqlDB),
		apiorder.NewController(orderService),
		apifinance.NewController(financeService),
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		config:       cfg,
		router:       router,
		server:       server,
		db:           db,
		outboxWorker: outboxWorker,
	}, nil
}

func connectMySQL(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	logger.Info("Using MySQL/GORM persistence layer")

	mysqlConfig := &mysql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Log.Level,
	}

	db, err := mysqlConfig.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}
	logger.Info("Connected to MySQL successfully")

	// Schema convenience in development only.
	if cfg.IsDevelopment() {
		if err := mysql.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	return db, sqlDB, nil
}

// Run starts the outbox worker and the HTTP server, then blocks until a
// termination signal arrives and shuts both down gracefully.
func (a *App) Run() error {
	if a.outboxWorker != nil {
		workerCtx, cancel := context.WithCancel(context.Background())
		a.workerCancel = cancel
		go func() {
			if err := a.outboxWorker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Outbox worker stopped", zap.Error(err))
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	return a.Shutdown()
}

// Shutdown stops the server, the outbox worker and the database pool.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if a.workerCancel != nil {
		a.workerCancel()
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("Database close failed", zap.Error(err))
			}
		}
	}

	logger.Info("Server stopped")
	return logger.Sync()
}

// GetEngine exposes the gin engine for tests.
func (a *App) GetEngine() http.Handler {
	return a.router.GetEngine()
}
