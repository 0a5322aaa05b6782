package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gvbank-ledger/internal/config"
	"github.com/josh-kwaku/gvbank-ledger/internal/domain"
	"github.com/josh-kwaku/gvbank-ledger/internal/events/kafka"
	"github.com/josh-kwaku/gvbank-ledger/internal/handler"
	"github.com/josh-kwaku/gvbank-ledger/internal/logging"
	"github.com/josh-kwaku/gvbank-ledger/internal/middleware"
	"github.com/josh-kwaku/gvbank-ledger/internal/notification"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
	"github.com/josh-kwaku/gvbank-ledger/internal/service"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/admin"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/balance"
	"github.com/josh-kwaku/gvbank-ledger/internal/service/money"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("gvbank-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, 30)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		applied, err := repository.Migrate(ctx, db, cfg.MigrationsDir, false)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "files", applied)
	}

	limits, err := currencyLimits(cfg)
	if err != nil {
		return err
	}

	accounts := repository.NewAccountRepository(db)
	postings := repository.NewPostingRepository(db)
	txs := repository.NewTransactionRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	instruments := repository.NewInstrumentRepository(db)
	profiles := repository.NewProfileRepository(db)
	notifications := repository.NewNotificationRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	sender, closeSender := buildSender(cfg, logger)
	defer closeSender()

	dispatcher := notification.NewDispatcher(notifications, txs, sender)
	relay := notification.NewRelay(dispatcher, notifications, logger, cfg.NotificationRelayInterval, cfg.NotificationMaxAttempts)

	accountSvc := service.NewAccountService(accounts, postings)
	profileSvc := service.NewProfileService(profiles, cfg.JWTSecret, cfg.JWTExpiry)
	moneySvc := money.NewService(
		txs, withdrawals, instruments, profiles,
		accountSvc,
		balance.NewMutator(accounts, postings, db),
		dispatcher, db,
		money.Options{
			DepositRequiresApproval: cfg.DepositRequiresApproval,
			Limits:                  limits,
		},
	)
	adminSvc := admin.NewService(admin.Deps{
		Resolver:    moneySvc,
		Txs:         txs,
		Withdrawals: withdrawals,
		Profiles:    profiles,
		Settings:    repository.NewSettingsRepository(db),
		Instruments: instruments,
		Accounts:    accounts,
		Postings:    postings,
		Notifier:    dispatcher,
	})

	router := newRouter(routerConfig{
		jwtSecret:     cfg.JWTSecret,
		allowedOrigin: cfg.CORSAllowedOrigin,
		logger:        logger,
		idempotency:   idempotency,
	}, handlers{
		health:        handler.NewHealthHandler(db, version),
		auth:          handler.NewAuthHandler(profileSvc),
		accounts:      handler.NewAccountHandler(accountSvc),
		money:         handler.NewMoneyHandler(moneySvc),
		admin:         handler.NewAdminHandler(adminSvc),
		notifications: handler.NewNotificationHandler(dispatcher, notifications),
	})

	go relay.Start(ctx)
	go middleware.SweepIdempotency(ctx, idempotency, logger, cfg.IdempotencySweepInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	dispatcher.Wait()
	logger.Info("server stopped")
	return nil
}

// buildSender logs notifications unless a broker or Twilio is configured.
// SMS goes to Twilio when credentials are present; everything else goes to
// Kafka when brokers are set.
func buildSender(cfg *config.Config, logger *slog.Logger) (notification.Sender, func()) {
	fallback := notification.Sender(notification.LogSender{})
	closer := func() {}

	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		fallback = notification.NewKafkaSender(pub)
		closer = func() {
			if err := pub.Close(); err != nil {
				logger.Error("failed to close kafka publisher", "error", err)
			}
		}
		logger.Info("notifications publish to kafka", "topic", cfg.KafkaNotificationTopic)
	}

	router := &notification.ChannelRouter{
		Routes:  map[domain.NotificationChannel]notification.Sender{},
		Default: fallback,
	}
	if cfg.TwilioEnabled() {
		router.Routes[domain.NotificationChannelSMS] = notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
		logger.Info("sms notifications via twilio")
	}
	return router, closer
}

func currencyLimits(cfg *config.Config) (map[domain.Currency]decimal.Decimal, error) {
	raw, err := cfg.TransactionLimits()
	if err != nil {
		return nil, err
	}
	limits := make(map[domain.Currency]decimal.Decimal, len(raw))
	for code, v := range raw {
		c := domain.Currency(code)
		if !c.IsValid() {
			return nil, fmt.Errorf("currencyLimits: %w: %s", domain.ErrInvalidCurrency, code)
		}
		limits[c] = v
	}
	return limits, nil
}
