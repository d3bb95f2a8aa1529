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

	"github.com/joho/godotenv"

	"github.com/chdeimos/moneyo/internal/attachment"
	"github.com/chdeimos/moneyo/internal/categorize"
	categorizeStore "github.com/chdeimos/moneyo/internal/categorize/store"
	"github.com/chdeimos/moneyo/internal/config"
	"github.com/chdeimos/moneyo/internal/database"
	"github.com/chdeimos/moneyo/internal/events"
	moneyoHttp "github.com/chdeimos/moneyo/internal/http"
	accountHandler "github.com/chdeimos/moneyo/internal/http/account"
	categorizeHandler "github.com/chdeimos/moneyo/internal/http/categorize"
	importHandler "github.com/chdeimos/moneyo/internal/http/importcsv"
	recurrenceHandler "github.com/chdeimos/moneyo/internal/http/recurrence"
	subscriptionHandler "github.com/chdeimos/moneyo/internal/http/subscription"
	txHandler "github.com/chdeimos/moneyo/internal/http/transaction"
	"github.com/chdeimos/moneyo/internal/importer"
	"github.com/chdeimos/moneyo/internal/ledger"
	"github.com/chdeimos/moneyo/internal/ledger/memory"
	ledgerStore "github.com/chdeimos/moneyo/internal/ledger/store"
	"github.com/chdeimos/moneyo/internal/logsink"
	"github.com/chdeimos/moneyo/internal/scheduler"
)

// backend is what both store drivers provide.
type backend interface {
	ledger.Store
	ledger.Reader
	ledger.SubscriptionRepository
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})
	logger := slog.New(console)
	slog.SetDefault(logger)

	var (
		store backend
		rules categorize.Repository
		sink  *logsink.Sink
	)

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")

		store = memory.New()
		rules = categorizeStore.NewMemory()
	default:
		db, err := database.New(cfg.ConnectionString(), database.Options{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		if cfg.DB.AutoMigrate {
			version, err := database.Migrate(db)
			if err != nil {
				return err
			}

			logger.Info("database migrated", "version", version)
		}

		sink = logsink.New(logsink.NewPostgresWriter(db), cfg.Log.SinkBuffer)
		sink.Start()

		logger = slog.New(logsink.NewHandler(console, sink, cfg.SinkLevel()))
		slog.SetDefault(logger)

		store = ledgerStore.New(db)
		rules = categorizeStore.New(db)
	}

	files, closeFiles, err := openAttachments(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFiles()

	opts := []ledger.ProcessorOption{
		ledger.WithLogger(logger),
		ledger.WithLocation(loc),
		ledger.WithMaxCatchUp(cfg.Scheduler.MaxCatchUp),
	}

	if cfg.AMQP.URL != "" {
		pub, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
		if err != nil {
			logger.Warn("failed to connect to AMQP, executions will not be published", "error", err)
		} else {
			defer pub.Close()

			opts = append(opts, ledger.WithPublisher(pub))
		}
	}

	var (
		processor     = ledger.NewProcessor(store, opts...)
		reconciler    = ledger.NewReconciler(store, store, files, logger)
		subscriptions = ledger.NewSubscriptions(store, logger)
		categorizer   = categorize.NewService(rules)
		importService = importer.NewService()
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(processor, loc, logger)
		sched.Start(ctx)
		defer sched.Stop()
	}

	router := moneyoHttp.New(moneyoHttp.Handlers{
		Recurrence:    recurrenceHandler.NewHandler(processor),
		Transactions:  txHandler.NewHandler(reconciler),
		Subscriptions: subscriptionHandler.NewHandler(subscriptions),
		Accounts:      accountHandler.NewHandler(store),
		Import:        importHandler.NewHandler(importService, reconciler, categorizer),
		Categories:    categorizeHandler.NewHandler(categorizer),
	}, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", "name", cfg.App.Name, "addr", srv.Addr, "timezone", loc.String())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if sink != nil {
		if err := sink.Close(shutdownCtx); err != nil {
			logger.Warn("log sink not fully drained", "error", err, "dropped", sink.Dropped())
		}
	}

	return nil
}

func openAttachments(ctx context.Context, cfg *config.Config) (ledger.FileStore, func(), error) {
	switch cfg.Attachments.Backend {
	case config.AttachmentsGCS:
		gcs, err := attachment.NewGCS(ctx, cfg.Attachments.Bucket, cfg.Attachments.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}

		return gcs, func() { _ = gcs.Close() }, nil
	default:
		return attachment.NewLocal(cfg.Attachments.Dir), func() {}, nil
	}
}
