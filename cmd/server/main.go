package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mahallubank/backend/internal/application/importer"
	ledgerapp "github.com/mahallubank/backend/internal/application/ledger"
	membershipapp "github.com/mahallubank/backend/internal/application/membership"
	"github.com/mahallubank/backend/internal/application/report"
	"github.com/mahallubank/backend/internal/application/view"
	"github.com/mahallubank/backend/internal/infrastructure/config"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/mahallubank/backend/internal/infrastructure/logger"
	"github.com/mahallubank/backend/internal/interfaces/http/handler"
	"github.com/mahallubank/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Mahallu Bank backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("Error closing document store", zap.Error(err))
		}
	}()
	log.Info("Document store ready", zap.String("driver", cfg.Database.Driver))

	hierarchyService := membershipapp.NewHierarchyService(store, log)
	memberService := ledgerapp.NewMemberService(store, log)
	transactionService := ledgerapp.NewTransactionService(store, log)
	bankService := ledgerapp.NewBankService(store, log)
	memberImportService := importer.NewMemberImportService(store, hierarchyService, log)
	transactionImportService := importer.NewTransactionImportService(store, log)
	aggregationService := report.NewAggregationService(store, log)

	ledgerView := view.NewLedgerView(store, log)
	defer ledgerView.Close()

	engine := router.New(
		router.Config{Env: cfg.App.Env},
		router.Handlers{
			Members:      handler.NewMemberHandler(memberService),
			Transactions: handler.NewTransactionHandler(transactionService),
			Blocks:       handler.NewBlockHandler(hierarchyService),
			Bank:         handler.NewBankHandler(bankService),
			Imports:      handler.NewImportHandler(memberImportService, transactionImportService),
			Reports:      handler.NewReportHandler(aggregationService),
			Overview:     handler.NewOverviewHandler(ledgerView),
		},
		log,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// openStore builds the document store selected by configuration. The
// sqlite driver persists to disk; the memory driver suits tests and
// throwaway environments.
func openStore(cfg *config.Config, log *zap.Logger) (docstore.Store, func() error, error) {
	switch cfg.Database.Driver {
	case "memory":
		return docstore.NewMemoryStore(log), func() error { return nil }, nil
	default:
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		store, err := docstore.NewGormStore(cfg.Database.Path, gormLog, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}
