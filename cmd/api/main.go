package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vishal-ch336/divido/internal/config"
	"github.com/vishal-ch336/divido/internal/database"
	"github.com/vishal-ch336/divido/internal/expense"
	"github.com/vishal-ch336/divido/internal/group"
	"github.com/vishal-ch336/divido/internal/ledger"
	"github.com/vishal-ch336/divido/internal/observability"
	"github.com/vishal-ch336/divido/internal/settlement"
	"github.com/vishal-ch336/divido/internal/split"
	"github.com/vishal-ch336/divido/pkg/logging"
	mw "github.com/vishal-ch336/divido/pkg/middleware"
)

// @title        Divido API
// @version      1.0
// @description  Shared-expense ledger and settlement engine
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	// Balance ledger over Postgres
	ledgerStore := ledger.NewPostgresStore(db)
	balanceLedger := ledger.New(ledgerStore, metrics)

	// Split strategy factory
	splitFactory := split.NewFactory()

	// Feature wiring. The group service reads balances from the ledger and
	// raw split records from the expense repository.
	expenseRepo := expense.NewRepository(db)
	groupRepo := group.NewRepository(db)

	groupService := group.NewService(groupRepo, balanceLedger, expenseRepo)
	groupHandler := group.NewHandler(groupService)

	expenseService := expense.NewService(expenseRepo, groupRepo, balanceLedger, splitFactory)
	expenseHandler := expense.NewHandler(expenseService)

	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, groupRepo, balanceLedger)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.DevMode {
			slog.Warn("dev mode enabled, requests are trusted via X-Test-User-ID")
			r.Use(mw.TestUser)
		} else {
			jwtManager := mw.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL)
			r.Use(mw.Auth(jwtManager))
		}

		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
