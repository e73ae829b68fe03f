package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conos/db"
	"conos/db/migrations"
	"conos/internal/auction"
	"conos/internal/bidding"
	"conos/internal/bookings"
	"conos/internal/config"
	"conos/internal/handlers"
	"conos/internal/ledger"
	"conos/internal/locker"
	"conos/internal/logger"
	"conos/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env не обязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "conos-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logg.Error(ctx, "cannot connect to db", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if cfg.DB.AutoMigrate {
		if err := migrations.Run(ctx, dbConn.DB); err != nil {
			logg.Error(ctx, "migrations failed", err)
			os.Exit(1)
		}
	}

	lk, closeLocker, err := newLocker(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "cannot init auction locker", err)
		os.Exit(1)
	}
	defer closeLocker()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := db.NewStorage(dbConn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbConn), logg, m)
	if err != nil {
		logg.Error(ctx, "init ledger", err)
		os.Exit(1)
	}
	resolver, err := auction.NewResolver(auction.NewPreferenceRepository(dbConn), logg)
	if err != nil {
		logg.Error(ctx, "init preference resolver", err)
		os.Exit(1)
	}
	biddingSvc, err := bidding.NewService(bidding.Deps{
		Repo:        bidding.NewRepository(dbConn),
		Ledger:      ledgerSvc,
		Preferences: resolver,
		Tx:          store,
		Locker:      lk,
		Logger:      logg,
		Metrics:     m,
	})
	if err != nil {
		logg.Error(ctx, "init bidding", err)
		os.Exit(1)
	}
	bookingSvc, err := bookings.NewService(bookings.NewRepository(dbConn), store, logg)
	if err != nil {
		logg.Error(ctx, "init bookings", err)
		os.Exit(1)
	}

	h := handlers.NewHandler(store, handlers.Services{
		Bookings:    bookingSvc,
		Ledger:      ledgerSvc,
		Bidding:     biddingSvc,
		Preferences: resolver,
	}, logg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api", h.Routes())
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.App.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown", err)
		}
	}()

	logg.Info(logg.WithField(ctx, "addr", cfg.App.Address), "starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "server failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "server stopped")
}

// newLocker выбирает redis, если задан CONOS_REDIS_URL, иначе блокировку в процессе
func newLocker(ctx context.Context, cfg *config.Config, logg *logger.Logger) (locker.Locker, func(), error) {
	if !cfg.Redis.Enabled() {
		logg.Info(ctx, "redis not configured, using in-process auction lock")
		return locker.NewKeyedMutex(), func() {}, nil
	}
	client, err := locker.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	lk, err := locker.NewRedisLocker(client, cfg.Auction, logg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return lk, func() { _ = client.Close() }, nil
}
