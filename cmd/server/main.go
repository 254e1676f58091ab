package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investbook/internal/cache"
	"investbook/internal/config"
	"investbook/internal/db"
	"investbook/internal/handlers"
	"investbook/internal/ledger"
	"investbook/internal/services"
	"investbook/internal/store"
	"investbook/internal/websocket"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	policy, err := ledger.ParseSignPolicy(cfg.AdjustmentDirection)
	if err != nil {
		log.Fatalf("invalid ADJUSTMENT_DIRECTION: %v", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	var derived cache.Cache = cache.NopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.Dial(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisCache.Close()
		derived = redisCache
		log.Printf("caching derived values in redis for %s", cfg.CacheTTL)
	}

	users := store.NewUserStore(database)
	portfolios := store.NewPortfolioStore(database)
	buckets := store.NewBucketStore(database)
	transactions := store.NewTransactionStore(database)
	snapshots := store.NewSnapshotStore(database)
	rates := store.NewFxRateStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledgerService := services.NewLedgerService(txRunner, portfolios, buckets, transactions, snapshots, rates, audit, derived, hub)
	fxService := services.NewFxService(txRunner, rates, audit, derived, hub)
	positionService := services.NewPositionService(portfolios, buckets, transactions, snapshots, rates, derived, policy)
	summaryService := services.NewSummaryService(portfolios, buckets, transactions, snapshots, rates, derived, policy)

	handler := handlers.New(txRunner, cfg, users, portfolios, buckets, audit, ledgerService, fxService, positionService, summaryService, derived, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("investbook API (%s) listening on %s", cfg.AppEnv, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
