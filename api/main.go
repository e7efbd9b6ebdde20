package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/auth"
	"github.com/rogerio-castellano/catalog-gateway/internal/config"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/ban"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/handlers"
	rl "github.com/rogerio-castellano/catalog-gateway/internal/http/rate_limiter"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/router"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/observability"
	"github.com/rogerio-castellano/catalog-gateway/internal/redissvc"
	"github.com/rogerio-castellano/catalog-gateway/internal/upstream"
)

// @title Catalog Gateway API
// @version 1.0
// @description Aggregates collection products from the catalog service with their variants from the inventory service.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Options{Mode: cfg.Log.Mode, Redaction: cfg.Log.Redaction})
	if err != nil {
		return fmt.Errorf("could not create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, log, cfg.Otel)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	var (
		redisService *redissvc.RedisService
		pinger       handlers.Pinger
		strikes      rl.StrikeRecorder
	)
	if cfg.Redis.Addr != "" {
		redisService, err = redissvc.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("could not connect to Redis: %w", err)
		}
		defer redisService.Close()
		pinger = redisService

		banStore := ban.NewStore(redisService.Rdb(), cfg.RateLimit.StrikeLimit, cfg.RateLimit.BanTTL, log)
		strikes = banStore
		go banStore.StartDailyBanSummary(ctx)
	}

	var limiter *rl.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rl.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
		go limiter.StartVisitorCleanupLoop(ctx, time.Minute)
	}

	opts := upstream.Options{
		Timeout:      cfg.Upstreams.Timeout,
		MaxRetries:   cfg.Upstreams.MaxRetries,
		RetryBackoff: cfg.Upstreams.RetryBackoff,
	}
	catalog, err := upstream.NewCatalogClient(cfg.Upstreams.ProductServiceURL, opts, log)
	if err != nil {
		return err
	}
	inventory, err := upstream.NewInventoryClient(cfg.Upstreams.InventoryServiceURL, opts, log)
	if err != nil {
		return err
	}

	var exchanger *auth.Exchanger
	if cfg.Auth.Enabled {
		exchanger = auth.NewExchanger(cfg.Auth.AccessTokenSecret, cfg.Auth.InternalSecret, cfg.Auth.InternalTokenTTL)
	} else {
		log.Warn("authentication disabled; aggregation route is public")
	}

	srv := handlers.NewServer(aggregate.NewService(catalog, inventory, log), cfg.Pagination.MaxLimit, pinger, log)
	h, err := router.NewRouter(router.Deps{
		Server:            srv,
		Exchanger:         exchanger,
		Limiter:           limiter,
		Strikes:           strikes,
		ProductServiceURL: cfg.Upstreams.ProductServiceURL,
		UserServiceURL:    cfg.Upstreams.UserServiceURL,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		Log:               log,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(sctx)
}
