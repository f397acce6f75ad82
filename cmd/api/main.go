package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/auth"
	authStore "github.com/genixhq/genix/internal/auth/store"
	"github.com/genixhq/genix/internal/config"
	"github.com/genixhq/genix/internal/database"
	genixHttp "github.com/genixhq/genix/internal/http"
	payoutHandler "github.com/genixhq/genix/internal/http/payout"
	"github.com/genixhq/genix/internal/lock"
	"github.com/genixhq/genix/internal/logger"
	"github.com/genixhq/genix/internal/metrics"
	"github.com/genixhq/genix/internal/payout"
	payoutStore "github.com/genixhq/genix/internal/payout/store"
	"github.com/genixhq/genix/internal/transfer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET is not set; every admin request will be rejected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := metrics.New(reg)

	var locker payout.Locker = payoutStore.NewRunLock(db, cfg.Payout.LockName, log)

	if cfg.Redis.URL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Error("failed to connect to redis", zap.Error(err))
			return err
		}
		defer rdb.Close()

		locker = lock.NewRedisLock(rdb, "genix:"+cfg.Payout.LockName, cfg.Redis.LockTTL, log)
		log.Info("using redis payout run lock")
	}

	payoutService := payout.NewService(
		payoutStore.New(db),
		transfer.NewClient(cfg.Transfer.BaseURL, cfg.Transfer.SecretKey, cfg.Transfer.Timeout),
		locker,
		payout.WithResolver(payout.NewDestinationResolver(payout.DestinationFieldsByName(cfg.Payout.DestinationFields))),
		payout.WithRecorder(m),
		payout.WithLogger(log.Named("payout")),
	)

	authorizer := auth.NewAuthorizer(auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience), authStore.New(db))

	router := genixHttp.New(genixHttp.Deps{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Authorizer:     authorizer,
		DB:             db,
		AllowedOrigins: cfg.App.AllowedOrigins,
		RequestTimeout: cfg.Payout.RunTimeout,
	}, payoutHandler.NewHandler(payoutService, log, cfg.Production()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Payout.RunTimeout + cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}
