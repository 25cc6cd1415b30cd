// Command accounts-server serves account registration, login and profile
// updates over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/accounts/internal/config"
	pkgcrypto "github.com/and161185/accounts/internal/crypto"
	"github.com/and161185/accounts/internal/migrate"
	"github.com/and161185/accounts/internal/repository"
	"github.com/and161185/accounts/internal/repository/memory"
	"github.com/and161185/accounts/internal/repository/postgres"
	grpcserver "github.com/and161185/accounts/internal/server/grpc"
	httpserver "github.com/and161185/accounts/internal/server/http"
	"github.com/and161185/accounts/internal/service"
	"github.com/and161185/accounts/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// store is what the server needs from a backend: the repository plus a ping
// for health reporting.
type store interface {
	repository.AccountRepository
	grpcserver.Pinger
}

// main loads configuration, opens the store, and serves HTTP plus gRPC health.
func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store
	switch cfg.Store {
	case config.StoreMemory:
		st = memory.NewAccountRepo()
	default:
		if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("pgxpool.New", zap.Error(err))
		}
		defer db.Close()
		st = postgres.NewAccountRepo(db)
	}

	svc := service.NewAccountService(
		st,
		pkgcrypto.NewArgon2Hasher(pkgcrypto.DefaultParams),
		token.NewIssuer([]byte(cfg.JWTKey), cfg.AccessTTL),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.New(svc, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	hs := grpcserver.NewHealth(st, logger, cfg.Dev)
	hlis, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		logger.Fatal("listen health", zap.Error(err))
	}
	go hs.Watch(ctx, cfg.HealthInterval)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
		errCh <- hs.Serve(hlis)
	}()
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for stop
	exit := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		exit = 1
	}

	// graceful shutdown
	hs.Stop(cfg.ShutdownTimeout)
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
		_ = srv.Close()
	}

	logger.Info("shutdown complete")
	if exit != 0 {
		_ = logger.Sync()
		os.Exit(exit)
	}
}
