package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcserver "brokerage-chat/backend/internal/grpc"
	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/di"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/router"
	"brokerage-chat/backend/pkg/secrets"
	"brokerage-chat/backend/shared/observability"
)

const insecureJWTSecret = "default-jwt-secret-do-not-use-in-production"

func main() {
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting brokerage chat", "version", cfg.Server.Version, "env", cfg.Server.Env)

	if cfg.Vault.Enabled {
		src, err := secrets.NewVaultSource(cfg.Vault)
		if err != nil {
			return err
		}
		defer src.Close()
		if err := secrets.Apply(ctx, cfg, src, log); err != nil {
			return err
		}
		log.Info("Secrets loaded from Vault", "path", cfg.Vault.SecretsPath)
	}

	if cfg.IsProduction() && cfg.JWT.Secret == insecureJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(cfg.Observability.ServiceName, cfg.Server.Version, os.Stdout)
		if err != nil {
			return err
		}
		defer shutdownTracing(context.Background())
	}
	shutdownMeter, err := observability.SetupMeterProvider()
	if err != nil {
		return err
	}
	defer shutdownMeter(context.Background())

	db, err := config.NewDB(cfg)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	container, err := di.New(ctx, db, cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()
	container.Start(ctx)

	r, err := router.New(container)
	if err != nil {
		return err
	}
	r.SetupRoutes()
	defer r.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Feed connections are long lived, so no write timeout here
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv = grpcserver.NewServer(container.Health, log)
		go func() {
			if err := grpcSrv.ListenAndServe(cfg.GRPC.Port); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-errCh:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
	return nil
}
