package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/internal/config"
	"github.com/diewo77/go-crm/internal/db"
	"github.com/diewo77/go-crm/internal/policy"
	"github.com/diewo77/go-crm/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func migrate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if err := db.Migrate(gdb, cfg.Database, true); err != nil {
		return err
	}
	logrus.Info("migrations completed")
	return nil
}

func seed(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if err := db.Migrate(gdb, cfg.Database, false); err != nil {
		return err
	}
	if err := db.Seed(cmd.Context(), gdb); err != nil {
		return err
	}
	logrus.WithField("email", db.DemoEmail).Info("demo data ready")
	return nil
}

func serve(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if cfg.App.Migrations {
		if err := db.Migrate(gdb, cfg.Database, true); err != nil {
			return err
		}
		logrus.Info("migrations completed")
	}
	if cfg.App.Dev {
		if err := db.Migrate(gdb, cfg.Database, false); err != nil {
			return err
		}
		if err := db.Seed(ctx, gdb); err != nil {
			return err
		}
	}

	revoker, closeRedis := newRevoker(ctx, cfg.Redis)
	defer closeRedis()

	routerCfg := policy.NewRouterConfig(policy.Deps{
		DB:      gdb,
		Store:   newStore(ctx, cfg.Storage),
		Revoker: revoker,
		Config:  cfg,
	})
	auth.SetUserVerifier(routerCfg.Accounts.Exists)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(routerCfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Server.Port, "dev": cfg.App.Dev}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logrus.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("error during shutdown")
		return err
	}
	logrus.Info("server stopped gracefully")
	return nil
}

// newRevoker falls back to no revocation when Redis is not configured or
// does not answer.
func newRevoker(ctx context.Context, cfg config.RedisConfig) (auth.Revoker, func()) {
	if !cfg.Enabled() {
		logrus.Warn("REDIS_ADDR not set, logout will not revoke tokens")
		return auth.NopRevoker{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, logout will not revoke tokens")
		_ = client.Close()
		return auth.NopRevoker{}, func() {}
	}
	return auth.NewRedisRevoker(client), func() { _ = client.Close() }
}

// newStore answers 503 on uploads when MinIO is not configured or
// unreachable.
func newStore(ctx context.Context, cfg config.StorageConfig) storage.ObjectStore {
	if !cfg.Enabled() {
		logrus.Warn("MINIO_ENDPOINT not set, uploads are disabled")
		return storage.Unavailable{}
	}
	store, err := storage.NewMinIOStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Warn("object storage unavailable, uploads are disabled")
		return storage.Unavailable{}
	}
	return store
}
