package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/noxius/grana/internal/backup"
	"github.com/noxius/grana/internal/database"
	"github.com/noxius/grana/internal/logging"
	"github.com/noxius/grana/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func backupConfigFromEnv(dbPath string) (backup.Config, error) {
	interval := 24 * time.Hour
	if v := os.Getenv("GRANA_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return backup.Config{}, fmt.Errorf("invalid GRANA_BACKUP_INTERVAL %q: %w", v, err)
		}
		interval = d
	}
	return backup.Config{
		DBPath:     dbPath,
		Passphrase: os.Getenv("GRANA_BACKUP_PASSPHRASE"),
		Interval:   interval,
		S3: backup.S3Config{
			Endpoint:  os.Getenv("GRANA_S3_ENDPOINT"),
			Bucket:    os.Getenv("GRANA_S3_BUCKET"),
			Region:    envOr("GRANA_S3_REGION", "auto"),
			AccessKey: os.Getenv("GRANA_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("GRANA_S3_SECRET_KEY"),
		},
	}, nil
}

// runRestore fetches an encrypted snapshot and writes the decrypted
// database to dst. The server is not started.
func runRestore(logger *slog.Logger, key, dst string) {
	cfg, err := backupConfigFromEnv(dst)
	if err != nil {
		slog.Error("restore config", "error", err)
		os.Exit(1)
	}
	mgr := backup.NewManager(cfg, nil, logger.With("component", "backup"))
	if err := mgr.Restore(context.Background(), key, dst); err != nil {
		slog.Error("restore failed", "key", key, "error", err)
		os.Exit(1)
	}
	slog.Info("restore complete", "key", key, "dst", dst)
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("GRANA_LOG_LEVEL"), os.Getenv("GRANA_LOG_FORMAT"))

	if len(os.Args) > 1 && os.Args[1] == "restore" {
		if len(os.Args) != 4 {
			slog.Error("usage: grana restore <key> <dst>")
			os.Exit(1)
		}
		runRestore(logger, os.Args[2], os.Args[3])
		return
	}

	port := envOr("GRANA_PORT", "8080")
	dbPath := envOr("GRANA_DB_PATH", "grana.db")

	jwtSecret := os.Getenv("GRANA_JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("GRANA_JWT_SECRET is required")
		os.Exit(1)
	}

	tokenDuration := 24 * time.Hour
	if v := os.Getenv("GRANA_TOKEN_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid GRANA_TOKEN_DURATION", "value", v, "error", err)
			os.Exit(1)
		}
		tokenDuration = d
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		JWTSecret:     jwtSecret,
		TokenDuration: tokenDuration,
	}, logger)

	backupCfg, err := backupConfigFromEnv(dbPath)
	if err != nil {
		slog.Error("backup config", "error", err)
		os.Exit(1)
	}
	backupMgr := backup.NewManager(backupCfg, db, logger.With("component", "backup"))

	backupCtx, backupCancel := context.WithCancel(context.Background())
	defer backupCancel()
	if backupMgr.Enabled() {
		backupMgr.Start(backupCtx)
		defer backupMgr.Stop()
	} else {
		slog.Info("backups disabled: no S3 credentials")
	}

	// Periodic rate limiter cleanup
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-backupCtx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("grana starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	backupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
