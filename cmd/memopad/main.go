package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/memopad/internal/backup"
	"github.com/dukerupert/memopad/internal/database"
	"github.com/dukerupert/memopad/internal/logging"
	"github.com/dukerupert/memopad/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("MEMOPAD_LOG_LEVEL"))

	port := os.Getenv("MEMOPAD_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("MEMOPAD_DB_PATH")
	if dbPath == "" {
		dbPath = "memopad.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		DBPath:          dbPath,
		DefaultTimezone: os.Getenv("MEMOPAD_DEFAULT_TIMEZONE"),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("MEMOPAD_BACKUP_S3_ENDPOINT"),
				Bucket:    os.Getenv("MEMOPAD_BACKUP_S3_BUCKET"),
				Region:    os.Getenv("MEMOPAD_BACKUP_S3_REGION"),
				AccessKey: os.Getenv("MEMOPAD_BACKUP_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("MEMOPAD_BACKUP_S3_SECRET_KEY"),
			},
			DBPath:        dbPath,
			Passphrase:    os.Getenv("MEMOPAD_BACKUP_PASSPHRASE"),
			ScheduleHour:  envInt("MEMOPAD_BACKUP_HOUR", 3),
			RetentionDays: envInt("MEMOPAD_BACKUP_RETENTION_DAYS", 30),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// Periodic housekeeping: expired sessions and stale rate-limit entries
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("purged expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("memopad listening", "port", port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
