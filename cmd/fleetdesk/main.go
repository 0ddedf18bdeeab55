package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tristate/fleetdesk/internal/backup"
	"github.com/tristate/fleetdesk/internal/database"
	"github.com/tristate/fleetdesk/internal/logging"
	"github.com/tristate/fleetdesk/internal/scheduler"
	"github.com/tristate/fleetdesk/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := envOr("FLEETDESK_PORT", "8080")
	dbPath := envOr("FLEETDESK_DB_PATH", "fleetdesk.db")
	backupPath := envOr("BACKUP_PATH", "/app/backups")
	tz := envOr("FLEETDESK_TZ", "America/New_York")

	logger, logFile, err := logging.SetupWithFile(os.Getenv("FLEETDESK_LOG_LEVEL"), backupPath)
	if err != nil {
		// Fall back to stderr-only logging when the backup volume is not
		// mounted yet; EnsureDirectories below reports the real problem.
		logger = logging.Setup(os.Getenv("FLEETDESK_LOG_LEVEL"))
	} else {
		defer logFile.Close()
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	storage := backup.NewStorage(backupPath, logger.With("component", "storage"))
	if err := storage.EnsureDirectories(); err != nil {
		log.Fatalf("failed to initialize backup directories: %v", err)
	}

	replicator := backup.NewReplicator(backup.OffsiteConfig{
		Endpoint:  os.Getenv("FLEETDESK_S3_ENDPOINT"),
		Bucket:    os.Getenv("FLEETDESK_S3_BUCKET"),
		Region:    envOr("FLEETDESK_S3_REGION", "us-east-1"),
		AccessKey: os.Getenv("FLEETDESK_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("FLEETDESK_S3_SECRET_KEY"),
	}, logger.With("component", "offsite"))

	srv := server.New(db, storage, replicator, logger)

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", tz, err)
	}
	svc := srv.BackupService()
	sched, err := scheduler.New(loc, svc.ExportVehiclesToCSV, svc.PerformDatabaseBackup, logger.With("component", "scheduler"))
	if err != nil {
		log.Fatalf("failed to build backup schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("FleetDesk running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
