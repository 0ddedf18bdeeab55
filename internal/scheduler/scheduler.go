// Package scheduler runs the nightly backup jobs: the fleet CSV export at
// midnight and the full database dump at 2 AM, both in the business's local
// timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	vehicleExportSpec  = "0 0 * * *"
	databaseBackupSpec = "0 2 * * *"
)

// JobFunc is one scheduled backup operation. The returned path is logged; an
// error is logged and the schedule keeps running.
type JobFunc func(ctx context.Context) (string, error)

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New builds the daily schedule. Jobs fire in loc so "midnight" tracks the
// office clock across DST changes.
func New(loc *time.Location, exportVehicles, databaseBackup JobFunc, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}

	if _, err := s.cron.AddFunc(vehicleExportSpec, s.runJob("vehicle export", exportVehicles)); err != nil {
		return nil, fmt.Errorf("schedule vehicle export: %w", err)
	}
	if _, err := s.cron.AddFunc(databaseBackupSpec, s.runJob("database backup", databaseBackup)); err != nil {
		return nil, fmt.Errorf("schedule database backup: %w", err)
	}

	return s, nil
}

// runJob wraps a job so a failed run never takes the schedule down with it.
func (s *Scheduler) runJob(name string, job JobFunc) func() {
	return func() {
		s.logger.Info("running scheduled job", "job", name)
		path, err := job(context.Background())
		if err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", name, "path", path)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("backup scheduler started",
		"vehicle_export", vehicleExportSpec,
		"database_backup", databaseBackupSpec,
		"timezone", s.cron.Location().String())
}

// Stop halts the schedule and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("backup scheduler stopped")
}
