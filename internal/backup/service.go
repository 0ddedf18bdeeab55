// Package backup turns business events into durable artifacts on disk:
// per-agreement PDF/JSON snapshots, fleet CSV exports, and full database
// dumps, each tracked by an append-only metadata row.
package backup

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/sethvargo/go-retry"

	"github.com/tristate/fleetdesk/internal/contract"
	"github.com/tristate/fleetdesk/internal/model"
)

const maxAttempts = 3

// FileStore is the slice of Storage the service depends on, an interface so
// tests can inject write failures.
type FileStore interface {
	Root() string
	AgreementBasePath(agreementNumber, renterName string, date time.Time) string
	VehicleExportPath(date time.Time) string
	DumpPath(date time.Time) string
	Write(relPath string, data []byte) (int64, error)
	Read(relPath string) ([]byte, error)
	DirSize() (int64, error)
}

type VehicleSource interface {
	List() ([]model.Vehicle, error)
}

type AgreementSource interface {
	List() ([]model.Agreement, error)
}

type MetadataStore interface {
	Record(agreementID *int64, kind model.BackupKind, filePath string, sizeBytes int64, status model.BackupRecordStatus, errorMessage string) (*model.BackupRecord, error)
	Recent(limit int) ([]model.BackupRecord, error)
	List() ([]model.BackupRecord, error)
	Counts() (total, failed int64, err error)
	LatestSuccess(agreementID int64, kind model.BackupKind) (*model.BackupRecord, error)
}

// EventFunc is called after each backup outcome so the dashboard can follow
// along in real time.
type EventFunc func(event string, extra map[string]any)

// Service coordinates artifact generation, disk storage, and metadata
// recording for every backup operation.
type Service struct {
	files      FileStore
	vehicles   VehicleSource
	agreements AgreementSource
	metadata   MetadataStore
	replicator *Replicator
	callback   EventFunc
	logger     *slog.Logger

	generate    func(*model.Agreement) ([]byte, error)
	backoffUnit time.Duration
	now         func() time.Time
}

func NewService(files FileStore, vehicles VehicleSource, agreements AgreementSource, metadata MetadataStore, replicator *Replicator, callback EventFunc, logger *slog.Logger) *Service {
	return &Service{
		files:       files,
		vehicles:    vehicles,
		agreements:  agreements,
		metadata:    metadata,
		replicator:  replicator,
		callback:    callback,
		logger:      logger,
		generate:    contract.Generate,
		backoffUnit: time.Second,
		now:         time.Now,
	}
}

func (s *Service) emit(event string, extra map[string]any) {
	if s.callback != nil {
		s.callback(event, extra)
	}
}

// record appends a metadata row. A failure to write the audit row is logged
// and swallowed: metadata recording must never change the outcome of the
// backup attempt it describes.
func (s *Service) record(agreementID *int64, kind model.BackupKind, filePath string, sizeBytes int64, status model.BackupRecordStatus, errorMessage string) {
	if _, err := s.metadata.Record(agreementID, kind, filePath, sizeBytes, status, errorMessage); err != nil {
		s.logger.Error("record backup metadata", "kind", kind, "path", filePath, "error", err)
	}
}

// SaveAgreementBackup writes the agreement's PDF and JSON artifacts side by
// side under the agreements tree, retrying transient write failures up to
// three sequential attempts with linear backoff. On success exactly two
// success metadata rows exist; on exhaustion exactly one failed row.
// Artifact generation is not retried: a malformed agreement is a hard error.
func (s *Service) SaveAgreementBackup(ctx context.Context, a *model.Agreement) (pdfPath, jsonPath string, err error) {
	pdfData, err := s.generate(a)
	if err != nil {
		return "", "", fmt.Errorf("generate agreement artifact: %w", err)
	}
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal agreement: %w", err)
	}

	attempt := 0
	err = retry.Do(ctx, retry.WithMaxRetries(maxAttempts-1, linearBackoff(s.backoffUnit)), func(ctx context.Context) error {
		attempt++
		base := s.files.AgreementBasePath(a.AgreementNumber, a.RenterName, s.now())
		tryPDF := base + ".pdf"
		tryJSON := base + ".json"

		pdfSize, err := s.files.Write(tryPDF, pdfData)
		if err != nil {
			s.logger.Warn("backup attempt failed", "agreement", a.AgreementNumber, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		jsonSize, err := s.files.Write(tryJSON, jsonData)
		if err != nil {
			s.logger.Warn("backup attempt failed", "agreement", a.AgreementNumber, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}

		s.record(&a.ID, model.BackupKindPDF, tryPDF, pdfSize, model.BackupRecordSuccess, "")
		s.record(&a.ID, model.BackupKindJSON, tryJSON, jsonSize, model.BackupRecordSuccess, "")
		pdfPath, jsonPath = tryPDF, tryJSON
		return nil
	})
	if err != nil {
		msg := fmt.Sprintf("failed to save backup after %d attempts: %v", maxAttempts, err)
		s.record(&a.ID, model.BackupKindPDF, "", 0, model.BackupRecordFailed, msg)
		s.logger.Error("agreement backup exhausted retries", "agreement", a.AgreementNumber, "attempts", attempt, "error", err)
		s.emit("backup_failed", map[string]any{"agreement_id": a.ID, "error": msg})
		return "", "", fmt.Errorf("%s", msg)
	}

	s.logger.Info("agreement backup saved", "agreement", a.AgreementNumber, "attempt", attempt, "pdf", pdfPath, "json", jsonPath)
	s.emit("backup_completed", map[string]any{"agreement_id": a.ID, "pdf": pdfPath, "json": jsonPath})
	return pdfPath, jsonPath, nil
}

var csvHeader = []string{"ID", "Make", "Model", "Year", "License Plate", "VIN", "Status", "Type", "Color", "Mileage", "Created At", "Updated At"}

// ExportVehiclesToCSV writes the full fleet as one CSV file and returns its
// path relative to the backup root. There is no retry; a failure propagates
// to the caller after being recorded.
func (s *Service) ExportVehiclesToCSV(ctx context.Context) (string, error) {
	vehicles, err := s.vehicles.List()
	if err != nil {
		return "", fmt.Errorf("list vehicles: %w", err)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range vehicles {
		mileage := ""
		if v.Mileage != nil {
			mileage = strconv.FormatInt(*v.Mileage, 10)
		}
		row := []string{
			strconv.FormatInt(v.ID, 10), v.Make, v.Model, v.Year, v.Plate, v.VIN,
			string(v.Status), v.Type, v.Color, mileage,
			v.CreatedAt.UTC().Format(time.RFC3339), v.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	relPath := s.files.VehicleExportPath(s.now())
	size, err := s.files.Write(relPath, []byte(sb.String()))
	if err != nil {
		s.record(nil, model.BackupKindCSV, "", 0, model.BackupRecordFailed, err.Error())
		return "", fmt.Errorf("save vehicle export: %w", err)
	}

	s.record(nil, model.BackupKindCSV, relPath, size, model.BackupRecordSuccess, "")
	s.logger.Info("vehicle export saved", "path", relPath, "vehicles", len(vehicles), "size", units.BytesSize(float64(size)))
	s.emit("export_completed", map[string]any{"path": relPath, "vehicles": len(vehicles)})
	return relPath, nil
}

type dumpTable struct {
	Count   int `json:"count"`
	Records any `json:"records"`
}

type dumpEnvelope struct {
	Timestamp string               `json:"timestamp"`
	Version   string               `json:"version"`
	Tables    map[string]dumpTable `json:"tables"`
	Metadata  dumpMetadata         `json:"metadata"`
}

type dumpMetadata struct {
	BackupDate     string   `json:"backup_date"`
	TotalRecords   int      `json:"total_records"`
	TablesBackedUp []string `json:"tables_backed_up"`
}

// PerformDatabaseBackup snapshots all three tracked tables into one JSON
// dump file and returns its relative path. If offsite replication is
// configured the dump is also uploaded; replication failures are logged but
// never fail the local backup.
func (s *Service) PerformDatabaseBackup(ctx context.Context) (string, error) {
	agreements, err := s.agreements.List()
	if err != nil {
		return "", fmt.Errorf("list agreements: %w", err)
	}
	vehicles, err := s.vehicles.List()
	if err != nil {
		return "", fmt.Errorf("list vehicles: %w", err)
	}
	records, err := s.metadata.List()
	if err != nil {
		return "", fmt.Errorf("list backup metadata: %w", err)
	}
	if agreements == nil {
		agreements = []model.Agreement{}
	}
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}
	if records == nil {
		records = []model.BackupRecord{}
	}

	now := s.now().UTC().Format(time.RFC3339)
	total := len(agreements) + len(vehicles) + len(records)
	envelope := dumpEnvelope{
		Timestamp: now,
		Version:   "1.0",
		Tables: map[string]dumpTable{
			"rental_agreements": {Count: len(agreements), Records: agreements},
			"vehicles":          {Count: len(vehicles), Records: vehicles},
			"backup_metadata":   {Count: len(records), Records: records},
		},
		Metadata: dumpMetadata{
			BackupDate:     now,
			TotalRecords:   total,
			TablesBackedUp: []string{"rental_agreements", "vehicles", "backup_metadata"},
		},
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dump: %w", err)
	}

	relPath := s.files.DumpPath(s.now())
	size, err := s.files.Write(relPath, data)
	if err != nil {
		s.record(nil, model.BackupKindDump, "", 0, model.BackupRecordFailed, err.Error())
		return "", fmt.Errorf("save database dump: %w", err)
	}
	s.record(nil, model.BackupKindDump, relPath, size, model.BackupRecordSuccess, "")
	s.logger.Info("database dump saved", "path", relPath, "records", total, "size", units.BytesSize(float64(size)))

	if s.replicator != nil {
		if err := s.replicator.Upload(ctx, relPath, data); err != nil {
			s.logger.Error("offsite dump replication failed", "path", relPath, "error", err)
		}
	}

	s.emit("dump_completed", map[string]any{"path": relPath, "records": total})
	return relPath, nil
}

// StatusReport is the shape served by GET /api/backups/status.
type StatusReport struct {
	TotalBackups   int64                `json:"totalBackups"`
	FailedBackups  int64                `json:"failedBackups"`
	RecentBackups  []model.BackupRecord `json:"recentBackups"`
	DiskUsageBytes int64                `json:"diskUsageBytes"`
	DiskUsageMB    string               `json:"diskUsageMB"`
	DiskUsage      string               `json:"diskUsage"`
	BackupPath     string               `json:"backupPath"`
}

// Status reports the ten most recent metadata rows plus aggregate counts and
// current disk usage. Read-only.
func (s *Service) Status() (*StatusReport, error) {
	recent, err := s.metadata.Recent(10)
	if err != nil {
		return nil, fmt.Errorf("recent backups: %w", err)
	}
	if recent == nil {
		recent = []model.BackupRecord{}
	}
	total, failed, err := s.metadata.Counts()
	if err != nil {
		return nil, fmt.Errorf("backup counts: %w", err)
	}

	var usage int64
	if usage, err = s.files.DirSize(); err != nil {
		s.logger.Warn("could not calculate disk usage", "error", err)
		usage = 0
	}

	return &StatusReport{
		TotalBackups:   total,
		FailedBackups:  failed,
		RecentBackups:  recent,
		DiskUsageBytes: usage,
		DiskUsageMB:    fmt.Sprintf("%.2f", float64(usage)/1024/1024),
		DiskUsage:      units.BytesSize(float64(usage)),
		BackupPath:     s.files.Root(),
	}, nil
}

// AgreementPDF returns the bytes and metadata of the most recent successful
// PDF backup for the agreement. ErrNotFound when no such backup exists or
// the indexed file is gone from disk.
func (s *Service) AgreementPDF(agreementID int64) ([]byte, *model.BackupRecord, error) {
	rec, err := s.metadata.LatestSuccess(agreementID, model.BackupKindPDF)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("%w: no pdf backup for agreement %d", ErrNotFound, agreementID)
	}
	data, err := s.files.Read(rec.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return data, rec, nil
}

// linearBackoff waits backoff unit × attempt number between attempts:
// 1s after the first failure, 2s after the second.
func linearBackoff(unit time.Duration) retry.Backoff {
	var failures int
	return retry.BackoffFunc(func() (time.Duration, bool) {
		failures++
		return unit * time.Duration(failures), false
	})
}
