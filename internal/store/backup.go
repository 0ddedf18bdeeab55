package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tristate/fleetdesk/internal/model"
)

type BackupMetadataStore struct {
	db *sql.DB
}

func NewBackupMetadataStore(db *sql.DB) *BackupMetadataStore {
	return &BackupMetadataStore{db: db}
}

const backupCols = `id, agreement_id, backup_type, file_path, file_size, backup_status, error_message, verified, backup_date, created_at`

func scanBackupRecord(scanner interface{ Scan(...any) error }) (*model.BackupRecord, error) {
	var r model.BackupRecord
	var agreementID sql.NullInt64
	var errMsg sql.NullString
	err := scanner.Scan(&r.ID, &agreementID, &r.Kind, &r.FilePath, &r.SizeBytes, &r.Status, &errMsg, &r.Verified, &r.BackupDate, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if agreementID.Valid {
		r.AgreementID = &agreementID.Int64
	}
	r.ErrorMessage = errMsg.String
	return &r, nil
}

// Record appends one audit row. Rows are append-only; nothing ever updates
// or deletes them. Verified mirrors a successful status, matching what the
// dashboard expects.
func (s *BackupMetadataStore) Record(agreementID *int64, kind model.BackupKind, filePath string, sizeBytes int64, status model.BackupRecordStatus, errorMessage string) (*model.BackupRecord, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO backup_metadata (agreement_id, backup_type, file_path, file_size, backup_status, error_message, verified, backup_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agreementID, kind, filePath, sizeBytes, status, nullString(errorMessage), status == model.BackupRecordSuccess, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup metadata: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+backupCols+` FROM backup_metadata WHERE id = ?`, id)
	r, err := scanBackupRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get backup metadata %d: %w", id, err)
	}
	return r, nil
}

// Recent returns up to limit records, newest first.
func (s *BackupMetadataStore) Recent(limit int) ([]model.BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+backupCols+` FROM backup_metadata ORDER BY backup_date DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent backups: %w", err)
	}
	defer rows.Close()
	return collectBackupRecords(rows)
}

// List returns every record, newest first. Used by the full database dump.
func (s *BackupMetadataStore) List() ([]model.BackupRecord, error) {
	rows, err := s.db.Query(`SELECT ` + backupCols + ` FROM backup_metadata ORDER BY backup_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()
	return collectBackupRecords(rows)
}

// Counts returns the total number of records and how many are failed.
func (s *BackupMetadataStore) Counts() (total, failed int64, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(backup_status = ?), 0) FROM backup_metadata`,
		model.BackupRecordFailed,
	).Scan(&total, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("count backups: %w", err)
	}
	return total, failed, nil
}

// LatestSuccess returns the most recent successful record of the given kind
// for an agreement, or nil if there is none.
func (s *BackupMetadataStore) LatestSuccess(agreementID int64, kind model.BackupKind) (*model.BackupRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+backupCols+` FROM backup_metadata
		 WHERE agreement_id = ? AND backup_type = ? AND backup_status = ?
		 ORDER BY backup_date DESC, id DESC LIMIT 1`,
		agreementID, kind, model.BackupRecordSuccess,
	)
	r, err := scanBackupRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s backup for agreement %d: %w", kind, agreementID, err)
	}
	return r, nil
}

func collectBackupRecords(rows *sql.Rows) ([]model.BackupRecord, error) {
	var records []model.BackupRecord
	for rows.Next() {
		r, err := scanBackupRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup metadata: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
