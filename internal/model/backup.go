package model

import "time"

type BackupKind string

const (
	BackupKindPDF  BackupKind = "pdf"
	BackupKindJSON BackupKind = "json"
	BackupKindCSV  BackupKind = "csv"
	BackupKindDump BackupKind = "database-dump"
)

type BackupRecordStatus string

const (
	BackupRecordPending BackupRecordStatus = "pending"
	BackupRecordSuccess BackupRecordStatus = "success"
	BackupRecordFailed  BackupRecordStatus = "failed"
)

// BackupRecord is one row of the backup audit trail: exactly one row per
// physical file written (or per terminal failure). Rows are never mutated or
// deleted. FilePath is relative to the backup root; a failed row has an
// empty path and a populated ErrorMessage.
type BackupRecord struct {
	ID           int64              `json:"id"`
	AgreementID  *int64             `json:"agreement_id,omitempty"`
	Kind         BackupKind         `json:"backup_type"`
	FilePath     string             `json:"file_path"`
	SizeBytes    int64              `json:"file_size"`
	Status       BackupRecordStatus `json:"backup_status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Verified     bool               `json:"verified"`
	BackupDate   time.Time          `json:"backup_date"`
	CreatedAt    time.Time          `json:"created_at"`
}
