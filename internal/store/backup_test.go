package store

import (
	"testing"

	"github.com/tristate/fleetdesk/internal/database"
	"github.com/tristate/fleetdesk/internal/model"
)

func setupBackupTestDB(t *testing.T) (*BackupMetadataStore, *AgreementStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupMetadataStore(db), NewAgreementStore(db)
}

func TestBackupRecordSuccess(t *testing.T) {
	bs, as := setupBackupTestDB(t)

	a, err := as.Create(testAgreement())
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	r, err := bs.Record(&a.ID, model.BackupKindPDF, "agreements/2026/03-March/AGR-001_JohnSmith_2026-03-05.pdf", 18231, model.BackupRecordSuccess, "")
	if err != nil {
		t.Fatalf("record backup: %v", err)
	}
	if r.AgreementID == nil || *r.AgreementID != a.ID {
		t.Errorf("agreement_id = %v, want %d", r.AgreementID, a.ID)
	}
	if !r.Verified {
		t.Error("success record should be verified")
	}
	if r.ErrorMessage != "" {
		t.Errorf("error_message = %q, want empty", r.ErrorMessage)
	}
}

func TestBackupRecordFailed(t *testing.T) {
	bs, _ := setupBackupTestDB(t)

	r, err := bs.Record(nil, model.BackupKindPDF, "", 0, model.BackupRecordFailed, "disk full")
	if err != nil {
		t.Fatalf("record backup: %v", err)
	}
	if r.FilePath != "" {
		t.Errorf("file_path = %q, want empty for failed record", r.FilePath)
	}
	if r.ErrorMessage != "disk full" {
		t.Errorf("error_message = %q, want %q", r.ErrorMessage, "disk full")
	}
	if r.Verified {
		t.Error("failed record must not be verified")
	}
}

func TestBackupCountsAndRecent(t *testing.T) {
	bs, _ := setupBackupTestDB(t)

	for i := 0; i < 12; i++ {
		status := model.BackupRecordSuccess
		msg := ""
		if i%4 == 0 {
			status = model.BackupRecordFailed
			msg = "write error"
		}
		if _, err := bs.Record(nil, model.BackupKindCSV, "vehicles/vehicles_export.csv", 100, status, msg); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	total, failed, err := bs.Counts()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 12 {
		t.Errorf("total = %d, want 12", total)
	}
	if failed != 3 {
		t.Errorf("failed = %d, want 3", failed)
	}

	recent, err := bs.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("len(recent) = %d, want 10", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].BackupDate.After(recent[i-1].BackupDate) {
			t.Errorf("recent[%d] newer than recent[%d]; want newest first", i, i-1)
		}
	}
}

func TestBackupLatestSuccess(t *testing.T) {
	bs, as := setupBackupTestDB(t)

	a, err := as.Create(testAgreement())
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	if _, err := bs.Record(&a.ID, model.BackupKindPDF, "first.pdf", 10, model.BackupRecordSuccess, ""); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if _, err := bs.Record(&a.ID, model.BackupKindPDF, "second.pdf", 20, model.BackupRecordSuccess, ""); err != nil {
		t.Fatalf("record second: %v", err)
	}
	if _, err := bs.Record(&a.ID, model.BackupKindPDF, "", 0, model.BackupRecordFailed, "boom"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := bs.Record(&a.ID, model.BackupKindJSON, "second.json", 20, model.BackupRecordSuccess, ""); err != nil {
		t.Fatalf("record json: %v", err)
	}

	r, err := bs.LatestSuccess(a.ID, model.BackupKindPDF)
	if err != nil {
		t.Fatalf("latest success: %v", err)
	}
	if r == nil {
		t.Fatal("expected a record")
	}
	if r.FilePath != "second.pdf" {
		t.Errorf("file_path = %q, want second.pdf", r.FilePath)
	}

	missing, err := bs.LatestSuccess(9999, model.BackupKindPDF)
	if err != nil {
		t.Fatalf("latest success missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown agreement, got %+v", missing)
	}
}
