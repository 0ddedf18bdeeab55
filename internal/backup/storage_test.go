package backup

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	return NewStorage(t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestEnsureDirectoriesIdempotent(t *testing.T) {
	s := testStorage(t)

	for i := 0; i < 2; i++ {
		if err := s.EnsureDirectories(); err != nil {
			t.Fatalf("ensure directories (call %d): %v", i+1, err)
		}
	}

	for _, dir := range []string{"agreements", "vehicles", "database-dumps", "logs"} {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		if err != nil {
			t.Errorf("stat %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestAgreementBasePath(t *testing.T) {
	s := testStorage(t)

	date := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)
	got := s.AgreementBasePath("AGR-007", "O'Brien & Sons", date)
	want := "agreements/2026/03-March/AGR-007_OBrienSons_2026-03-05"
	if got != want {
		t.Errorf("base path = %q, want %q", got, want)
	}
}

func TestExportAndDumpPaths(t *testing.T) {
	s := testStorage(t)

	date := time.Date(2026, 8, 28, 2, 0, 0, 0, time.UTC)
	if got, want := s.VehicleExportPath(date), "vehicles/vehicles_export_2026-08-28.csv"; got != want {
		t.Errorf("export path = %q, want %q", got, want)
	}
	if got, want := s.DumpPath(date), "database-dumps/full_backup_2026-08-28.json"; got != want {
		t.Errorf("dump path = %q, want %q", got, want)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := testStorage(t)

	data := []byte("hello backups")
	size, err := s.Write("agreements/2026/03-March/test.json", data)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if size != int64(len(data)) {
		t.Errorf("size = %d, want %d", size, len(data))
	}

	got, err := s.Read("agreements/2026/03-March/test.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("read = %q, want %q", got, data)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := testStorage(t)

	_, err := s.Read("agreements/nope.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDirSize(t *testing.T) {
	s := testStorage(t)
	if err := s.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	if _, err := s.Write("vehicles/a.csv", make([]byte, 100)); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if _, err := s.Write("database-dumps/b.json", make([]byte, 250)); err != nil {
		t.Fatalf("write b: %v", err)
	}

	size, err := s.DirSize()
	if err != nil {
		t.Fatalf("dir size: %v", err)
	}
	if size != 350 {
		t.Errorf("size = %d, want 350", size)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"O'Brien & Sons":  "OBrienSons",
		"John Smith":      "JohnSmith",
		"Ana-Maria Lopez": "AnaMariaLopez",
		"X Æ A-12":        "XA12",
	}
	for in, want := range cases {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
