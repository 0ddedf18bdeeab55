package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound reports a backup file that has no presence on disk.
var ErrNotFound = errors.New("backup file not found")

// Storage manages the on-disk backup tree. All paths it hands out and
// accepts are relative to the root, which is what gets persisted in the
// metadata rows.
type Storage struct {
	root   string
	logger *slog.Logger
}

func NewStorage(root string, logger *slog.Logger) *Storage {
	return &Storage{root: root, logger: logger}
}

// Root returns the absolute backup root path.
func (s *Storage) Root() string {
	return s.root
}

// EnsureDirectories idempotently creates the four fixed subtrees. The
// process cannot run without a writable backup root, so callers treat an
// error here as fatal.
func (s *Storage) EnsureDirectories() error {
	for _, dir := range []string{"agreements", "vehicles", "database-dumps", "logs"} {
		full := filepath.Join(s.root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fmt.Errorf("create backup directory %s: %w", full, err)
		}
		s.logger.Info("initialized backup directory", "path", full)
	}
	return nil
}

// AgreementBasePath computes the extension-less destination for one
// agreement's artifacts: agreements/<year>/<MM>-<MonthName>/<number>_<name>_<date>.
// The renter name is stripped of everything but letters and digits.
func (s *Storage) AgreementBasePath(agreementNumber, renterName string, date time.Time) string {
	dir := filepath.Join(
		"agreements",
		fmt.Sprintf("%d", date.Year()),
		fmt.Sprintf("%02d-%s", int(date.Month()), date.Month().String()),
	)
	name := fmt.Sprintf("%s_%s_%s", agreementNumber, sanitizeName(renterName), date.Format("2006-01-02"))
	return filepath.Join(dir, name)
}

// VehicleExportPath computes the destination for a fleet CSV export.
func (s *Storage) VehicleExportPath(date time.Time) string {
	return filepath.Join("vehicles", fmt.Sprintf("vehicles_export_%s.csv", date.Format("2006-01-02")))
}

// DumpPath computes the destination for a full database dump.
func (s *Storage) DumpPath(date time.Time) string {
	return filepath.Join("database-dumps", fmt.Sprintf("full_backup_%s.json", date.Format("2006-01-02")))
}

// Write stores data at the relative path, creating parent directories as
// needed, and returns the written file's size as reported by the filesystem.
func (s *Storage) Write(relPath string, data []byte) (int64, error) {
	full := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", relPath, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", relPath, err)
	}
	return info.Size(), nil
}

// Read returns the bytes of a backup file addressed relative to the root.
func (s *Storage) Read(relPath string) ([]byte, error) {
	full := filepath.Join(s.root, relPath)
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	return data, nil
}

// DirSize recursively sums file sizes under the backup root.
func (s *Storage) DirSize() (int64, error) {
	var size int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return size, nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
