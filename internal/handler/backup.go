package handler

import (
	"log/slog"
	"net/http"

	"github.com/tristate/fleetdesk/internal/backup"
)

type BackupHandler struct {
	backups *backup.Service
	logger  *slog.Logger
}

func NewBackupHandler(bs *backup.Service, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{backups: bs, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.backups.Status()
	if err != nil {
		h.logger.Error("backup status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read backup status")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *BackupHandler) ExportVehicles(w http.ResponseWriter, r *http.Request) {
	relPath, err := h.backups.ExportVehiclesToCSV(r.Context())
	if err != nil {
		h.logger.Error("vehicle export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export vehicles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filePath": relPath})
}

func (h *BackupHandler) DatabaseBackup(w http.ResponseWriter, r *http.Request) {
	relPath, err := h.backups.PerformDatabaseBackup(r.Context())
	if err != nil {
		h.logger.Error("database backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to back up database")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filePath": relPath})
}
