package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tristate/fleetdesk/internal/backup"
	"github.com/tristate/fleetdesk/internal/model"
	"github.com/tristate/fleetdesk/internal/store"
	"github.com/tristate/fleetdesk/internal/websocket"
)

// backupTimeout bounds the detached backup goroutine kicked off after an
// agreement is created.
const backupTimeout = 2 * time.Minute

type AgreementHandler struct {
	agreements *store.AgreementStore
	backups    *backup.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewAgreementHandler(as *store.AgreementStore, bs *backup.Service, hub *websocket.Hub, logger *slog.Logger) *AgreementHandler {
	return &AgreementHandler{agreements: as, backups: bs, hub: hub, logger: logger}
}

// Create stores the agreement and kicks off its PDF/JSON backup in the
// background. The response does not wait for the backup: a slow disk must
// never hold up the front desk.
func (h *AgreementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a model.Agreement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a.RenterName = strings.TrimSpace(a.RenterName)
	if a.RenterName == "" {
		writeError(w, http.StatusBadRequest, "renter_name is required")
		return
	}
	if a.DateOfBirth == "" || a.LicenseExpiration == "" || a.PolicyExpiration == "" {
		writeError(w, http.StatusBadRequest, "date_of_birth, license_expiration, and policy_expiration are required")
		return
	}

	created, err := h.agreements.Create(&a)
	if err != nil {
		h.logger.Error("create agreement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create agreement")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
		defer cancel()
		if _, _, err := h.backups.SaveAgreementBackup(ctx, created); err != nil {
			h.logger.Error("agreement backup", "agreement", created.AgreementNumber, "error", err)
		}
	}()

	h.hub.Broadcast(websocket.NewMessage("agreement", "created", created.ID, map[string]any{"number": created.AgreementNumber}))
	writeJSON(w, http.StatusCreated, created)
}

func (h *AgreementHandler) List(w http.ResponseWriter, r *http.Request) {
	agreements, err := h.agreements.List()
	if err != nil {
		h.logger.Error("list agreements", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list agreements")
		return
	}
	if agreements == nil {
		agreements = []model.Agreement{}
	}
	writeJSON(w, http.StatusOK, agreements)
}

func (h *AgreementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.agreements.GetByID(id)
	if err != nil {
		h.logger.Error("get agreement", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get agreement")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "agreement not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type agreementStatusRequest struct {
	Status model.AgreementStatus `json:"status"`
}

// UpdateStatus is the only mutation agreements support after creation; the
// signed terms themselves are immutable.
func (h *AgreementHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req agreementStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch req.Status {
	case model.AgreementStatusActive, model.AgreementStatusCompleted, model.AgreementStatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	existing, err := h.agreements.GetByID(id)
	if err != nil {
		h.logger.Error("get agreement", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get agreement")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "agreement not found")
		return
	}

	a, err := h.agreements.UpdateStatus(id, req.Status)
	if err != nil {
		h.logger.Error("update agreement status", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update agreement")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("agreement", "updated", id, map[string]any{"status": string(req.Status)}))
	writeJSON(w, http.StatusOK, a)
}

// DownloadPDF serves the most recent successful PDF backup of the agreement
// as an attachment.
func (h *AgreementHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	data, rec, err := h.backups.AgreementPDF(id)
	if errors.Is(err, backup.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no pdf backup for this agreement")
		return
	}
	if err != nil {
		h.logger.Error("agreement pdf", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read pdf backup")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(rec.FilePath)))
	w.Write(data)
}
