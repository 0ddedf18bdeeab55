package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tristate/fleetdesk/internal/model"
	"github.com/tristate/fleetdesk/internal/store"
	"github.com/tristate/fleetdesk/internal/websocket"
)

type VehicleHandler struct {
	vehicles *store.VehicleStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewVehicleHandler(vs *store.VehicleStore, hub *websocket.Hub, logger *slog.Logger) *VehicleHandler {
	return &VehicleHandler{vehicles: vs, hub: hub, logger: logger}
}

type vehicleRequest struct {
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    string `json:"year"`
	Plate   string `json:"plate"`
	VIN     string `json:"vin"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	Color   string `json:"color"`
	Mileage *int64 `json:"mileage"`
}

func (req *vehicleRequest) validate() string {
	req.Make = strings.TrimSpace(req.Make)
	req.Model = strings.TrimSpace(req.Model)
	req.Year = strings.TrimSpace(req.Year)
	req.Plate = strings.TrimSpace(req.Plate)
	if req.Make == "" || req.Model == "" || req.Year == "" || req.Plate == "" {
		return "make, model, year, and plate are required"
	}
	switch model.VehicleStatus(req.Status) {
	case "", model.VehicleStatusInHouse, model.VehicleStatusLoaned, model.VehicleStatusMaintenance:
		return ""
	}
	return "invalid status"
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	v, err := h.vehicles.Create(req.Make, req.Model, req.Year, req.Plate, req.VIN, model.VehicleStatus(req.Status), req.Type, req.Color, req.Mileage)
	if err != nil {
		h.logger.Error("create vehicle", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create vehicle")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("vehicle", "created", v.ID, nil))
	writeJSON(w, http.StatusCreated, v)
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicles.List()
	if err != nil {
		h.logger.Error("list vehicles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	v, err := h.vehicles.GetByID(id)
	if err != nil {
		h.logger.Error("get vehicle", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.vehicles.GetByID(id)
	if err != nil {
		h.logger.Error("get vehicle", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Status == "" {
		req.Status = string(existing.Status)
	}

	v, err := h.vehicles.Update(id, req.Make, req.Model, req.Year, req.Plate, req.VIN, model.VehicleStatus(req.Status), req.Type, req.Color, req.Mileage)
	if err != nil {
		h.logger.Error("update vehicle", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update vehicle")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("vehicle", "updated", id, nil))
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.vehicles.GetByID(id)
	if err != nil {
		h.logger.Error("get vehicle", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	if err := h.vehicles.Delete(id); err != nil {
		h.logger.Error("delete vehicle", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete vehicle")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("vehicle", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
