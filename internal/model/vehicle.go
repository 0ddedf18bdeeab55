package model

import "time"

type VehicleStatus string

const (
	VehicleStatusInHouse     VehicleStatus = "In-House"
	VehicleStatusLoaned      VehicleStatus = "Loaned"
	VehicleStatusMaintenance VehicleStatus = "Maintenance"
)

type Vehicle struct {
	ID        int64         `json:"id"`
	Make      string        `json:"make"`
	Model     string        `json:"model"`
	Year      string        `json:"year"`
	Plate     string        `json:"plate"`
	VIN       string        `json:"vin,omitempty"`
	Status    VehicleStatus `json:"status"`
	Type      string        `json:"type"`
	Color     string        `json:"color,omitempty"`
	Mileage   *int64        `json:"mileage,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
