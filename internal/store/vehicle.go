package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tristate/fleetdesk/internal/model"
)

type VehicleStore struct {
	db *sql.DB
}

func NewVehicleStore(db *sql.DB) *VehicleStore {
	return &VehicleStore{db: db}
}

const vehicleCols = `id, make, model, year, plate, vin, status, type, color, mileage, created_at, updated_at`

func scanVehicle(scanner interface{ Scan(...any) error }) (*model.Vehicle, error) {
	var v model.Vehicle
	var vin, color sql.NullString
	var mileage sql.NullInt64
	err := scanner.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Plate, &vin, &v.Status, &v.Type, &color, &mileage, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.VIN = vin.String
	v.Color = color.String
	if mileage.Valid {
		v.Mileage = &mileage.Int64
	}
	return &v, nil
}

func (s *VehicleStore) Create(make, vmodel, year, plate, vin string, status model.VehicleStatus, vtype, color string, mileage *int64) (*model.Vehicle, error) {
	if status == "" {
		status = model.VehicleStatusInHouse
	}
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO vehicles (make, model, year, plate, vin, status, type, color, mileage, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		make, vmodel, year, plate, nullString(vin), status, vtype, nullString(color), mileage, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VehicleStore) GetByID(id int64) (*model.Vehicle, error) {
	row := s.db.QueryRow(`SELECT `+vehicleCols+` FROM vehicles WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	return v, nil
}

// List returns all vehicles, newest first.
func (s *VehicleStore) List() ([]model.Vehicle, error) {
	rows, err := s.db.Query(`SELECT ` + vehicleCols + ` FROM vehicles ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (s *VehicleStore) Update(id int64, make, vmodel, year, plate, vin string, status model.VehicleStatus, vtype, color string, mileage *int64) (*model.Vehicle, error) {
	_, err := s.db.Exec(
		`UPDATE vehicles SET make = ?, model = ?, year = ?, plate = ?, vin = ?, status = ?, type = ?, color = ?, mileage = ?, updated_at = ?
		 WHERE id = ?`,
		make, vmodel, year, plate, nullString(vin), status, vtype, nullString(color), mileage, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update vehicle %d: %w", id, err)
	}
	return s.GetByID(id)
}

func (s *VehicleStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle %d: %w", id, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
