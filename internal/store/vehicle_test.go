package store

import (
	"testing"

	"github.com/tristate/fleetdesk/internal/database"
	"github.com/tristate/fleetdesk/internal/model"
)

func setupVehicleTestDB(t *testing.T) *VehicleStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVehicleStore(db)
}

func TestVehicleCRUD(t *testing.T) {
	vs := setupVehicleTestDB(t)

	mileage := int64(42150)
	v, err := vs.Create("Toyota", "Camry", "2022", "ABC-123", "4T1BF1FK5CU123456", "", "Sedan", "Silver", &mileage)
	if err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if v.Status != model.VehicleStatusInHouse {
		t.Errorf("status = %q, want default %q", v.Status, model.VehicleStatusInHouse)
	}
	if v.Mileage == nil || *v.Mileage != 42150 {
		t.Errorf("mileage = %v, want 42150", v.Mileage)
	}

	got, err := vs.GetByID(v.ID)
	if err != nil {
		t.Fatalf("get vehicle: %v", err)
	}
	if got.Plate != "ABC-123" {
		t.Errorf("plate = %q, want %q", got.Plate, "ABC-123")
	}

	updated, err := vs.Update(v.ID, "Toyota", "Camry", "2022", "ABC-123", v.VIN, model.VehicleStatusLoaned, "Sedan", "Silver", &mileage)
	if err != nil {
		t.Fatalf("update vehicle: %v", err)
	}
	if updated.Status != model.VehicleStatusLoaned {
		t.Errorf("status = %q, want %q", updated.Status, model.VehicleStatusLoaned)
	}

	if err := vs.Delete(v.ID); err != nil {
		t.Fatalf("delete vehicle: %v", err)
	}
	got, err = vs.GetByID(v.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestVehicleOptionalFields(t *testing.T) {
	vs := setupVehicleTestDB(t)

	v, err := vs.Create("Ford", "Transit", "2019", "VAN-001", "", model.VehicleStatusMaintenance, "Van", "", nil)
	if err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if v.VIN != "" || v.Color != "" {
		t.Errorf("expected empty optional fields, got vin=%q color=%q", v.VIN, v.Color)
	}
	if v.Mileage != nil {
		t.Errorf("mileage = %v, want nil", v.Mileage)
	}
}

func TestVehicleListNewestFirst(t *testing.T) {
	vs := setupVehicleTestDB(t)

	plates := []string{"AAA-111", "BBB-222", "CCC-333"}
	for _, p := range plates {
		if _, err := vs.Create("Honda", "Civic", "2021", p, "", "", "Sedan", "", nil); err != nil {
			t.Fatalf("create %s: %v", p, err)
		}
	}

	vehicles, err := vs.List()
	if err != nil {
		t.Fatalf("list vehicles: %v", err)
	}
	if len(vehicles) != 3 {
		t.Fatalf("len = %d, want 3", len(vehicles))
	}
	if vehicles[0].Plate != "CCC-333" {
		t.Errorf("first plate = %q, want newest CCC-333", vehicles[0].Plate)
	}
}

func TestVehicleUniquePlate(t *testing.T) {
	vs := setupVehicleTestDB(t)

	if _, err := vs.Create("Honda", "Civic", "2021", "DUP-001", "", "", "Sedan", "", nil); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if _, err := vs.Create("Ford", "Focus", "2020", "DUP-001", "", "", "Sedan", "", nil); err == nil {
		t.Error("expected unique constraint error for duplicate plate")
	}
}
