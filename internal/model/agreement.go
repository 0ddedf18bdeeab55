package model

import "time"

type AgreementStatus string

const (
	AgreementStatusActive    AgreementStatus = "Active"
	AgreementStatusCompleted AgreementStatus = "Completed"
	AgreementStatusCancelled AgreementStatus = "Cancelled"
)

// Agreement is a rental contract snapshot taken at creation time. All fields
// except Status and UpdatedAt are immutable once the row exists. Date-valued
// fields are stored as ISO date strings because they come straight off the
// intake form.
type Agreement struct {
	ID              int64  `json:"id"`
	AgreementNumber string `json:"agreement_number"`

	RenterName    string `json:"renter_name"`
	RenterAddress string `json:"renter_address"`
	RenterCity    string `json:"renter_city"`
	RenterState   string `json:"renter_state"`
	RenterZipCode string `json:"renter_zip_code"`
	RenterPhone   string `json:"renter_phone"`
	RenterEmail   string `json:"renter_email,omitempty"`

	DriversLicense    string `json:"drivers_license"`
	LicenseState      string `json:"license_state"`
	LicenseExpiration string `json:"license_expiration"`
	DateOfBirth       string `json:"date_of_birth"`

	InsuranceCompany string `json:"insurance_company"`
	PolicyNumber     string `json:"policy_number"`
	PolicyExpiration string `json:"policy_expiration"`
	InsuranceAgent   string `json:"insurance_agent,omitempty"`
	AgentPhone       string `json:"agent_phone,omitempty"`
	Adjuster         string `json:"adjuster,omitempty"`
	AdjusterPhone    string `json:"adjuster_phone,omitempty"`
	ClaimNumber      string `json:"claim_number,omitempty"`
	DateOfLoss       string `json:"date_of_loss,omitempty"`

	// Original vehicle (the renter's own car, damaged or in the shop).
	// Present only for insurance-replacement rentals.
	OriginalCarNumber string `json:"original_car_number,omitempty"`
	OriginalLicense   string `json:"original_license,omitempty"`
	OriginalYear      string `json:"original_year,omitempty"`
	OriginalMake      string `json:"original_make,omitempty"`
	OriginalModel     string `json:"original_model,omitempty"`
	OriginalColor     string `json:"original_color,omitempty"`

	CurrentCarNumber string `json:"current_car_number"`
	CurrentLicense   string `json:"current_license"`
	CurrentYear      string `json:"current_year"`
	CurrentMake      string `json:"current_make"`
	CurrentModel     string `json:"current_model"`
	CurrentColor     string `json:"current_color"`

	DateDueBack  string `json:"date_due_back,omitempty"`
	MileageOut   string `json:"mileage_out,omitempty"`
	FuelGaugeOut string `json:"fuel_gauge_out,omitempty"`

	Deposits      string `json:"deposits,omitempty"`
	SalesTax      string `json:"sales_tax"`
	StateSalesTax string `json:"state_sales_tax"`
	FuelCharges   string `json:"fuel_charges"`

	Status    AgreementStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
