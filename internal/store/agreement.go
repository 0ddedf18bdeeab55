package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tristate/fleetdesk/internal/model"
)

type AgreementStore struct {
	db *sql.DB
}

func NewAgreementStore(db *sql.DB) *AgreementStore {
	return &AgreementStore{db: db}
}

const agreementCols = `id, agreement_number,
	renter_name, renter_address, renter_city, renter_state, renter_zip_code, renter_phone, renter_email,
	drivers_license, license_state, license_expiration, date_of_birth,
	insurance_company, policy_number, policy_expiration, insurance_agent, agent_phone,
	adjuster, adjuster_phone, claim_number, date_of_loss,
	original_car_number, original_license, original_year, original_make, original_model, original_color,
	current_car_number, current_license, current_year, current_make, current_model, current_color,
	date_due_back, mileage_out, fuel_gauge_out,
	deposits, sales_tax, state_sales_tax, fuel_charges,
	status, created_at, updated_at`

var agreementNumberRe = regexp.MustCompile(`AGR-(\d+)`)

func scanAgreement(scanner interface{ Scan(...any) error }) (*model.Agreement, error) {
	var a model.Agreement
	var email, insuranceAgent, agentPhone, adjuster, adjusterPhone, claimNumber, dateOfLoss sql.NullString
	var origCar, origLicense, origYear, origMake, origModel, origColor sql.NullString
	var dueBack, mileageOut, fuelOut, deposits sql.NullString
	err := scanner.Scan(
		&a.ID, &a.AgreementNumber,
		&a.RenterName, &a.RenterAddress, &a.RenterCity, &a.RenterState, &a.RenterZipCode, &a.RenterPhone, &email,
		&a.DriversLicense, &a.LicenseState, &a.LicenseExpiration, &a.DateOfBirth,
		&a.InsuranceCompany, &a.PolicyNumber, &a.PolicyExpiration, &insuranceAgent, &agentPhone,
		&adjuster, &adjusterPhone, &claimNumber, &dateOfLoss,
		&origCar, &origLicense, &origYear, &origMake, &origModel, &origColor,
		&a.CurrentCarNumber, &a.CurrentLicense, &a.CurrentYear, &a.CurrentMake, &a.CurrentModel, &a.CurrentColor,
		&dueBack, &mileageOut, &fuelOut,
		&deposits, &a.SalesTax, &a.StateSalesTax, &a.FuelCharges,
		&a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RenterEmail = email.String
	a.InsuranceAgent = insuranceAgent.String
	a.AgentPhone = agentPhone.String
	a.Adjuster = adjuster.String
	a.AdjusterPhone = adjusterPhone.String
	a.ClaimNumber = claimNumber.String
	a.DateOfLoss = dateOfLoss.String
	a.OriginalCarNumber = origCar.String
	a.OriginalLicense = origLicense.String
	a.OriginalYear = origYear.String
	a.OriginalMake = origMake.String
	a.OriginalModel = origModel.String
	a.OriginalColor = origColor.String
	a.DateDueBack = dueBack.String
	a.MileageOut = mileageOut.String
	a.FuelGaugeOut = fuelOut.String
	a.Deposits = deposits.String
	return &a, nil
}

// Create inserts a new agreement and assigns the next AGR-NNN number. The
// number is derived from the most recent existing number inside a single
// transaction; the unique constraint on agreement_number backstops the
// remaining race between concurrent creations.
func (s *AgreementStore) Create(a *model.Agreement) (*model.Agreement, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullString
	err = tx.QueryRow(
		`SELECT agreement_number FROM rental_agreements ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("last agreement number: %w", err)
	}

	next := 1
	if m := agreementNumberRe.FindStringSubmatch(last.String); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			next = n + 1
		}
	}
	number := fmt.Sprintf("AGR-%03d", next)

	now := time.Now().UTC()
	status := a.Status
	if status == "" {
		status = model.AgreementStatusActive
	}

	result, err := tx.Exec(
		`INSERT INTO rental_agreements (agreement_number,
			renter_name, renter_address, renter_city, renter_state, renter_zip_code, renter_phone, renter_email,
			drivers_license, license_state, license_expiration, date_of_birth,
			insurance_company, policy_number, policy_expiration, insurance_agent, agent_phone,
			adjuster, adjuster_phone, claim_number, date_of_loss,
			original_car_number, original_license, original_year, original_make, original_model, original_color,
			current_car_number, current_license, current_year, current_make, current_model, current_color,
			date_due_back, mileage_out, fuel_gauge_out,
			deposits, sales_tax, state_sales_tax, fuel_charges,
			status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		number,
		a.RenterName, a.RenterAddress, a.RenterCity, a.RenterState, a.RenterZipCode, a.RenterPhone, nullString(a.RenterEmail),
		a.DriversLicense, a.LicenseState, a.LicenseExpiration, a.DateOfBirth,
		a.InsuranceCompany, a.PolicyNumber, a.PolicyExpiration, nullString(a.InsuranceAgent), nullString(a.AgentPhone),
		nullString(a.Adjuster), nullString(a.AdjusterPhone), nullString(a.ClaimNumber), nullString(a.DateOfLoss),
		nullString(a.OriginalCarNumber), nullString(a.OriginalLicense), nullString(a.OriginalYear), nullString(a.OriginalMake), nullString(a.OriginalModel), nullString(a.OriginalColor),
		a.CurrentCarNumber, a.CurrentLicense, a.CurrentYear, a.CurrentMake, a.CurrentModel, a.CurrentColor,
		nullString(a.DateDueBack), nullString(a.MileageOut), nullString(a.FuelGaugeOut),
		nullString(a.Deposits), defaultString(a.SalesTax, "8.00"), defaultString(a.StateSalesTax, "7.00"), defaultString(a.FuelCharges, "5.99"),
		status, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agreement: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit agreement: %w", err)
	}
	return s.GetByID(id)
}

func (s *AgreementStore) GetByID(id int64) (*model.Agreement, error) {
	row := s.db.QueryRow(`SELECT `+agreementCols+` FROM rental_agreements WHERE id = ?`, id)
	a, err := scanAgreement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agreement %d: %w", id, err)
	}
	return a, nil
}

// List returns all agreements, newest first.
func (s *AgreementStore) List() ([]model.Agreement, error) {
	rows, err := s.db.Query(`SELECT ` + agreementCols + ` FROM rental_agreements ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	defer rows.Close()

	var agreements []model.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agreement: %w", err)
		}
		agreements = append(agreements, *a)
	}
	return agreements, rows.Err()
}

// UpdateStatus is the only permitted mutation of an agreement.
func (s *AgreementStore) UpdateStatus(id int64, status model.AgreementStatus) (*model.Agreement, error) {
	_, err := s.db.Exec(
		`UPDATE rental_agreements SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update agreement %d: %w", id, err)
	}
	return s.GetByID(id)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
