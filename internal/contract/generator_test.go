package contract

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tristate/fleetdesk/internal/model"
)

func sampleAgreement() *model.Agreement {
	return &model.Agreement{
		AgreementNumber:   "AGR-007",
		RenterName:        "John Smith",
		RenterAddress:     "12 Main St",
		RenterCity:        "Pawtucket",
		RenterState:       "RI",
		RenterZipCode:     "02861",
		RenterPhone:       "401-555-0100",
		DriversLicense:    "S1234567",
		LicenseState:      "RI",
		LicenseExpiration: "2027-06-30",
		DateOfBirth:       "1985-02-14",
		InsuranceCompany:  "Amica",
		PolicyNumber:      "POL-9987",
		PolicyExpiration:  "2026-12-31",
		CurrentCarNumber:  "42",
		CurrentLicense:    "REN-042",
		CurrentYear:       "2022",
		CurrentMake:       "Toyota",
		CurrentModel:      "Corolla",
		CurrentColor:      "White",
		SalesTax:          "8.00",
		StateSalesTax:     "7.00",
		FuelCharges:       "5.99",
		Status:            model.AgreementStatusActive,
		CreatedAt:         time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC),
	}
}

// renderText renders without stream compression so the content streams can
// be inspected as plain text.
func renderText(t *testing.T, a *model.Agreement) string {
	t.Helper()
	data, err := render(a, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	return string(data)
}

func TestGenerateTwoPages(t *testing.T) {
	text := renderText(t, sampleAgreement())
	if !strings.Contains(text, "/Count 2") {
		t.Error("expected a two-page document")
	}
	for _, want := range []string{
		"TRI-STATE AUTO RENTAL",
		"RENTAL AGREEMENT",
		"Agreement Number: AGR-007",
		"Date: 03/05/2026",
		"RENTER INFORMATION",
		"LICENSE INFORMATION",
		"INSURANCE INFORMATION",
		"RENTAL VEHICLE",
		"CHARGES & DEPOSITS",
		"RENTAL TERMS AND CONDITIONS",
		"Renter Signature",
		"Agent Signature",
		"For office use only:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestGenerateDateAndCurrencyFormats(t *testing.T) {
	a := sampleAgreement()
	a.Deposits = "250.00"
	text := renderText(t, a)

	for _, want := range []string{
		"02/14/1985", // date of birth as MM/DD/YYYY
		"06/30/2027",
		"12/31/2026",
		"$250.00",
		"8.00%",
		"7.00%",
		"$5.99",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestGenerateOmitsOriginalVehicleSection(t *testing.T) {
	text := renderText(t, sampleAgreement())
	if strings.Contains(text, "ORIGINAL VEHICLE") {
		t.Error("original vehicle section present without original_make")
	}
}

func TestGenerateOriginalVehicleSubset(t *testing.T) {
	a := sampleAgreement()
	a.OriginalMake = "Honda"
	a.OriginalModel = "Accord"
	a.OriginalYear = "2018"
	// no car number, plate, or color recorded
	text := renderText(t, a)

	if !strings.Contains(text, "ORIGINAL VEHICLE") {
		t.Fatal("original vehicle section missing")
	}
	if !strings.Contains(text, "2018 Honda Accord") {
		t.Error("original vehicle line missing")
	}
	// Only the rental vehicle block should carry a car number row; the
	// original block has none recorded.
	if n := strings.Count(text, "Car Number:"); n != 1 {
		t.Errorf("Car Number rows = %d, want 1", n)
	}
}

func TestGenerateOptionalFieldsOmitted(t *testing.T) {
	text := renderText(t, sampleAgreement())
	for _, label := range []string{
		"Email:", "Insurance Agent:", "Adjuster:", "Claim Number:",
		"Date of Loss:", "Mileage Out:", "Fuel Gauge Out:", "Date Due Back:", "Deposits:",
	} {
		if strings.Contains(text, label) {
			t.Errorf("label %q rendered for absent field", label)
		}
	}
}

func TestGenerateFailsOnBadDates(t *testing.T) {
	cases := map[string]func(*model.Agreement){
		"missing date_of_birth": func(a *model.Agreement) { a.DateOfBirth = "" },
		"garbage license date":  func(a *model.Agreement) { a.LicenseExpiration = "next tuesday" },
		"garbage policy date":   func(a *model.Agreement) { a.PolicyExpiration = "31-12-2026" },
		"garbage optional date": func(a *model.Agreement) { a.DateOfLoss = "???" },
		"garbage due back date": func(a *model.Agreement) { a.DateDueBack = "soon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			a := sampleAgreement()
			mutate(a)
			if _, err := Generate(a); err == nil {
				t.Error("expected generation to fail")
			}
		})
	}
}
