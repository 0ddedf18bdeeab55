// Package contract renders rental agreement PDFs. The layout is fixed: a
// letterhead page with the renter, license, insurance, vehicle, and charges
// blocks, followed by a terms-and-signatures page.
package contract

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/tristate/fleetdesk/internal/model"
)

const (
	businessName    = "TRI-STATE AUTO RENTAL"
	businessAddress = "718 COTTAGE STREET, PAWTUCKET, RI 02861"
	businessPhone   = "Phone: 508-761-9700"

	lineHeight = 14
)

var rentalTerms = []string{
	"1. The renter agrees to return the vehicle in the same condition as received, normal wear and tear excepted.",
	"2. The renter is responsible for all traffic violations, tolls, and parking tickets incurred during the rental period.",
	"3. The vehicle must be returned with the same fuel level as when rented, or fuel charges will apply.",
	"4. Any damage to the vehicle during the rental period is the responsibility of the renter.",
	"5. The renter must have valid insurance coverage for the duration of the rental period.",
	"6. Late returns may incur additional daily charges.",
	"7. Smoking in the vehicle is strictly prohibited and will result in cleaning fees.",
	"8. The vehicle may not be used for illegal purposes or driven outside the authorized area.",
	"9. Only authorized drivers listed on this agreement may operate the vehicle.",
	"10. The renter agrees to notify TRI-STATE AUTO RENTAL immediately in case of accident or mechanical failure.",
}

// Generate renders the two-page agreement document and returns the PDF bytes.
// It fails if any date field present on the agreement cannot be parsed; a
// contract with a garbage date must never be printed.
func Generate(a *model.Agreement) ([]byte, error) {
	return render(a, true)
}

func render(a *model.Agreement, compress bool) ([]byte, error) {
	dates, err := parseDates(a)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(50, 50, 50)
	pdf.SetAutoPageBreak(true, 50)
	pdf.AddPage()

	// Letterhead
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 20, businessName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 13, businessAddress, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 13, businessPhone, "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 18, "RENTAL AGREEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, "Agreement Number: "+a.AgreementNumber, "", 1, "R", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Date: "+dates.created.Format("01/02/2006"), "", 1, "R", false, 0, "")
	pdf.Ln(12)

	sectionHeader(pdf, "RENTER INFORMATION")
	addField(pdf, "Name:", a.RenterName)
	addField(pdf, "Address:", a.RenterAddress)
	addField(pdf, "City, State, ZIP:", fmt.Sprintf("%s, %s %s", a.RenterCity, a.RenterState, a.RenterZipCode))
	addField(pdf, "Phone:", a.RenterPhone)
	if a.RenterEmail != "" {
		addField(pdf, "Email:", a.RenterEmail)
	}
	addField(pdf, "Date of Birth:", dates.dateOfBirth)
	pdf.Ln(6)

	sectionHeader(pdf, "LICENSE INFORMATION")
	addField(pdf, "License Number:", a.DriversLicense)
	addField(pdf, "License State:", a.LicenseState)
	addField(pdf, "License Expiration:", dates.licenseExpiration)
	pdf.Ln(6)

	sectionHeader(pdf, "INSURANCE INFORMATION")
	addField(pdf, "Insurance Company:", a.InsuranceCompany)
	addField(pdf, "Policy Number:", a.PolicyNumber)
	addField(pdf, "Policy Expiration:", dates.policyExpiration)
	if a.InsuranceAgent != "" {
		addField(pdf, "Insurance Agent:", a.InsuranceAgent)
	}
	if a.AgentPhone != "" {
		addField(pdf, "Agent Phone:", a.AgentPhone)
	}
	if a.Adjuster != "" {
		addField(pdf, "Adjuster:", a.Adjuster)
	}
	if a.AdjusterPhone != "" {
		addField(pdf, "Adjuster Phone:", a.AdjusterPhone)
	}
	if a.ClaimNumber != "" {
		addField(pdf, "Claim Number:", a.ClaimNumber)
	}
	if a.DateOfLoss != "" {
		addField(pdf, "Date of Loss:", dates.dateOfLoss)
	}
	pdf.Ln(6)

	// The original-vehicle block only exists for insurance replacement
	// rentals; no make recorded means no section at all.
	if a.OriginalMake != "" {
		sectionHeader(pdf, "ORIGINAL VEHICLE (Damaged/In Shop)")
		if a.OriginalCarNumber != "" {
			addField(pdf, "Car Number:", a.OriginalCarNumber)
		}
		if a.OriginalLicense != "" {
			addField(pdf, "License Plate:", a.OriginalLicense)
		}
		addField(pdf, "Vehicle:", fmt.Sprintf("%s %s %s", a.OriginalYear, a.OriginalMake, a.OriginalModel))
		if a.OriginalColor != "" {
			addField(pdf, "Color:", a.OriginalColor)
		}
		pdf.Ln(6)
	}

	sectionHeader(pdf, "RENTAL VEHICLE")
	addField(pdf, "Car Number:", a.CurrentCarNumber)
	addField(pdf, "License Plate:", a.CurrentLicense)
	addField(pdf, "Vehicle:", fmt.Sprintf("%s %s %s", a.CurrentYear, a.CurrentMake, a.CurrentModel))
	addField(pdf, "Color:", a.CurrentColor)
	if a.MileageOut != "" {
		addField(pdf, "Mileage Out:", a.MileageOut)
	}
	if a.FuelGaugeOut != "" {
		addField(pdf, "Fuel Gauge Out:", a.FuelGaugeOut)
	}
	if a.DateDueBack != "" {
		addField(pdf, "Date Due Back:", dates.dateDueBack)
	}
	pdf.Ln(6)

	sectionHeader(pdf, "CHARGES & DEPOSITS")
	if a.Deposits != "" {
		addField(pdf, "Deposits:", "$"+a.Deposits)
	}
	if a.SalesTax != "" {
		addField(pdf, "Sales Tax Rate:", a.SalesTax+"%")
	}
	if a.StateSalesTax != "" {
		addField(pdf, "State Sales Tax Rate:", a.StateSalesTax+"%")
	}
	if a.FuelCharges != "" {
		addField(pdf, "Fuel Charges per Gallon:", "$"+a.FuelCharges)
	}

	// Terms and signatures
	pdf.AddPage()
	sectionHeader(pdf, "RENTAL TERMS AND CONDITIONS")
	pdf.SetFont("Helvetica", "", 9)
	for _, term := range rentalTerms {
		pdf.MultiCell(0, 12, term, "", "L", false)
		pdf.Ln(4)
	}
	pdf.Ln(20)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, "I have read and agree to the terms and conditions stated above.", "", "L", false)
	pdf.Ln(24)

	signatureBlock(pdf, "Renter Signature")
	pdf.Ln(48)
	signatureBlock(pdf, "Agent Signature")
	pdf.Ln(36)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 11, "For office use only:", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 11, "Agreement created: "+dates.created.Format("01/02/2006 03:04 PM"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render agreement %s: %w", a.AgreementNumber, err)
	}
	return buf.Bytes(), nil
}

func sectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func addField(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(pdf.GetStringWidth(label)+2, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, value, "", 1, "L", false, 0, "")
}

func signatureBlock(pdf *fpdf.Fpdf, role string) {
	y := pdf.GetY()
	pdf.Text(100, y, "_____________________________________________")
	pdf.Text(360, y, "______________________")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(100, y+16, role)
	pdf.Text(360, y+16, "Date")
	pdf.SetY(y + 24)
}

// parsedDates carries every date on the agreement already formatted for
// print. Required dates must parse; optional ones only when present.
type parsedDates struct {
	created           time.Time
	dateOfBirth       string
	licenseExpiration string
	policyExpiration  string
	dateOfLoss        string
	dateDueBack       string
}

func parseDates(a *model.Agreement) (*parsedDates, error) {
	d := &parsedDates{created: a.CreatedAt}
	if d.created.IsZero() {
		d.created = time.Now()
	}

	var err error
	if d.dateOfBirth, err = formatDate(a.DateOfBirth); err != nil {
		return nil, fmt.Errorf("date_of_birth: %w", err)
	}
	if d.licenseExpiration, err = formatDate(a.LicenseExpiration); err != nil {
		return nil, fmt.Errorf("license_expiration: %w", err)
	}
	if d.policyExpiration, err = formatDate(a.PolicyExpiration); err != nil {
		return nil, fmt.Errorf("policy_expiration: %w", err)
	}
	if a.DateOfLoss != "" {
		if d.dateOfLoss, err = formatDate(a.DateOfLoss); err != nil {
			return nil, fmt.Errorf("date_of_loss: %w", err)
		}
	}
	if a.DateDueBack != "" {
		if d.dateDueBack, err = formatDate(a.DateDueBack); err != nil {
			return nil, fmt.Errorf("date_due_back: %w", err)
		}
	}
	return d, nil
}

// formatDate converts an ISO date (or RFC 3339 timestamp) to MM/DD/YYYY.
func formatDate(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("missing date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("01/02/2006"), nil
		}
	}
	return "", fmt.Errorf("unparsable date %q", value)
}
