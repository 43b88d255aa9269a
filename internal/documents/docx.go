package documents

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"

	"github.com/lukasjarosch/go-docx"
)

// contract.docx carries {placeholder} fields that are filled per contract.
//
//go:embed templates/contract.docx
var contractTemplate []byte

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func (g *Generator) contractPlaceholders(data ContractData) docx.PlaceholderMap {
	c := data.Contract
	marketer := ""
	if data.Marketer != nil {
		marketer = data.Marketer.Name
	}
	return docx.PlaceholderMap{
		"agency_name":         g.agency.Name,
		"agency_address":      g.agency.Address,
		"agency_phone_line":   prefixed("Tel: ", g.agency.Phone),
		"agency_license_line": prefixed("License: ", g.agency.License),
		"contract_number":     c.Number,
		"issued_on":           formatDate(g.now().UTC()),
		"client_name":         orDash(data.Client.FullName),
		"client_national_id":  orDash(data.Client.NationalID),
		"client_phone":        orDash(data.Client.Phone),
		"client_city":         orDash(data.Client.City),
		"client_address":      orDash(data.Client.Address),
		"worker_name":         orDash(data.Worker.FullName),
		"worker_nationality":  orDash(data.Worker.Nationality),
		"worker_passport":     orDash(data.Worker.PassportNumber),
		"worker_residency":    orDash(data.Worker.ResidencyNumber),
		"worker_profession":   orDash(data.Worker.Profession),
		"start_date":          formatDate(c.StartDate),
		"end_date":            formatDate(c.EndDate),
		"duration":            fmt.Sprintf("%d days", c.TotalDays()),
		"fee":                 c.Fee.String(),
		"monthly_salary":      c.MonthlySalary.String(),
		"marketer_name":       orDash(marketer),
		"status":              string(c.Status),
		"notes":               orDash(c.Notes),
		"probation_days":      strconv.Itoa(data.Policy.ProbationDays),
		"penalty_percent":     strconv.Itoa(data.Policy.ClientPenaltyPercent),
	}
}

// ContractDOCX renders the contract as a Word document.
func (g *Generator) ContractDOCX(w io.Writer, data ContractData) error {
	doc, err := docx.OpenBytes(contractTemplate)
	if err != nil {
		return fmt.Errorf("open contract template: %w", err)
	}
	if err := doc.ReplaceAll(g.contractPlaceholders(data)); err != nil {
		return fmt.Errorf("fill contract template: %w", err)
	}
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write contract document: %w", err)
	}
	return nil
}
