package documents

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// DejaVu Sans covers Latin and Arabic, so names print as entered.
var (
	//go:embed fonts/DejaVuSans.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	fontBold []byte
)

const fontFamily = "dejavu"

const (
	pageMargin = 18.0
	lineHeight = 6.5
	labelWidth = 55.0
)

// pdfDoc wraps fpdf with the office's letterhead and layout helpers.
type pdfDoc struct {
	pdf *fpdf.Fpdf
}

func (g *Generator) newPDF(title string) *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(g.now().UTC())
	pdf.SetTitle(title, true)
	pdf.SetAuthor(g.agency.Name, true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fontBold)

	d := &pdfDoc{pdf: pdf}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s - page %d", g.agency.Name, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 9, g.agency.Name, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	for _, line := range []string{g.agency.Address, g.agency.Phone, licenseLine(g.agency.License)} {
		if line != "" {
			pdf.CellFormat(0, 4.5, line, "", 1, "L", false, 0, "")
		}
	}
	y := pdf.GetY() + 2
	pdf.Line(pageMargin, y, 210-pageMargin, y)
	pdf.SetY(y + 4)

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	return d
}

func licenseLine(license string) string {
	if license == "" {
		return ""
	}
	return "License: " + license
}

func (d *pdfDoc) section(title string) {
	d.pdf.Ln(3)
	d.pdf.SetFont(fontFamily, "B", 11)
	d.pdf.SetFillColor(235, 238, 242)
	d.pdf.CellFormat(0, 7, title, "", 1, "L", true, 0, "")
	d.pdf.Ln(1)
}

func (d *pdfDoc) field(label, value string) {
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "L", false, 0, "")
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.MultiCell(0, lineHeight, orDash(value), "", "L", false)
}

func (d *pdfDoc) text(value string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.MultiCell(0, lineHeight, value, "", "L", false)
}

func (d *pdfDoc) table(headers []string, widths []float64, rows [][]string) {
	d.pdf.SetFont(fontFamily, "B", 9)
	for i, h := range headers {
		d.pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetFont(fontFamily, "", 9)
	for _, row := range rows {
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

func (d *pdfDoc) signatures(left, right string) {
	d.pdf.Ln(14)
	d.pdf.SetFont(fontFamily, "", 10)
	half := (210 - 2*pageMargin) / 2
	d.pdf.CellFormat(half, lineHeight, left+": ____________________", "", 0, "L", false, 0, "")
	d.pdf.CellFormat(half, lineHeight, right+": ____________________", "", 1, "L", false, 0, "")
}

func (d *pdfDoc) output(w io.Writer) error {
	if err := d.pdf.Error(); err != nil {
		return err
	}
	return d.pdf.Output(w)
}

// ContractPDF renders the contract as a PDF.
func (g *Generator) ContractPDF(w io.Writer, data ContractData) error {
	c := data.Contract
	d := g.newPDF("Domestic Labor Contract " + c.Number)
	d.field("Issued on", formatDate(g.now()))
	d.field("Status", string(c.Status))

	d.section("First party (client)")
	d.field("Name", data.Client.FullName)
	d.field("National ID", data.Client.NationalID)
	d.field("Phone", data.Client.Phone)
	d.field("City", data.Client.City)
	d.field("Address", data.Client.Address)

	d.section("Second party (worker)")
	d.field("Name", data.Worker.FullName)
	d.field("Nationality", data.Worker.Nationality)
	d.field("Passport number", data.Worker.PassportNumber)
	d.field("Residency number", data.Worker.ResidencyNumber)
	d.field("Profession", data.Worker.Profession)

	d.section("Terms")
	d.field("Start date", formatDate(c.StartDate))
	d.field("End date", formatDate(c.EndDate))
	d.field("Duration", fmt.Sprintf("%d days", c.TotalDays()))
	d.field("Agency fee", c.Fee.String())
	d.field("Monthly salary", c.MonthlySalary.String())
	if data.Marketer != nil {
		d.field("Referred by", data.Marketer.Name)
	}
	if c.Notes != "" {
		d.section("Notes")
		d.text(c.Notes)
	}

	d.section("Early termination")
	d.text(fmt.Sprintf("If the client ends the contract after the first %d days, %d%% of the unused fee is retained by the agency. "+
		"Within that period, or when the worker is at fault, the unused fee is refunded in full.",
		data.Policy.ProbationDays, data.Policy.ClientPenaltyPercent))
	d.signatures("Client", "Agency")
	return d.output(w)
}

// SettlementPDF renders the early-termination settlement letter.
func (g *Generator) SettlementPDF(w io.Writer, data SettlementData) error {
	c, s := data.Contract, data.Settlement
	title := "Termination Settlement " + c.Number
	if data.Preview {
		title = "Settlement Estimate " + c.Number
	}
	d := g.newPDF(title)
	d.field("Client", data.Client.FullName)
	d.field("Worker", data.Worker.FullName)
	d.field("Contract period", formatDate(c.StartDate)+" to "+formatDate(c.EndDate))
	d.field("Termination date", formatDate(data.Date))
	d.field("Reason", ReasonLabel(data.Reason))

	d.section("Settlement")
	rows := [][]string{
		{"Contract days", fmt.Sprint(s.TotalDays)},
		{"Days served", fmt.Sprint(s.UsedDays)},
		{"Days remaining", fmt.Sprint(s.RemainingDays)},
		{"Agency fee", c.Fee.String()},
		{"Fee consumed", s.Consumed.String()},
		{"Fee remaining", s.Remaining.String()},
		{"Penalty retained", s.Penalty.String()},
		{"Refund due to client", s.Refund.String()},
	}
	d.pdf.SetFillColor(235, 238, 242)
	d.table([]string{"Item", "Value"}, []float64{110, 64}, rows)
	if s.WithinProbation {
		d.pdf.Ln(3)
		d.text("The termination falls within the probation period, so no penalty applies.")
	}
	if data.Preview {
		d.pdf.Ln(3)
		d.text("This is an estimate. The contract has not been terminated.")
	}
	d.signatures("Client", "Agency")
	return d.output(w)
}

// WorkerProfilePDF renders a worker's details and contract history.
func (g *Generator) WorkerProfilePDF(w io.Writer, data WorkerProfileData) error {
	wk := data.Worker
	d := g.newPDF("Worker Profile: " + wk.FullName)
	d.field("Status", string(wk.Status))
	d.field("Nationality", wk.Nationality)
	d.field("Passport number", wk.PassportNumber)
	d.field("Residency number", wk.ResidencyNumber)
	d.field("Residency expiry", formatDatePtr(wk.ResidencyExpiry))
	d.field("Birth date", formatDatePtr(wk.BirthDate))
	d.field("Profession", wk.Profession)
	d.field("Religion", wk.Religion)
	d.field("Phone", wk.Phone)
	d.field("Monthly salary", wk.MonthlySalary.String())
	if wk.Notes != "" {
		d.section("Notes")
		d.text(wk.Notes)
	}

	d.section("Contracts")
	if len(data.Contracts) == 0 {
		d.text("No contracts on record.")
		return d.output(w)
	}
	rows := make([][]string, 0, len(data.Contracts))
	for _, c := range data.Contracts {
		rows = append(rows, []string{c.Number, formatDate(c.StartDate), formatDate(c.EndDate), string(c.Status), c.Fee.String()})
	}
	d.pdf.SetFillColor(235, 238, 242)
	d.table([]string{"Number", "Start", "End", "Status", "Fee"}, []float64{62, 27, 27, 30, 28}, rows)
	return d.output(w)
}
