// Package spreadsheet reads and writes the xlsx files used for worker
// imports, worker exports and payroll sheets.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// MaxRows bounds imports so a stray sheet cannot exhaust memory.
const MaxRows = 10000

// Sheet is a tabular export: a header row followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Write renders sheets into a workbook and writes it to w.
func Write(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, sheet := range sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := file.SetSheetName(file.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := file.NewSheet(name); err != nil {
			return err
		}

		header := make([]any, len(sheet.Headers))
		for j, h := range sheet.Headers {
			header[j] = h
		}
		if err := file.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		if len(sheet.Headers) > 0 {
			last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
			if err != nil {
				return err
			}
			if err := file.SetCellStyle(name, "A1", last, bold); err != nil {
				return err
			}
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := row
			if err := file.SetSheetRow(name, cell, &values); err != nil {
				return err
			}
		}
	}
	_, err = file.WriteTo(w)
	return err
}

// ReadRows returns the rows of the first worksheet of an xlsx document.
func ReadRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not an xlsx workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	if len(rows) > MaxRows+1 {
		return nil, fmt.Errorf("worksheet has more than %d rows", MaxRows)
	}
	return rows, nil
}

// HeaderIndex maps normalized header names to their column index.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, seen := idx[key]; !seen && key != "" {
			idx[key] = i
		}
	}
	return idx
}

// NormalizeHeader lowercases a header and folds spaces and dashes into underscores.
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// Cell returns the trimmed cell at idx, or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006"}

// ParseDate reads a calendar date written as text or as an Excel date serial.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial > 0 && serial < 2958466 {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}
