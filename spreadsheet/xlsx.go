// Package spreadsheet reads client/policy uploads and writes renewal
// exports as .xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"

	"github.com/warp/renewal-crm/crm"
	"github.com/xuri/excelize/v2"
)

// ExportColumns is the header row of a renewals export.
var ExportColumns = []string{
	"id", "client_id", "policy_no", "insurer", "policy_type", "issued_date",
	"expiry_date", "premium", "status", "notes", "client_name", "client_phone",
}

const exportSheet = "Renewals"

// RenewalsFilename is the download name for a renewals export.
func RenewalsFilename(windowDays int) string {
	return fmt.Sprintf("renewals_%dd.xlsx", windowDays)
}

// ReadSheet reads the first worksheet of an .xlsx workbook. The first row
// is the header; an empty workbook yields an empty header.
//
// Cells are read raw, without their number format: date cells come back as
// serial day numbers and numeric cells without thousands separators or
// currency symbols. crm.NormalizeRow understands both.
func ReadSheet(r io.Reader) (crm.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return crm.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return crm.Sheet{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return crm.Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return crm.Sheet{}, nil
	}
	return crm.Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

// WriteRenewals writes the due policies as a single-sheet workbook.
func WriteRenewals(w io.Writer, due []crm.PolicyView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range due {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		premium, _ := p.Premium.Float64()
		row := []any{
			int64(p.ID), int64(p.ClientID), p.PolicyNo, p.Insurer, p.PolicyType,
			p.IssuedDate, p.ExpiryDate, premium, p.Status, p.Notes,
			p.ClientName, p.ClientPhone,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
