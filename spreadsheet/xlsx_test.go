package spreadsheet_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-crm/crm"
	"github.com/warp/renewal-crm/crm/store"
	"github.com/warp/renewal-crm/logging"
	"github.com/warp/renewal-crm/spreadsheet"
	"github.com/xuri/excelize/v2"
)

// workbook builds an .xlsx with the given rows on its first sheet.
func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadSheet_HeaderAndRows(t *testing.T) {
	// GIVEN: a workbook with a header and two data rows
	buf := workbook(t, [][]any{
		{"Name", "Phone", "Policy_No", "Insurer", "Policy_Type", "Issued_Date", "Expiry_Date"},
		{"Asha", "+911", "P1", "Acme", "Health", "2024-03-05", "2025-03-05"},
		{"Ravi", "+912", "P2", "Acme", "Motor", "2024-03-06", "2025-03-06"},
	})

	// WHEN: reading it
	sheet, err := spreadsheet.ReadSheet(buf)

	// THEN: the first row is the header
	require.NoError(t, err)
	assert.Equal(t, "Name", sheet.Header[0])
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Ravi", sheet.Rows[1][0])

	// AND: the header maps cleanly
	_, err = crm.MapColumns(sheet.Header)
	assert.NoError(t, err)
}

func TestReadSheet_EmptyWorkbook(t *testing.T) {
	sheet, err := spreadsheet.ReadSheet(workbook(t, nil))

	require.NoError(t, err)
	assert.Empty(t, sheet.Header)
	assert.Empty(t, sheet.Rows)
}

func TestReadSheet_NotAWorkbook(t *testing.T) {
	_, err := spreadsheet.ReadSheet(bytes.NewBufferString("name,phone\nAsha,+911\n"))

	assert.Error(t, err)
}

// =============================================================================
// NATIVE CELLS - values typed into Excel rather than text
// =============================================================================

// Built-in number formats as Excel assigns them.
const (
	fmtShortDate    = 14 // m/d/yy, shown by excelize as mm-dd-yy
	fmtDateTime     = 22 // m/d/yy h:mm
	fmtThousands    = 4  // #,##0.00
	fmtCurrencyNeg  = 7  // $#,##0.00_);($#,##0.00)
	fmtPlainGeneral = 0
)

var importColumns = []string{
	"name", "phone", "policy_no", "insurer", "policy_type", "issued_date", "expiry_date", "premium",
}

// nativeCell overrides one cell of the second row.
type nativeCell struct {
	column string
	value  any
	numFmt int
}

// nativeWorkbook writes a header and one data row of text cells, then
// replaces the given cells with native values and number formats.
func nativeWorkbook(t *testing.T, cells ...nativeCell) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(importColumns))
	for i, c := range importColumns {
		header[i] = c
	}
	row := []any{"Asha", "+911", "P1", "Acme", "Health", "2024-03-05", "2025-03-05", "1000"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	for _, c := range cells {
		col := -1
		for i, name := range importColumns {
			if name == c.column {
				col = i + 1
			}
		}
		require.NotEqual(t, -1, col, c.column)
		axis, err := excelize.CoordinatesToCellName(col, 2)
		require.NoError(t, err)

		require.NoError(t, f.SetCellValue(sheet, axis, c.value))
		if c.numFmt != fmtPlainGeneral {
			style, err := f.NewStyle(&excelize.Style{NumFmt: c.numFmt})
			require.NoError(t, err)
			require.NoError(t, f.SetCellStyle(sheet, axis, axis, style))
		}
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadSheet_NativeCellsNormalize(t *testing.T) {
	march5 := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		cell  nativeCell
		field func(crm.ImportRow) string
		want  string
	}{
		{
			name:  "expiry as time",
			cell:  nativeCell{"expiry_date", march5, fmtPlainGeneral},
			field: func(r crm.ImportRow) string { return r.ExpiryDate },
			want:  "2025-03-05",
		},
		{
			name:  "expiry as time with short date format",
			cell:  nativeCell{"expiry_date", march5, fmtShortDate},
			field: func(r crm.ImportRow) string { return r.ExpiryDate },
			want:  "2025-03-05",
		},
		{
			name:  "expiry as serial with short date format",
			cell:  nativeCell{"expiry_date", 45721.0, fmtShortDate},
			field: func(r crm.ImportRow) string { return r.ExpiryDate },
			want:  "2025-03-05",
		},
		{
			name:  "issued as date time",
			cell:  nativeCell{"issued_date", time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC), fmtDateTime},
			field: func(r crm.ImportRow) string { return r.IssuedDate },
			want:  "2024-03-05",
		},
		{
			name:  "premium with thousands format",
			cell:  nativeCell{"premium", 12500.5, fmtThousands},
			field: func(r crm.ImportRow) string { return r.Premium.String() },
			want:  "12500.5",
		},
		{
			name:  "premium with currency format",
			cell:  nativeCell{"premium", 2500, fmtCurrencyNeg},
			field: func(r crm.ImportRow) string { return r.Premium.String() },
			want:  "2500",
		},
		{
			name:  "phone as integer",
			cell:  nativeCell{"phone", int64(919876543210), fmtPlainGeneral},
			field: func(r crm.ImportRow) string { return r.Phone },
			want:  "919876543210",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: a workbook where one cell holds a native value
			sheet, err := spreadsheet.ReadSheet(nativeWorkbook(t, tt.cell))
			require.NoError(t, err)
			cols, err := crm.MapColumns(sheet.Header)
			require.NoError(t, err)
			require.Len(t, sheet.Rows, 1)

			// WHEN: normalizing the data row
			row := crm.NormalizeRow(cols, sheet.Rows[0], 2)

			// THEN: the value is read as typed, without warnings
			assert.Equal(t, tt.want, tt.field(row))
			assert.Empty(t, row.Warnings)
		})
	}
}

func TestImport_DateCellsAreSelectedForRenewal(t *testing.T) {
	// GIVEN: a workbook whose dates were typed into Excel
	buf := nativeWorkbook(t,
		nativeCell{"issued_date", 45356.0, fmtShortDate},
		nativeCell{"expiry_date", time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), fmtShortDate},
	)
	sheet, err := spreadsheet.ReadSheet(buf)
	require.NoError(t, err)

	// WHEN: importing it
	ctx := context.Background()
	s := store.NewMemory()
	result, err := crm.NewReconciler(s, logging.Discard()).Import(ctx, sheet)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	// THEN: the stored dates are ISO and the policy is due
	policies, err := s.ListPolicies(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "2024-03-05", policies[0].IssuedDate)
	assert.Equal(t, "2025-03-05", policies[0].ExpiryDate)

	due := crm.SelectDue(policies, 30, crm.NewDate(2025, time.March, 1))
	require.Len(t, due, 1)
	assert.Equal(t, "P1", due[0].PolicyNo)
}

func TestWriteRenewals_RoundTrip(t *testing.T) {
	due := []crm.PolicyView{{
		Policy: crm.Policy{
			ID: 7, ClientID: 3, PolicyNo: "P1", Insurer: "Acme", PolicyType: "Health",
			IssuedDate: "2024-03-05", ExpiryDate: "2025-03-05",
			Premium: decimal.RequireFromString("1500.5"), Status: crm.StatusActive,
		},
		ClientName:  "Asha",
		ClientPhone: "+911",
	}}

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteRenewals(&buf, due))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Renewals", f.GetSheetName(0))
	rows, err := f.GetRows("Renewals")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, spreadsheet.ExportColumns, rows[0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "P1", rows[1][2])
	assert.Equal(t, "2025-03-05", rows[1][6])
	assert.Equal(t, "1500.5", rows[1][7])
	assert.Equal(t, "Asha", rows[1][10])
	assert.Equal(t, "+911", rows[1][11])
}

func TestWriteRenewals_EmptySetStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteRenewals(&buf, nil))

	sheet, err := spreadsheet.ReadSheet(&buf)
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.ExportColumns, sheet.Header)
	assert.Empty(t, sheet.Rows)
}

func TestRenewalsFilename(t *testing.T) {
	assert.Equal(t, "renewals_30d.xlsx", spreadsheet.RenewalsFilename(30))
	assert.Equal(t, "renewals_0d.xlsx", spreadsheet.RenewalsFilename(0))
}
