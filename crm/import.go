/*
import.go - Spreadsheet reconciliation

PURPOSE:
  Turns the rows of an uploaded sheet into clients and policies. Each row
  upserts its client by phone and appends one policy.

FLOW:
  1. MapColumns: header check, case-insensitive. Missing required columns
     abort before anything is written.
  2. NormalizeRow: every row becomes a fully populated ImportRow. Optional
     columns default to "" and premium to 0. This step does not touch the
     store.
  3. Import: upsert client, insert policy, row by row in sheet order.

DATES:
  Dates that parse are stored in ISO form. Dates that do not parse are
  stored as written and reported as warnings, since such a policy can never
  be selected for renewal.

SEE ALSO:
  - spreadsheet/xlsx.go: Produces Sheet from an .xlsx file
*/
package crm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names understood by the importer.
const (
	ColName       = "name"
	ColPhone      = "phone"
	ColEmail      = "email"
	ColPolicyNo   = "policy_no"
	ColInsurer    = "insurer"
	ColPolicyType = "policy_type"
	ColIssuedDate = "issued_date"
	ColExpiryDate = "expiry_date"
	ColPremium    = "premium"
	ColNotes      = "notes"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColName, ColPhone, ColPolicyNo, ColInsurer, ColPolicyType, ColIssuedDate, ColExpiryDate,
}

// OptionalColumns are read when present.
var OptionalColumns = []string{ColEmail, ColPremium, ColNotes}

// Sheet is tabular input: a header row and data rows. Rows may be shorter
// than the header.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Columns maps a lower-cased column name to its index in the header.
type Columns map[string]int

// MapColumns validates the header and indexes it.
func MapColumns(header []string) (Columns, error) {
	cols := make(Columns, len(header))
	found := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		found = append(found, h)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &ImportFormatError{Missing: missing, Found: found}
	}
	return cols, nil
}

func (c Columns) cell(cells []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// ImportRow is a normalized sheet row, ready to be written.
type ImportRow struct {
	Line       int // 1-based sheet line, header is line 1
	Name       string
	Phone      string
	Email      string
	PolicyNo   string
	Insurer    string
	PolicyType string
	IssuedDate string
	ExpiryDate string
	Premium    decimal.Decimal
	Notes      string
	Warnings   []string
}

// Blank reports a row with no content at all.
func (r ImportRow) Blank() bool {
	return r.Name == "" && r.Phone == "" && r.PolicyNo == "" && r.Insurer == "" &&
		r.PolicyType == "" && r.IssuedDate == "" && r.ExpiryDate == "" &&
		r.Email == "" && r.Notes == "" && r.Premium.IsZero()
}

// Client returns the client half of the row.
func (r ImportRow) Client() Client {
	return Client{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

// Policy returns the policy half of the row for the given client.
func (r ImportRow) Policy(clientID ClientID) Policy {
	return Policy{
		ClientID:   clientID,
		PolicyNo:   r.PolicyNo,
		Insurer:    r.Insurer,
		PolicyType: r.PolicyType,
		IssuedDate: r.IssuedDate,
		ExpiryDate: r.ExpiryDate,
		Premium:    r.Premium,
		Status:     StatusActive,
		Notes:      r.Notes,
	}
}

// NormalizeRow fills every field of an ImportRow from raw cells.
func NormalizeRow(cols Columns, cells []string, line int) ImportRow {
	row := ImportRow{
		Line:       line,
		Name:       cols.cell(cells, ColName),
		Phone:      cols.cell(cells, ColPhone),
		Email:      cols.cell(cells, ColEmail),
		PolicyNo:   cols.cell(cells, ColPolicyNo),
		Insurer:    cols.cell(cells, ColInsurer),
		PolicyType: cols.cell(cells, ColPolicyType),
		Notes:      cols.cell(cells, ColNotes),
		Premium:    decimal.Zero,
	}

	if raw := cols.cell(cells, ColPremium); raw != "" {
		v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			row.Warnings = append(row.Warnings, fmt.Sprintf("line %d: premium %q is not a number, stored as 0", line, raw))
		} else {
			row.Premium = NormalizePremium(v)
		}
	}

	row.IssuedDate = normalizeDate(&row, ColIssuedDate, cols.cell(cells, ColIssuedDate))
	row.ExpiryDate = normalizeDate(&row, ColExpiryDate, cols.cell(cells, ColExpiryDate))
	return row
}

func normalizeDate(row *ImportRow, column, raw string) string {
	if raw == "" {
		if column == ColExpiryDate {
			row.Warnings = append(row.Warnings, fmt.Sprintf("line %d: %s is empty", row.Line, column))
		}
		return ""
	}
	d, err := ParseFlexibleDate(raw)
	if err != nil {
		row.Warnings = append(row.Warnings, fmt.Sprintf("line %d: %s %q is not a date, stored as written", row.Line, column, raw))
		return raw
	}
	return d.String()
}

// ImportResult summarizes a committed import.
type ImportResult struct {
	Rows           int
	ClientsCreated int
	ClientsUpdated int
	Warnings       []string
}

// Preview is what the user sees before committing an import.
type Preview struct {
	Columns []string
	Rows    []ImportRow
	Total   int
}

// Reconciler writes sheets into a Store.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// Preview validates the header and normalizes up to limit rows without
// writing anything.
func (r *Reconciler) Preview(sheet Sheet, limit int) (Preview, error) {
	cols, err := MapColumns(sheet.Header)
	if err != nil {
		return Preview{}, err
	}

	p := Preview{Columns: sheet.Header}
	for i, cells := range sheet.Rows {
		row := NormalizeRow(cols, cells, i+2)
		if row.Blank() {
			continue
		}
		p.Total++
		if len(p.Rows) < limit {
			p.Rows = append(p.Rows, row)
		}
	}
	return p, nil
}

// Import upserts a client and inserts a policy for every non-blank row.
// A store error stops the import; rows before it stay written.
func (r *Reconciler) Import(ctx context.Context, sheet Sheet) (ImportResult, error) {
	var result ImportResult

	cols, err := MapColumns(sheet.Header)
	if err != nil {
		r.logger.Warn("Import rejected", "error", err)
		return result, err
	}

	for i, cells := range sheet.Rows {
		row := NormalizeRow(cols, cells, i+2)
		if row.Blank() {
			continue
		}

		client := row.Client()
		created, err := r.store.UpsertClientByPhone(ctx, &client)
		if err != nil {
			return result, fmt.Errorf("line %d: upsert client: %w", row.Line, err)
		}
		if created {
			result.ClientsCreated++
		} else {
			result.ClientsUpdated++
		}

		policy := row.Policy(client.ID)
		if err := r.store.AddPolicy(ctx, &policy); err != nil {
			return result, fmt.Errorf("line %d: add policy: %w", row.Line, err)
		}

		result.Rows++
		result.Warnings = append(result.Warnings, row.Warnings...)
	}

	for _, w := range result.Warnings {
		r.logger.Warn("Import warning", "detail", w)
	}
	r.logger.Info("Import finished",
		"rows", result.Rows,
		"clients_created", result.ClientsCreated,
		"clients_updated", result.ClientsUpdated,
		"warnings", len(result.Warnings),
	)
	return result, nil
}
