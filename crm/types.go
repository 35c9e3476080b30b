/*
Package crm provides the core of the renewal CRM.

PURPOSE:
  Holds the client/policy model and the operations an insurance agent runs
  against it: picking the policies that are due for renewal, rendering a
  reminder per client, and dispatching the reminders through a messaging
  gateway. Persistence and transport live outside this package and plug in
  through the Store and Gateway interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: a contact holding zero or more policies
  - Policy: an insurance contract with dates and a premium
  - PolicyView: a policy joined with its client's name and phone
  - Typed IDs so client and policy identifiers cannot be mixed up

DATES:
  Issued/expiry dates are kept as the ISO strings that were persisted.
  Import may store a value that does not parse; such policies never show
  up in renewal selection. See Date and SelectDue.

MONEY:
  Premium uses decimal.Decimal and is never negative once written.

SEE ALSO:
  - renewal.go: SelectDue
  - notifier.go: Bulk reminders
  - import.go: Spreadsheet reconciliation
*/
package crm

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID int64

type PolicyID int64

// =============================================================================
// CLIENT
// =============================================================================

// Client is a contact of the agent. Phone is the natural key on import.
type Client struct {
	ID    ClientID
	Name  string
	Phone string
	Email string
	Notes string
}

// =============================================================================
// POLICY
// =============================================================================

// StatusActive is the status given to every policy that does not name one.
const StatusActive = "Active"

// Policy is an insurance contract. Policies are never updated after
// creation; a renewal is a new row.
type Policy struct {
	ID         PolicyID
	ClientID   ClientID
	PolicyNo   string
	Insurer    string
	PolicyType string
	IssuedDate string // YYYY-MM-DD when parseable
	ExpiryDate string // YYYY-MM-DD when parseable
	Premium    decimal.Decimal
	Status     string
	Notes      string
}

// Expiry returns the parsed expiry date. ok is false when the stored value
// is missing or not an ISO date.
func (p Policy) Expiry() (Date, bool) {
	d, err := ParseDate(p.ExpiryDate)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// Normalize applies the write-time defaults: trimmed status defaulting to
// Active and a non-negative premium.
func (p *Policy) Normalize() {
	p.Status = strings.TrimSpace(p.Status)
	if p.Status == "" {
		p.Status = StatusActive
	}
	p.Premium = NormalizePremium(p.Premium)
}

// NormalizePremium clamps negative premiums to zero.
func NormalizePremium(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// PolicyView is a policy joined with its owning client's contact fields.
// It is the row shape used by the dashboard, renewal selection, bulk
// notification and the spreadsheet export.
type PolicyView struct {
	Policy
	ClientName  string
	ClientPhone string
}
