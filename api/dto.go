/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  crm model so fields can be renamed without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers via crm.ValidateClient/ValidatePolicy.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-crm/crm"
)

// =============================================================================
// CLIENTS AND POLICIES
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// CreateClientRequest is the Add Client form.
type CreateClientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// PolicyDTO represents a policy joined with its client.
type PolicyDTO struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"client_id"`
	PolicyNo    string          `json:"policy_no"`
	Insurer     string          `json:"insurer"`
	PolicyType  string          `json:"policy_type"`
	IssuedDate  string          `json:"issued_date"`
	ExpiryDate  string          `json:"expiry_date"`
	Premium     decimal.Decimal `json:"premium"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes"`
	ClientName  string          `json:"client_name,omitempty"`
	ClientPhone string          `json:"client_phone,omitempty"`
}

// CreatePolicyRequest is the Add Policy form.
type CreatePolicyRequest struct {
	ClientID   int64           `json:"client_id"`
	PolicyNo   string          `json:"policy_no"`
	Insurer    string          `json:"insurer"`
	PolicyType string          `json:"policy_type"`
	IssuedDate string          `json:"issued_date"`
	ExpiryDate string          `json:"expiry_date"`
	Premium    decimal.Decimal `json:"premium"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardDTO is the aggregate view.
type DashboardDTO struct {
	TotalClients   int         `json:"total_clients"`
	TotalPolicies  int         `json:"total_policies"`
	RenewalsDue    int         `json:"renewals_due"`
	RenewalWindow  int         `json:"renewal_window_days"`
	RecentPolicies []PolicyDTO `json:"recent_policies"`
	AsOf           string      `json:"as_of"`
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportRowDTO is one normalized row in an import preview.
type ImportRowDTO struct {
	Line       int             `json:"line"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	PolicyNo   string          `json:"policy_no"`
	Insurer    string          `json:"insurer"`
	PolicyType string          `json:"policy_type"`
	IssuedDate string          `json:"issued_date"`
	ExpiryDate string          `json:"expiry_date"`
	Premium    decimal.Decimal `json:"premium"`
	Notes      string          `json:"notes"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// ImportPreviewResponse is shown before committing an import.
type ImportPreviewResponse struct {
	Columns []string       `json:"columns"`
	Rows    []ImportRowDTO `json:"rows"`
	Total   int            `json:"total_rows"`
}

// ImportResponse summarizes a committed import.
type ImportResponse struct {
	Imported       int      `json:"imported"`
	ClientsCreated int      `json:"clients_created"`
	ClientsUpdated int      `json:"clients_updated"`
	Warnings       []string `json:"warnings"`
}

// =============================================================================
// RENEWALS AND NOTIFICATIONS
// =============================================================================

// RenewalsResponse lists policies due inside a window.
type RenewalsResponse struct {
	WindowDays int         `json:"window_days"`
	AsOf       string      `json:"as_of"`
	Count      int         `json:"count"`
	Policies   []PolicyDTO `json:"policies"`
}

// RecipientDTO is an eligible reminder recipient.
type RecipientDTO struct {
	PolicyID    int64  `json:"policy_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	PolicyNo    string `json:"policy_no"`
	Insurer     string `json:"insurer"`
	ExpiryDate  string `json:"expiry_date"`
}

// NotificationPreviewResponse backs the Bulk WhatsApp view.
type NotificationPreviewResponse struct {
	WindowDays int            `json:"window_days"`
	Recipients []RecipientDTO `json:"recipients"`
	Template   string         `json:"template"`
	Simulated  bool           `json:"simulated"`
}

// BulkNotifyRequest triggers a reminder batch.
type BulkNotifyRequest struct {
	WindowDays *int   `json:"window_days,omitempty"`
	Template   string `json:"template,omitempty"`
}

// OutcomeDTO is the per-recipient result.
type OutcomeDTO struct {
	PolicyID   int64  `json:"policy_id"`
	ClientName string `json:"client_name"`
	Phone      string `json:"phone"`
	PolicyNo   string `json:"policy_no"`
	Status     string `json:"status"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Batch modes reported to the caller.
const (
	ModeEmpty  = "empty"
	ModeDryRun = "dry_run"
	ModeSent   = "sent"
	ModeFailed = "failed"
)

// BulkNotifyResponse summarizes a reminder batch.
type BulkNotifyResponse struct {
	BatchID    string       `json:"batch_id,omitempty"`
	Mode       string       `json:"mode"`
	Message    string       `json:"message"`
	WindowDays int          `json:"window_days"`
	Sent       int          `json:"sent"`
	Failed     int          `json:"failed"`
	Simulated  int          `json:"simulated"`
	Outcomes   []OutcomeDTO `json:"outcomes"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toClientDTO(c crm.Client) ClientDTO {
	return ClientDTO{
		ID:    int64(c.ID),
		Name:  c.Name,
		Phone: c.Phone,
		Email: c.Email,
		Notes: c.Notes,
	}
}

func toPolicyDTO(v crm.PolicyView) PolicyDTO {
	return PolicyDTO{
		ID:          int64(v.ID),
		ClientID:    int64(v.ClientID),
		PolicyNo:    v.PolicyNo,
		Insurer:     v.Insurer,
		PolicyType:  v.PolicyType,
		IssuedDate:  v.IssuedDate,
		ExpiryDate:  v.ExpiryDate,
		Premium:     v.Premium,
		Status:      v.Status,
		Notes:       v.Notes,
		ClientName:  v.ClientName,
		ClientPhone: v.ClientPhone,
	}
}

func toPolicyDTOs(views []crm.PolicyView) []PolicyDTO {
	dtos := make([]PolicyDTO, len(views))
	for i, v := range views {
		dtos[i] = toPolicyDTO(v)
	}
	return dtos
}

func toImportRowDTO(r crm.ImportRow) ImportRowDTO {
	return ImportRowDTO{
		Line:       r.Line,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		PolicyNo:   r.PolicyNo,
		Insurer:    r.Insurer,
		PolicyType: r.PolicyType,
		IssuedDate: r.IssuedDate,
		ExpiryDate: r.ExpiryDate,
		Premium:    r.Premium,
		Notes:      r.Notes,
		Warnings:   r.Warnings,
	}
}

func toOutcomeDTO(o crm.RecipientOutcome) OutcomeDTO {
	dto := OutcomeDTO{
		PolicyID:   int64(o.PolicyID),
		ClientName: o.ClientName,
		Phone:      o.Phone,
		PolicyNo:   o.PolicyNo,
		Status:     string(o.Status),
		MessageID:  o.MessageID,
	}
	if o.Err != nil {
		dto.Error = o.Err.Error()
	}
	return dto
}
