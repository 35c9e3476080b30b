/*
handlers.go - HTTP API handlers for the renewal CRM

PURPOSE:
  Exposes the five agent views over REST. Handles HTTP request/response
  and JSON, and delegates to the crm package.

ENDPOINTS:
  Dashboard:
    GET    /api/dashboard                 Counts + renewals next 30d + recent policies

  Add Client & Policy:
    GET    /api/clients                   List clients
    POST   /api/clients                   Create client (name, phone required)
    GET    /api/clients/{id}              Get client
    GET    /api/policies                  List policies joined with clients
    POST   /api/policies                  Create policy

  Import from Excel:
    POST   /api/import/preview            Upload (multipart "file"), first rows
    POST   /api/import                    Upload and commit

  Upcoming Renewals:
    GET    /api/renewals?window=30        Policies expiring in [today, today+window]
    GET    /api/renewals/export?window=30 Same set as renewals_{window}d.xlsx

  Bulk WhatsApp:
    GET    /api/notifications/preview     Recipients + default template
    POST   /api/notifications/bulk        Send reminders to everyone due

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call crm (store, selector, notifier, reconciler)
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON {error, details}:
  - 400: Validation, import format, template errors, bad input
  - 404: Missing client
  - 500: Store errors, reported verbatim and sent to Sentry

  A reminder batch is always 200; per-recipient failures are in the body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/warp/renewal-crm/crm"
	"github.com/warp/renewal-crm/spreadsheet"
)

const (
	recentPoliciesLimit = 50
	importPreviewLimit  = 20
	maxUploadBytes      = 32 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      crm.Store
	Notifier   *crm.Notifier
	Reconciler *crm.Reconciler
	Metrics    *Metrics

	// Now returns the reference day for renewal windows.
	Now func() crm.Date

	simulated bool
	logger    *slog.Logger
}

// NewHandler wires the crm components around a store and gateway.
func NewHandler(store crm.Store, gateway crm.Gateway, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := NewMetrics()

	h := &Handler{
		Store:      store,
		Reconciler: crm.NewReconciler(store, logger),
		Metrics:    metrics,
		Now:        crm.Today,
		logger:     logger,
	}
	h.Notifier = crm.NewNotifier(gateway,
		crm.WithLogger(logger),
		crm.WithObserver(metrics.ObserveOutcome),
	)
	if s, ok := gateway.(interface{ Simulated() bool }); ok {
		h.simulated = s.Simulated()
	}
	return h
}

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns aggregate counts and recent policies.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.Store.ListClients(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	policies, err := h.Store.ListPolicies(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	today := h.Now()
	due := crm.SelectDue(policies, crm.DefaultDashboardWindow, today)

	crm.SortByExpiry(policies)
	recent := policies
	if len(recent) > recentPoliciesLimit {
		recent = recent[len(recent)-recentPoliciesLimit:]
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		TotalClients:   len(clients),
		TotalPolicies:  len(policies),
		RenewalsDue:    len(due),
		RenewalWindow:  crm.DefaultDashboardWindow,
		RecentPolicies: toPolicyDTOs(recent),
		AsOf:           today.String(),
	})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	client, err := h.Store.GetClient(r.Context(), crm.ClientID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client))
}

// CreateClient creates a client from the Add Client form.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client := crm.Client{Name: req.Name, Phone: req.Phone, Email: req.Email, Notes: req.Notes}
	if err := crm.ValidateClient(client); err != nil {
		writeError(w, http.StatusBadRequest, "Name & phone are required", err)
		return
	}

	if err := h.Store.AddClient(r.Context(), &client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(client))
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all policies joined with their clients.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTOs(policies))
}

// CreatePolicy creates a policy from the Add Policy form.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy := crm.Policy{
		ClientID:   crm.ClientID(req.ClientID),
		PolicyNo:   req.PolicyNo,
		Insurer:    req.Insurer,
		PolicyType: req.PolicyType,
		IssuedDate: req.IssuedDate,
		ExpiryDate: req.ExpiryDate,
		Premium:    req.Premium,
		Status:     req.Status,
		Notes:      req.Notes,
	}
	if err := crm.ValidatePolicy(policy); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy", err)
		return
	}

	if err := h.Store.AddPolicy(r.Context(), &policy); err != nil {
		if crm.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Client not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create policy", err)
		return
	}

	view := crm.PolicyView{Policy: policy}
	client, err := h.Store.GetClient(r.Context(), policy.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client != nil {
		view.ClientName = client.Name
		view.ClientPhone = client.Phone
	}
	writeJSON(w, http.StatusCreated, toPolicyDTO(view))
}

// =============================================================================
// IMPORT HANDLERS
// =============================================================================

// PreviewImport validates an uploaded workbook and returns its first rows.
func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	preview, err := h.Reconciler.Preview(sheet, importPreviewLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing columns", err)
		return
	}

	rows := make([]ImportRowDTO, len(preview.Rows))
	for i, row := range preview.Rows {
		rows[i] = toImportRowDTO(row)
	}
	writeJSON(w, http.StatusOK, ImportPreviewResponse{
		Columns: preview.Columns,
		Rows:    rows,
		Total:   preview.Total,
	})
}

// CommitImport writes every row of an uploaded workbook.
func (h *Handler) CommitImport(w http.ResponseWriter, r *http.Request) {
	sheet, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.Reconciler.Import(r.Context(), sheet)
	h.Metrics.AddImportedRows(result.Rows)
	if err != nil {
		var formatErr *crm.ImportFormatError
		if errors.As(err, &formatErr) {
			writeError(w, http.StatusBadRequest, "Missing columns", err)
			return
		}
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Import failed after %d rows", result.Rows), err)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Imported:       result.Rows,
		ClientsCreated: result.ClientsCreated,
		ClientsUpdated: result.ClientsUpdated,
		Warnings:       warnings,
	})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (crm.Sheet, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart upload", err)
		return crm.Sheet{}, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return crm.Sheet{}, false
	}
	defer file.Close()

	sheet, err := spreadsheet.ReadSheet(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read workbook", err)
		return crm.Sheet{}, false
	}
	return sheet, true
}

// =============================================================================
// RENEWAL HANDLERS
// =============================================================================

// ListRenewals returns the policies due inside the requested window.
func (h *Handler) ListRenewals(w http.ResponseWriter, r *http.Request) {
	window, ok := parseWindow(w, r.URL.Query().Get("window"))
	if !ok {
		return
	}

	today := h.Now()
	due, err := h.dueWithin(r, window, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	writeJSON(w, http.StatusOK, RenewalsResponse{
		WindowDays: window,
		AsOf:       today.String(),
		Count:      len(due),
		Policies:   toPolicyDTOs(due),
	})
}

// ExportRenewals streams the due set as an .xlsx download.
func (h *Handler) ExportRenewals(w http.ResponseWriter, r *http.Request) {
	window, ok := parseWindow(w, r.URL.Query().Get("window"))
	if !ok {
		return
	}

	due, err := h.dueWithin(r, window, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", spreadsheet.RenewalsFilename(window)))
	if err := spreadsheet.WriteRenewals(w, due); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("Renewals export failed", "window", window, "error", err)
		sentry.CaptureException(err)
	}
}

func (h *Handler) dueWithin(r *http.Request, window int, today crm.Date) ([]crm.PolicyView, error) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		return nil, err
	}
	due := crm.SelectDue(policies, window, today)
	crm.SortByExpiry(due)
	return due, nil
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// PreviewNotifications lists eligible recipients and the default template.
func (h *Handler) PreviewNotifications(w http.ResponseWriter, r *http.Request) {
	window, ok := parseWindow(w, r.URL.Query().Get("window"))
	if !ok {
		return
	}

	due, err := h.dueWithin(r, window, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	recipients := make([]RecipientDTO, len(due))
	for i, p := range due {
		recipients[i] = RecipientDTO{
			PolicyID:    int64(p.ID),
			ClientName:  p.ClientName,
			ClientPhone: p.ClientPhone,
			PolicyNo:    p.PolicyNo,
			Insurer:     p.Insurer,
			ExpiryDate:  p.ExpiryDate,
		}
	}
	writeJSON(w, http.StatusOK, NotificationPreviewResponse{
		WindowDays: window,
		Recipients: recipients,
		Template:   crm.DefaultTemplate,
		Simulated:  h.simulated,
	})
}

// SendBulkNotifications sends one reminder per due policy.
func (h *Handler) SendBulkNotifications(w http.ResponseWriter, r *http.Request) {
	var req BulkNotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	window := defaultWindow
	if req.WindowDays != nil {
		window = *req.WindowDays
	}
	if window < 0 {
		writeError(w, http.StatusBadRequest, "Invalid window",
			&crm.ValidationError{Field: "window_days", Message: "must not be negative"})
		return
	}
	template := req.Template
	if template == "" {
		template = crm.DefaultTemplate
	}

	due, err := h.dueWithin(r, window, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	summary, err := h.Notifier.Notify(r.Context(), due, template)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message template", err)
		return
	}

	outcomes := make([]OutcomeDTO, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		outcomes[i] = toOutcomeDTO(o)
	}
	mode, message := describeBatch(summary)
	writeJSON(w, http.StatusOK, BulkNotifyResponse{
		BatchID:    summary.BatchID,
		Mode:       mode,
		Message:    message,
		WindowDays: window,
		Sent:       summary.Sent,
		Failed:     summary.Failed,
		Simulated:  summary.Simulated,
		Outcomes:   outcomes,
	})
}

// describeBatch keeps simulated batches from reading like real sends.
func describeBatch(s crm.Summary) (string, string) {
	var failed string
	if s.Failed > 0 {
		failed = fmt.Sprintf(" Failed %d messages. Check numbers / provider logs.", s.Failed)
	}

	switch {
	case s.Total() == 0:
		return ModeEmpty, "Nothing to send."
	case s.DryRun():
		return ModeDryRun, fmt.Sprintf("[SIMULATION MODE] Prepared %d messages (no provider credentials set).%s",
			s.Simulated, failed)
	case s.Sent > 0:
		return ModeSent, fmt.Sprintf("Sent %d messages.%s", s.Sent, failed)
	default:
		return ModeFailed, fmt.Sprintf("Failed %d messages. Check numbers / provider logs.", s.Failed)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

const defaultWindow = 30

func parseWindow(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return defaultWindow, true
	}
	window, err := strconv.Atoi(raw)
	if err != nil || window < 0 {
		writeError(w, http.StatusBadRequest, "Invalid window",
			&crm.ValidationError{Field: "window", Message: "must be a non-negative number of days"})
		return 0, false
	}
	return window, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		if status >= http.StatusInternalServerError {
			sentry.CaptureException(err)
		}
	}
	writeJSON(w, status, resp)
}
