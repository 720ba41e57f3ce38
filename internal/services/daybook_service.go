package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dayledger/backend/internal/filestore"
	"github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
)

type DayBookService struct {
	db        *sql.DB
	files     filestore.Store
	salaries  SalaryPayments
	validator *ValidationHelper
}

func NewDayBookService(db *sql.DB, files filestore.Store, salaries SalaryPayments) *DayBookService {
	return &DayBookService{
		db:        db,
		files:     files,
		salaries:  salaries,
		validator: NewValidationHelper(),
	}
}

const dayBookColumns = `id, created_at, amount, payment_type, pay_status, mode_of_pay, description,
	payment_type_specific, payment_description, receipt, nurse_id, client_id, tenant, nurse_sal`

// entryFields is the mutable subset of a day book entry as supplied by a
// client, either as JSON or as multipart form values.
type entryFields struct {
	Amount              *float64                    `json:"amount"`
	PaymentType         *models.PayType             `json:"payment_type"`
	PayStatus           *models.PayStatus           `json:"pay_status"`
	ModeOfPay           *models.ModeOfPay           `json:"mode_of_pay"`
	Description         *string                     `json:"description"`
	PaymentTypeSpecific *models.PaymentTypeSpecific `json:"payment_type_specific"`
	PaymentDescription  *string                     `json:"payment_description"`
	NurseID             *string                     `json:"nurse_id"`
	ClientID            *string                     `json:"client_id"`
	Tenant              *models.Tenant              `json:"tenant"`
	NurseSal            *int64                      `json:"nurse_sal"`
}

// parseEntryRequest decodes a create/update payload from JSON or multipart
// form data. The returned reader is the uploaded receipt, nil if absent.
func (s *DayBookService) parseEntryRequest(w http.ResponseWriter, r *http.Request) (*entryFields, io.ReadCloser, string, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return nil, nil, "", "", fmt.Errorf("invalid multipart form")
		}

		fields := &entryFields{}
		if err := fields.fromForm(r); err != nil {
			return nil, nil, "", "", err
		}

		file, header, err := r.FormFile("receipt")
		if err == http.ErrMissingFile || header == nil {
			return fields, nil, "", "", nil
		}
		if err != nil {
			return nil, nil, "", "", fmt.Errorf("invalid receipt file")
		}
		return fields, file, header.Filename, header.Header.Get("Content-Type"), nil
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	fields := &entryFields{}
	if err := dec.Decode(fields); err != nil {
		return nil, nil, "", "", fmt.Errorf("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, nil, "", "", fmt.Errorf("request body must only contain a single JSON object")
	}
	return fields, nil, "", "", nil
}

func (f *entryFields) fromForm(r *http.Request) error {
	if v := r.FormValue("amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("amount must be a valid number")
		}
		f.Amount = &amount
	}
	if v := r.FormValue("payment_type"); v != "" {
		p := models.PayType(v)
		f.PaymentType = &p
	}
	if v := r.FormValue("pay_status"); v != "" {
		p := models.PayStatus(v)
		f.PayStatus = &p
	}
	if v := r.FormValue("mode_of_pay"); v != "" {
		m := models.ModeOfPay(v)
		f.ModeOfPay = &m
	}
	if v := r.FormValue("description"); v != "" {
		f.Description = &v
	}
	if v := r.FormValue("payment_type_specific"); v != "" {
		p := models.PaymentTypeSpecific(v)
		f.PaymentTypeSpecific = &p
	}
	if v := r.FormValue("payment_description"); v != "" {
		f.PaymentDescription = &v
	}
	if v := r.FormValue("nurse_id"); v != "" {
		f.NurseID = &v
	}
	if v := r.FormValue("client_id"); v != "" {
		f.ClientID = &v
	}
	if v := r.FormValue("tenant"); v != "" {
		t := models.Tenant(v)
		f.Tenant = &t
	}
	if v := r.FormValue("nurse_sal"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("nurse_sal must be a valid integer")
		}
		f.NurseSal = &id
	}
	return nil
}

// normalizeCounterparty enforces the exclusivity rule: outgoing entries carry
// nurse_id (and optionally nurse_sal), incoming entries carry client_id. The
// non-matching field is silently dropped, not rejected.
func normalizeCounterparty(e *models.DayBookEntry) {
	switch e.PaymentType {
	case models.PayIncoming:
		e.NurseID = nil
		e.NurseSal = nil
	case models.PayOutgoing:
		e.ClientID = nil
	}
}

// Create inserts a new day book entry
// @Summary Create a day book entry
// @Description Create a ledger entry, optionally with a multipart receipt file
// @Tags daybook
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 201 {object} map[string]any "Entry created"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /daybook/create [post]
func (s *DayBookService) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	fields, receipt, filename, contentType, err := s.parseEntryRequest(w, r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if receipt != nil {
		defer receipt.Close()
	}

	if fields.Amount == nil || !validAmount(*fields.Amount) {
		SendErrorResponse(w, "amount is required and must be a valid positive number", http.StatusBadRequest, nil)
		return
	}
	if fields.PaymentType == nil || !fields.PaymentType.Valid() {
		SendErrorResponse(w, `payment_type is required and must be "incoming" or "outgoing"`, http.StatusBadRequest, nil)
		return
	}
	if fields.PayStatus == nil || !fields.PayStatus.Valid() {
		SendErrorResponse(w, `pay_status is required and must be "paid" or "un_paid"`, http.StatusBadRequest, nil)
		return
	}
	if fields.ModeOfPay != nil && !fields.ModeOfPay.Valid() {
		SendErrorResponse(w, "mode_of_pay is not a recognized value", http.StatusBadRequest, nil)
		return
	}
	if fields.PaymentTypeSpecific != nil && !fields.PaymentTypeSpecific.Valid() {
		SendErrorResponse(w, "payment_type_specific is not a recognized value", http.StatusBadRequest, nil)
		return
	}

	// Non-admin callers write only into their own tenant.
	tenant := caller.Tenant
	if caller.IsAdmin() {
		if fields.Tenant == nil {
			SendErrorResponse(w, "tenant is required", http.StatusBadRequest, nil)
			return
		}
		tenant = *fields.Tenant
	}
	if !tenant.Valid() {
		SendErrorResponse(w, "tenant is not a recognized value", http.StatusBadRequest, nil)
		return
	}

	entry := models.DayBookEntry{
		Amount:              *fields.Amount,
		PaymentType:         *fields.PaymentType,
		PayStatus:           *fields.PayStatus,
		ModeOfPay:           fields.ModeOfPay,
		Description:         fields.Description,
		PaymentTypeSpecific: fields.PaymentTypeSpecific,
		PaymentDescription:  fields.PaymentDescription,
		NurseID:             fields.NurseID,
		ClientID:            fields.ClientID,
		Tenant:              tenant,
		NurseSal:            fields.NurseSal,
	}
	normalizeCounterparty(&entry)

	// Receipt upload happens before the insert; an upload failure aborts the
	// create so no entry ever references a missing file.
	if receipt != nil {
		url, err := s.files.Upload(r.Context(), filename, contentType, receipt)
		if err != nil {
			log.Printf("[DAYBOOK] Receipt upload failed: %v", err)
			SendErrorResponse(w, "Failed to upload receipt", http.StatusInternalServerError, nil)
			return
		}
		entry.Receipt = &url
	}

	err = s.db.QueryRowContext(r.Context(),
		`INSERT INTO day_book (amount, payment_type, pay_status, mode_of_pay, description,
			payment_type_specific, payment_description, receipt, nurse_id, client_id, tenant, nurse_sal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		entry.Amount, entry.PaymentType, entry.PayStatus, entry.ModeOfPay, entry.Description,
		entry.PaymentTypeSpecific, entry.PaymentDescription, entry.Receipt, entry.NurseID,
		entry.ClientID, entry.Tenant, entry.NurseSal,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		log.Printf("[DAYBOOK] Insert failed: %v", err)
		SendErrorResponse(w, "Failed to create day book entry", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[DAYBOOK] Entry %d created (%s, %s, %.2f)", entry.ID, entry.Tenant, entry.PaymentType, entry.Amount)
	SendData(w, http.StatusCreated, "Day book entry created successfully", entry)
}

// Update applies a partial update to an entry under the caller's tenant scope
// @Summary Update a day book entry
// @Description Partial update; optional receipt replacement via multipart
// @Tags daybook
// @Accept json
// @Accept mpfd
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry updated"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /daybook/update/{id} [put]
func (s *DayBookService) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	fields, receipt, filename, contentType, err := s.parseEntryRequest(w, r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if receipt != nil {
		defer receipt.Close()
	}

	// Scoped fetch first: a non-matching tenant cannot discover the row.
	entry, err := s.getByID(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Day book entry not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[DAYBOOK] Fetch of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to update day book entry", http.StatusInternalServerError, nil)
		return
	}

	if fields.Amount != nil {
		if !validAmount(*fields.Amount) {
			SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, nil)
			return
		}
		entry.Amount = *fields.Amount
	}
	if fields.PaymentType != nil {
		if !fields.PaymentType.Valid() {
			SendErrorResponse(w, `payment_type must be "incoming" or "outgoing"`, http.StatusBadRequest, nil)
			return
		}
		entry.PaymentType = *fields.PaymentType
	}
	if fields.PayStatus != nil {
		if !fields.PayStatus.Valid() {
			SendErrorResponse(w, `pay_status must be "paid" or "un_paid"`, http.StatusBadRequest, nil)
			return
		}
		entry.PayStatus = *fields.PayStatus
	}
	if fields.ModeOfPay != nil {
		if !fields.ModeOfPay.Valid() {
			SendErrorResponse(w, "mode_of_pay is not a recognized value", http.StatusBadRequest, nil)
			return
		}
		entry.ModeOfPay = fields.ModeOfPay
	}
	if fields.PaymentTypeSpecific != nil {
		if !fields.PaymentTypeSpecific.Valid() {
			SendErrorResponse(w, "payment_type_specific is not a recognized value", http.StatusBadRequest, nil)
			return
		}
		entry.PaymentTypeSpecific = fields.PaymentTypeSpecific
	}
	if fields.Description != nil {
		entry.Description = fields.Description
	}
	if fields.PaymentDescription != nil {
		entry.PaymentDescription = fields.PaymentDescription
	}
	if fields.NurseID != nil {
		entry.NurseID = fields.NurseID
	}
	if fields.ClientID != nil {
		entry.ClientID = fields.ClientID
	}
	if fields.NurseSal != nil {
		entry.NurseSal = fields.NurseSal
	}
	if fields.Tenant != nil && caller.IsAdmin() {
		if !fields.Tenant.Valid() {
			SendErrorResponse(w, "tenant is not a recognized value", http.StatusBadRequest, nil)
			return
		}
		entry.Tenant = *fields.Tenant
	}
	normalizeCounterparty(entry)

	if receipt != nil {
		url, err := s.files.Upload(r.Context(), filename, contentType, receipt)
		if err != nil {
			log.Printf("[DAYBOOK] Receipt upload failed: %v", err)
			SendErrorResponse(w, "Failed to upload receipt", http.StatusInternalServerError, nil)
			return
		}
		entry.Receipt = &url
	}

	_, err = s.db.ExecContext(r.Context(),
		`UPDATE day_book SET amount = $2, payment_type = $3, pay_status = $4, mode_of_pay = $5,
			description = $6, payment_type_specific = $7, payment_description = $8, receipt = $9,
			nurse_id = $10, client_id = $11, tenant = $12, nurse_sal = $13
		WHERE id = $1`,
		entry.ID, entry.Amount, entry.PaymentType, entry.PayStatus, entry.ModeOfPay,
		entry.Description, entry.PaymentTypeSpecific, entry.PaymentDescription, entry.Receipt,
		entry.NurseID, entry.ClientID, entry.Tenant, entry.NurseSal)
	if err != nil {
		log.Printf("[DAYBOOK] Update of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to update day book entry", http.StatusInternalServerError, nil)
		return
	}

	// Cross-aggregate propagation: a paid outgoing entry referencing a salary
	// payment marks that record paid. The entry update above has already
	// committed, so a failure here is surfaced while the entry stays updated;
	// re-running the same update retries the propagation.
	if entry.NurseSal != nil && entry.PayStatus == models.StatusPaid {
		if err := s.salaries.MarkPaid(r.Context(), *entry.NurseSal, entry.Receipt); err != nil {
			log.Printf("[DAYBOOK] Salary propagation for entry %d failed: %v", id, err)
			SendErrorResponse(w, "Entry updated but salary payment sync failed; retry the update", http.StatusInternalServerError, nil)
			return
		}
	}

	SendData(w, http.StatusOK, "Day book entry updated successfully", entry)
}

// Delete removes an entry by id under the caller's tenant scope
// @Summary Delete a day book entry
// @Tags daybook
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry deleted"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /daybook/delete/{id} [delete]
func (s *DayBookService) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	query := `DELETE FROM day_book WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}

	result, err := s.db.ExecContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[DAYBOOK] Delete of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to delete day book entry", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Day book entry not found", http.StatusNotFound, nil)
		return
	}

	SendData(w, http.StatusOK, "Day book entry deleted successfully", nil)
}

// List returns entries filtered by type, counterparty, and date window
// @Summary List day book entries
// @Description Filtered listing, tenant-scoped unless the caller is admin
// @Tags daybook
// @Produce json
// @Param type query string false "Payment type filter"
// @Param nurse_id query string false "Nurse filter"
// @Param client_id query string false "Client filter"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Param from_date query string false "Open-ended start (YYYY-MM-DD)"
// @Success 200 {object} map[string]any "Entries retrieved"
// @Router /daybook/list [get]
func (s *DayBookService) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	filter, err := listFilterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	entries, err := s.queryEntries(r.Context(), caller, filter)
	if err != nil {
		log.Printf("[DAYBOOK] Listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch day book entries", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Day book entries retrieved successfully", entries)
}

// GetByID returns a single entry under the caller's tenant scope
// @Summary Get a day book entry
// @Tags daybook
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry retrieved"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /daybook/{id} [get]
func (s *DayBookService) GetByID(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	entry, err := s.getByID(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Day book entry not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[DAYBOOK] Fetch of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to fetch day book entry", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Day book entry retrieved successfully", entry)
}

// PaymentSummary aggregates amounts partitioned by pay status
// @Summary Payment summary amounts
// @Description Totals and counts split by paid / un_paid, over an optional date window
// @Tags daybook
// @Produce json
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Param from_date query string false "Open-ended start (YYYY-MM-DD)"
// @Success 200 {object} map[string]any "Summary computed"
// @Router /daybook/summary/amounts [get]
func (s *DayBookService) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	filter, err := listFilterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	where, args := s.whereClause(caller, filter)
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE pay_status = 'paid'), 0),
		COALESCE(SUM(amount) FILTER (WHERE pay_status = 'un_paid'), 0),
		COUNT(*),
		COUNT(*) FILTER (WHERE pay_status = 'paid'),
		COUNT(*) FILTER (WHERE pay_status = 'un_paid')
	FROM day_book` + where

	var summary models.PaymentSummary
	err = s.db.QueryRowContext(r.Context(), query, args...).Scan(
		&summary.TotalPaidAmount, &summary.TotalPendingAmount, &summary.TotalEntries,
		&summary.PaidEntriesCount, &summary.PendingEntriesCount)
	if err != nil {
		log.Printf("[DAYBOOK] Payment summary failed: %v", err)
		SendErrorResponse(w, "Failed to compute payment summary", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Payment summary computed successfully", summary)
}

// NetRevenue aggregates paid amounts partitioned by payment direction
// @Summary Net revenue
// @Description Incoming vs outgoing totals over paid entries, with profit flag
// @Tags daybook
// @Produce json
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Param from_date query string false "Open-ended start (YYYY-MM-DD)"
// @Success 200 {object} map[string]any "Net revenue computed"
// @Router /daybook/revenue/net [get]
func (s *DayBookService) NetRevenue(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	filter, err := listFilterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	filter.payStatus = string(models.StatusPaid)

	where, args := s.whereClause(caller, filter)
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE payment_type = 'incoming'), 0),
		COALESCE(SUM(amount) FILTER (WHERE payment_type = 'outgoing'), 0),
		COUNT(*) FILTER (WHERE payment_type = 'incoming'),
		COUNT(*) FILTER (WHERE payment_type = 'outgoing')
	FROM day_book` + where

	var rev models.NetRevenue
	err = s.db.QueryRowContext(r.Context(), query, args...).Scan(
		&rev.TotalIncoming, &rev.TotalOutgoing, &rev.IncomingCount, &rev.OutgoingCount)
	if err != nil {
		log.Printf("[DAYBOOK] Net revenue failed: %v", err)
		SendErrorResponse(w, "Failed to compute net revenue", http.StatusInternalServerError, nil)
		return
	}

	rev.NetRevenue = rev.TotalIncoming - rev.TotalOutgoing
	rev.IsProfit = rev.NetRevenue >= 0

	SendData(w, http.StatusOK, "Net revenue computed successfully", rev)
}

// listFilter carries the optional predicates shared by listings, aggregates
// and the spreadsheet export.
type listFilter struct {
	paymentType string
	payStatus   string
	nurseID     string
	clientID    string
	startDate   *time.Time
	endDate     *time.Time
}

func listFilterFromQuery(r *http.Request) (listFilter, error) {
	var f listFilter
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		if !models.PayType(v).Valid() {
			return f, fmt.Errorf(`type must be "incoming" or "outgoing"`)
		}
		f.paymentType = v
	}
	f.nurseID = q.Get("nurse_id")
	f.clientID = q.Get("client_id")

	parse := func(name string) (*time.Time, error) {
		v := q.Get(name)
		if v == "" {
			return nil, nil
		}
		t, err := parseDate(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid date (YYYY-MM-DD)", name)
		}
		return &t, nil
	}

	start, err := parse("start_date")
	if err != nil {
		return f, err
	}
	var end *time.Time
	if v := q.Get("end_date"); v != "" {
		t, err := parseEndDate(v)
		if err != nil {
			return f, fmt.Errorf("end_date must be a valid date (YYYY-MM-DD)")
		}
		end = &t
	}
	from, err := parse("from_date")
	if err != nil {
		return f, err
	}

	if (start == nil) != (end == nil) {
		return f, fmt.Errorf("both start_date and end_date are required for a date range")
	}
	f.startDate, f.endDate = start, end
	if from != nil {
		f.startDate = from
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// parseEndDate returns the exclusive upper bound for an end date. Date-only
// values widen to the following midnight so the named day stays inside the
// window; full timestamps are used as-is.
func parseEndDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return t, err
	}
	return t.Add(24 * time.Hour), nil
}

// whereClause builds the shared predicate list. Tenant scoping always comes
// from middleware.TenantScope so no endpoint can forget it.
func (s *DayBookService) whereClause(caller *models.Identity, f listFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if tenant, scoped := middleware.TenantScope(caller); scoped {
		add("tenant = $%d", tenant)
	}
	if f.paymentType != "" {
		add("payment_type = $%d", f.paymentType)
	}
	if f.payStatus != "" {
		add("pay_status = $%d", f.payStatus)
	}
	if f.nurseID != "" {
		add("nurse_id = $%d", f.nurseID)
	}
	if f.clientID != "" {
		add("client_id = $%d", f.clientID)
	}
	if f.startDate != nil {
		add("created_at >= $%d", *f.startDate)
	}
	if f.endDate != nil {
		add("created_at < $%d", *f.endDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *DayBookService) queryEntries(ctx context.Context, caller *models.Identity, f listFilter) ([]models.DayBookEntry, error) {
	where, args := s.whereClause(caller, f)
	query := `SELECT ` + dayBookColumns + ` FROM day_book` + where + ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.DayBookEntry{}
	for rows.Next() {
		entry, err := scanDayBookEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *DayBookService) getByID(ctx context.Context, id int64, caller *models.Identity) (*models.DayBookEntry, error) {
	query := `SELECT ` + dayBookColumns + ` FROM day_book WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}
	return scanDayBookEntry(s.db.QueryRowContext(ctx, query, args...))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDayBookEntry(row rowScanner) (*models.DayBookEntry, error) {
	var entry models.DayBookEntry
	var modeOfPay, description, specific, payDescription, receipt, nurseID, clientID sql.NullString
	var nurseSal sql.NullInt64

	err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.Amount, &entry.PaymentType, &entry.PayStatus,
		&modeOfPay, &description, &specific, &payDescription, &receipt, &nurseID, &clientID,
		&entry.Tenant, &nurseSal)
	if err != nil {
		return nil, err
	}

	if modeOfPay.Valid {
		m := models.ModeOfPay(modeOfPay.String)
		entry.ModeOfPay = &m
	}
	if description.Valid {
		entry.Description = &description.String
	}
	if specific.Valid {
		p := models.PaymentTypeSpecific(specific.String)
		entry.PaymentTypeSpecific = &p
	}
	if payDescription.Valid {
		entry.PaymentDescription = &payDescription.String
	}
	if receipt.Valid {
		entry.Receipt = &receipt.String
	}
	if nurseID.Valid {
		entry.NurseID = &nurseID.String
	}
	if clientID.Valid {
		entry.ClientID = &clientID.String
	}
	if nurseSal.Valid {
		entry.NurseSal = &nurseSal.Int64
	}
	return &entry, nil
}
