package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
)

// PersonalService handles the individual ledger variant. Every endpoint is
// restricted to admins and callers whose tenant is the Personal sentinel;
// non-admin callers only ever see their own rows.
type PersonalService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewPersonalService(db *sql.DB) *PersonalService {
	return &PersonalService{db: db, validator: NewValidationHelper()}
}

type personalFields struct {
	Amount      *float64        `json:"amount"`
	PayType     *models.PayType `json:"paytype"`
	Description *string         `json:"description"`
}

func (s *PersonalService) allow(w http.ResponseWriter, caller *models.Identity) bool {
	if caller.IsAdmin() || caller.Tenant == models.TenantPersonal {
		return true
	}
	SendErrorResponse(w, "Access denied. Personal ledger requires the Personal tenant or admin role", http.StatusForbidden, nil)
	return false
}

func (s *PersonalService) decode(w http.ResponseWriter, r *http.Request) (*personalFields, error) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	fields := &personalFields{}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("request body must only contain a single JSON object")
	}
	return fields, nil
}

// Create inserts a personal ledger entry for the caller
// @Summary Create a personal entry
// @Tags personal
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any "Entry created"
// @Failure 403 {object} ErrorResponse "Personal tenant or admin required"
// @Router /personal [post]
func (s *PersonalService) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	fields, err := s.decode(w, r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if fields.Amount == nil || !validNonNegativeAmount(*fields.Amount) {
		SendErrorResponse(w, "amount is required and must be a valid non-negative number", http.StatusBadRequest, nil)
		return
	}
	if fields.PayType == nil || !fields.PayType.Valid() {
		SendErrorResponse(w, `paytype is required and must be "incoming" or "outgoing"`, http.StatusBadRequest, nil)
		return
	}

	entry := models.PersonalEntry{
		UserID:      caller.ID,
		PayType:     *fields.PayType,
		Amount:      *fields.Amount,
		Description: fields.Description,
	}

	err = s.db.QueryRowContext(r.Context(),
		`INSERT INTO daybook_personal (user_id, paytype, amount, description)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		entry.UserID, entry.PayType, entry.Amount, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		log.Printf("[PERSONAL] Insert failed: %v", err)
		SendErrorResponse(w, "Failed to create personal entry", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusCreated, "Personal daybook entry created", entry)
}

// List returns the caller's personal ledger, newest first
// @Summary List personal entries
// @Tags personal
// @Produce json
// @Success 200 {object} map[string]any "Entries retrieved"
// @Router /personal [get]
func (s *PersonalService) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	query := `SELECT id, created_at, user_id, paytype, amount, description FROM daybook_personal`
	args := []any{}
	if !caller.IsAdmin() {
		query += ` WHERE user_id = $1`
		args = append(args, caller.ID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[PERSONAL] Listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch personal entries", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	entries := []models.PersonalEntry{}
	for rows.Next() {
		entry, err := scanPersonalEntry(rows)
		if err != nil {
			log.Printf("[PERSONAL] Row scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch personal entries", http.StatusInternalServerError, nil)
			return
		}
		entries = append(entries, *entry)
	}

	SendData(w, http.StatusOK, "Personal entries fetched", entries)
}

// Get returns one personal entry owned by the caller
// @Summary Get a personal entry
// @Tags personal
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry retrieved"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /personal/{id} [get]
func (s *PersonalService) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	entry, err := s.getOwned(r, id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Personal entry not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[PERSONAL] Fetch of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to fetch personal entry", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Personal entry fetched", entry)
}

// Update applies a partial update to an owned personal entry
// @Summary Update a personal entry
// @Tags personal
// @Accept json
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry updated"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /personal/{id} [put]
func (s *PersonalService) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	fields, err := s.decode(w, r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if fields.Amount == nil && fields.PayType == nil && fields.Description == nil {
		SendErrorResponse(w, "No fields to update", http.StatusBadRequest, nil)
		return
	}

	entry, err := s.getOwned(r, id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Personal entry not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[PERSONAL] Fetch of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to update personal entry", http.StatusInternalServerError, nil)
		return
	}

	if fields.Amount != nil {
		if !validNonNegativeAmount(*fields.Amount) {
			SendErrorResponse(w, "amount must be a valid non-negative number", http.StatusBadRequest, nil)
			return
		}
		entry.Amount = *fields.Amount
	}
	if fields.PayType != nil {
		if !fields.PayType.Valid() {
			SendErrorResponse(w, `paytype must be "incoming" or "outgoing"`, http.StatusBadRequest, nil)
			return
		}
		entry.PayType = *fields.PayType
	}
	if fields.Description != nil {
		entry.Description = fields.Description
	}

	_, err = s.db.ExecContext(r.Context(),
		`UPDATE daybook_personal SET paytype = $2, amount = $3, description = $4 WHERE id = $1`,
		entry.ID, entry.PayType, entry.Amount, entry.Description)
	if err != nil {
		log.Printf("[PERSONAL] Update of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to update personal entry", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Personal entry updated", entry)
}

// Delete removes an owned personal entry
// @Summary Delete a personal entry
// @Tags personal
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]any "Entry deleted"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Router /personal/{id} [delete]
func (s *PersonalService) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	query := `DELETE FROM daybook_personal WHERE id = $1`
	args := []any{id}
	if !caller.IsAdmin() {
		query += ` AND user_id = $2`
		args = append(args, caller.ID)
	}

	result, err := s.db.ExecContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[PERSONAL] Delete of entry %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to delete personal entry", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Personal entry not found", http.StatusNotFound, nil)
		return
	}

	SendData(w, http.StatusOK, "Personal entry deleted", nil)
}

// Balance aggregates the caller's personal ledger over an optional window
// @Summary Personal balance
// @Tags personal
// @Produce json
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} map[string]any "Balance computed"
// @Router /personal/balance [get]
func (s *PersonalService) Balance(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	if !s.allow(w, caller) {
		return
	}

	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !caller.IsAdmin() {
		add("user_id = $%d", caller.ID)
	}
	q := r.URL.Query()
	if v := q.Get("start_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			SendErrorResponse(w, "start_date must be a valid date (YYYY-MM-DD)", http.StatusBadRequest, nil)
			return
		}
		add("created_at >= $%d", t)
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseEndDate(v)
		if err != nil {
			SendErrorResponse(w, "end_date must be a valid date (YYYY-MM-DD)", http.StatusBadRequest, nil)
			return
		}
		add("created_at < $%d", t)
	}

	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE paytype = 'incoming'), 0),
		COALESCE(SUM(amount) FILTER (WHERE paytype = 'outgoing'), 0),
		COUNT(*) FILTER (WHERE paytype = 'incoming'),
		COUNT(*) FILTER (WHERE paytype = 'outgoing'),
		COUNT(*)
	FROM daybook_personal`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var balance models.PersonalBalance
	err := s.db.QueryRowContext(r.Context(), query, args...).Scan(
		&balance.TotalIncoming, &balance.TotalOutgoing,
		&balance.IncomingCount, &balance.OutgoingCount, &balance.TotalEntries)
	if err != nil {
		log.Printf("[PERSONAL] Balance aggregate failed: %v", err)
		SendErrorResponse(w, "Failed to compute balance", http.StatusInternalServerError, nil)
		return
	}
	balance.NetBalance = balance.TotalIncoming - balance.TotalOutgoing

	SendData(w, http.StatusOK, "Personal balance computed", balance)
}

func (s *PersonalService) getOwned(r *http.Request, id int64, caller *models.Identity) (*models.PersonalEntry, error) {
	query := `SELECT id, created_at, user_id, paytype, amount, description FROM daybook_personal WHERE id = $1`
	args := []any{id}
	if !caller.IsAdmin() {
		query += ` AND user_id = $2`
		args = append(args, caller.ID)
	}
	return scanPersonalEntry(s.db.QueryRowContext(r.Context(), query, args...))
}

func scanPersonalEntry(row rowScanner) (*models.PersonalEntry, error) {
	var entry models.PersonalEntry
	var description sql.NullString
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UserID, &entry.PayType, &entry.Amount, &description); err != nil {
		return nil, err
	}
	if description.Valid {
		entry.Description = &description.String
	}
	return &entry, nil
}
