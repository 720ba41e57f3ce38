package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("bank account not found")
)

// BankingService maintains the account registry and the append-only
// transaction log. Every balance movement runs as a single database
// transaction: row lock, precondition check, versioned balance write and
// transaction insert commit or roll back together.
type BankingService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

func NewBankingService(db *sql.DB, redisClient *redis.Client) *BankingService {
	return &BankingService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

const bankAccountColumns = `id, bank_name, account_name, shortform, account_number, ifsc, branch,
	balance, version, tenant, created_at, updated_at`

const bankTransactionColumns = `id, bank_account_id, transaction_type, amount, from_account_id,
	to_account_id, cheque_number, description, reference, status, tenant, created_at`

func (s *BankingService) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}

// ==================== ACCOUNTS ====================

// CreateAccountRequest is the account registration payload
// @Description Bank account creation request
type CreateAccountRequest struct {
	BankName      string         `json:"bank_name" validate:"required" example:"State Bank"`
	AccountName   string         `json:"account_name" validate:"required" example:"Operations"`
	Shortform     string         `json:"shortform" validate:"required" example:"SB-OPS"`
	AccountNumber *string        `json:"account_number,omitempty" example:"1234567890"`
	IFSC          *string        `json:"ifsc,omitempty" example:"SBIN0001234"`
	Branch        *string        `json:"branch,omitempty" example:"MG Road"`
	Balance       *float64       `json:"balance,omitempty" example:"1000"`
	Tenant        *models.Tenant `json:"tenant,omitempty" example:"Dearcare"`
}

// CreateAccount registers a bank account
// @Summary Create a bank account
// @Tags daybank
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account fields"
// @Success 201 {object} map[string]any "Account created"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /daybank/accounts/create [post]
func (s *BankingService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.BankName) == "" || strings.TrimSpace(req.AccountName) == "" || strings.TrimSpace(req.Shortform) == "" {
		SendErrorResponse(w, "bank_name, account_name and shortform are required", http.StatusBadRequest, nil)
		return
	}

	balance := 0.0
	if req.Balance != nil {
		if !validAmount(*req.Balance) && *req.Balance != 0 {
			SendErrorResponse(w, "balance must be a valid number", http.StatusBadRequest, nil)
			return
		}
		balance = *req.Balance
	}
	if req.Tenant != nil && !req.Tenant.Valid() {
		SendErrorResponse(w, "tenant is not a recognized value", http.StatusBadRequest, nil)
		return
	}

	account := models.BankAccount{
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		Shortform:     req.Shortform,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		Branch:        req.Branch,
		Balance:       balance,
		Version:       1,
		Tenant:        req.Tenant,
	}

	err := s.db.QueryRowContext(r.Context(),
		`INSERT INTO bank_accounts (bank_name, account_name, shortform, account_number, ifsc, branch, balance, version, tenant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		account.BankName, account.AccountName, account.Shortform, account.AccountNumber,
		account.IFSC, account.Branch, account.Balance, account.Version, account.Tenant,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		log.Printf("[BANK] Account creation failed: %v", err)
		SendErrorResponse(w, "Failed to create bank account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[BANK] Account %d created (%s / %s)", account.ID, account.BankName, account.Shortform)
	SendData(w, http.StatusCreated, "Bank account created successfully", account)
}

// ListAccounts returns all visible accounts, newest first
// @Summary List bank accounts
// @Tags daybank
// @Produce json
// @Success 200 {object} map[string]any "Accounts retrieved"
// @Router /daybank/accounts/list [get]
func (s *BankingService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts`
	args := []any{}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` WHERE tenant = $1`
		args = append(args, tenant)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[BANK] Account listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch bank accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			log.Printf("[BANK] Account scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch bank accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, *account)
	}

	SendData(w, http.StatusOK, "Bank accounts retrieved successfully", accounts)
}

// GetAccount returns one account under the caller's tenant scope
// @Summary Get a bank account
// @Tags daybank
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]any "Account retrieved"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/accounts/{id} [get]
func (s *BankingService) GetAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	account, err := s.getAccount(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[BANK] Account fetch failed: %v", err)
		SendErrorResponse(w, "Failed to fetch bank account", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Bank account retrieved successfully", account)
}

// UpdateAccountRequest is the partial account update payload
type UpdateAccountRequest struct {
	BankName      *string        `json:"bank_name,omitempty"`
	AccountName   *string        `json:"account_name,omitempty"`
	Shortform     *string        `json:"shortform,omitempty"`
	AccountNumber *string        `json:"account_number,omitempty"`
	IFSC          *string        `json:"ifsc,omitempty"`
	Branch        *string        `json:"branch,omitempty"`
	Tenant        *models.Tenant `json:"tenant,omitempty"`
}

// UpdateAccount applies a partial update to the account registry row.
// Balance is deliberately not updatable here; it only moves through
// transactions.
// @Summary Update a bank account
// @Tags daybank
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]any "Account updated"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/accounts/update/{id} [put]
func (s *BankingService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	var req UpdateAccountRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if req.Tenant != nil && !req.Tenant.Valid() {
		SendErrorResponse(w, "tenant is not a recognized value", http.StatusBadRequest, nil)
		return
	}

	account, err := s.getAccount(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[BANK] Account fetch failed: %v", err)
		SendErrorResponse(w, "Failed to update bank account", http.StatusInternalServerError, nil)
		return
	}

	if req.BankName != nil {
		account.BankName = *req.BankName
	}
	if req.AccountName != nil {
		account.AccountName = *req.AccountName
	}
	if req.Shortform != nil {
		account.Shortform = *req.Shortform
	}
	if req.AccountNumber != nil {
		account.AccountNumber = req.AccountNumber
	}
	if req.IFSC != nil {
		account.IFSC = req.IFSC
	}
	if req.Branch != nil {
		account.Branch = req.Branch
	}
	if req.Tenant != nil && caller.IsAdmin() {
		account.Tenant = req.Tenant
	}

	_, err = s.db.ExecContext(r.Context(),
		`UPDATE bank_accounts SET bank_name = $2, account_name = $3, shortform = $4,
			account_number = $5, ifsc = $6, branch = $7, tenant = $8, updated_at = NOW()
		WHERE id = $1`,
		account.ID, account.BankName, account.AccountName, account.Shortform,
		account.AccountNumber, account.IFSC, account.Branch, account.Tenant)
	if err != nil {
		log.Printf("[BANK] Account update failed: %v", err)
		SendErrorResponse(w, "Failed to update bank account", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Bank account updated successfully", account)
}

// DeleteAccount removes an account from the registry
// @Summary Delete a bank account
// @Tags daybank
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]any "Account deleted"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/accounts/delete/{id} [delete]
func (s *BankingService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	query := `DELETE FROM bank_accounts WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}

	result, err := s.db.ExecContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[BANK] Account delete failed: %v", err)
		SendErrorResponse(w, "Failed to delete bank account", http.StatusInternalServerError, nil)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}

	SendData(w, http.StatusOK, "Bank account deleted successfully", nil)
}

// GetBalance returns the current balance of an account
// @Summary Get account balance
// @Tags daybank
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]any "Balance retrieved"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/accounts/{id}/balance [get]
func (s *BankingService) GetBalance(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	account, err := s.getAccount(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[BANK] Balance fetch failed: %v", err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Balance retrieved successfully", map[string]any{
		"account_id": account.ID,
		"balance":    account.Balance,
	})
}

// AccountQR renders the account coordinates as a QR code
// @Summary Share an account as a QR code
// @Description Encodes bank, account name/number and IFSC as a QR PNG
// @Tags daybank
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]any "QR generated"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/accounts/{id}/qr [get]
func (s *BankingService) AccountQR(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	account, err := s.getAccount(r.Context(), id, caller)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[BANK] Account fetch failed: %v", err)
		SendErrorResponse(w, "Failed to fetch bank account", http.StatusInternalServerError, nil)
		return
	}

	payload := map[string]any{
		"bank_name":    account.BankName,
		"account_name": account.AccountName,
		"nonce":        uuid.NewString(),
		"timestamp":    time.Now().Unix(),
	}
	if account.AccountNumber != nil {
		payload["account_number"] = *account.AccountNumber
	}
	if account.IFSC != nil {
		payload["ifsc"] = *account.IFSC
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	if s.redis != nil {
		key := fmt.Sprintf("qr:%s", payload["nonce"])
		if err := s.redis.Set(r.Context(), key, jsonData, 5*time.Minute).Err(); err != nil {
			log.Printf("[BANK] QR cache write failed: %v", err)
		}
	}

	qr, err := qrcode.New(string(jsonData), qrcode.Medium)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "QR code generated successfully", map[string]any{
		"account_id": account.ID,
		"qr_image":   base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// ==================== TRANSACTIONS ====================

// MovementRequest is the shared deposit/withdraw payload
// @Description Deposit or withdrawal request
type MovementRequest struct {
	AccountID   int64   `json:"account_id" validate:"required" example:"1"`
	Amount      float64 `json:"amount" validate:"required,gt=0" example:"500"`
	Description *string `json:"description,omitempty"`
	Reference   *string `json:"reference,omitempty"`
}

// TransferRequest moves funds between two accounts
// @Description Transfer request
type TransferRequest struct {
	FromAccountID int64   `json:"from_account_id" validate:"required" example:"1"`
	ToAccountID   int64   `json:"to_account_id" validate:"required" example:"2"`
	Amount        float64 `json:"amount" validate:"required,gt=0" example:"250"`
	Description   *string `json:"description,omitempty"`
	Reference     *string `json:"reference,omitempty"`
}

// ChequeRequest debits an account against a paper instrument
// @Description Cheque issuance request
type ChequeRequest struct {
	AccountID    int64   `json:"account_id" validate:"required" example:"1"`
	Amount       float64 `json:"amount" validate:"required,gt=0" example:"750"`
	ChequeNumber string  `json:"cheque_number" validate:"required" example:"000451"`
	Description  *string `json:"description,omitempty"`
	Reference    *string `json:"reference,omitempty"`
}

// Deposit credits an account and records the movement
// @Summary Deposit into an account
// @Tags daybank
// @Accept json
// @Produce json
// @Param request body MovementRequest true "Deposit fields"
// @Success 201 {object} map[string]any "Deposit recorded"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/transactions/deposit [post]
func (s *BankingService) Deposit(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	var req MovementRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, err)
		return
	}
	if !validAmount(req.Amount) {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, nil)
		return
	}

	txn, newBalance, err := s.applyMovement(r.Context(), caller, req.AccountID, req.Amount, models.BankTransaction{
		TransactionType: models.TxDeposit,
		Amount:          req.Amount,
		Description:     req.Description,
	}, req.Reference)
	if err != nil {
		s.sendMovementError(w, "Deposit failed", err)
		return
	}

	log.Printf("[BANK] Deposit of %.2f into account %d (balance %.2f)", req.Amount, req.AccountID, newBalance)
	SendData(w, http.StatusCreated, "Deposit successful", map[string]any{
		"transaction": txn,
		"newBalance":  newBalance,
	})
}

// Withdraw debits an account and records the movement
// @Summary Withdraw from an account
// @Tags daybank
// @Accept json
// @Produce json
// @Param request body MovementRequest true "Withdrawal fields"
// @Success 201 {object} map[string]any "Withdrawal recorded"
// @Failure 400 {object} ErrorResponse "Validation error or insufficient balance"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/transactions/withdraw [post]
func (s *BankingService) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	var req MovementRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, err)
		return
	}
	if !validAmount(req.Amount) {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, nil)
		return
	}

	txn, newBalance, err := s.applyMovement(r.Context(), caller, req.AccountID, -req.Amount, models.BankTransaction{
		TransactionType: models.TxWithdraw,
		Amount:          req.Amount,
		Description:     req.Description,
	}, req.Reference)
	if err != nil {
		s.sendMovementError(w, "Withdrawal failed", err)
		return
	}

	log.Printf("[BANK] Withdrawal of %.2f from account %d (balance %.2f)", req.Amount, req.AccountID, newBalance)
	SendData(w, http.StatusCreated, "Withdrawal successful", map[string]any{
		"transaction": txn,
		"newBalance":  newBalance,
	})
}

// Transfer moves funds between two accounts in one database transaction
// @Summary Transfer between accounts
// @Tags daybank
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer fields"
// @Success 201 {object} map[string]any "Transfer recorded"
// @Failure 400 {object} ErrorResponse "Validation error or insufficient balance"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/transactions/transfer [post]
func (s *BankingService) Transfer(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	var req TransferRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, err)
		return
	}
	if !validAmount(req.Amount) {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, nil)
		return
	}
	if req.FromAccountID == req.ToAccountID {
		SendErrorResponse(w, "Cannot transfer to the same account", http.StatusBadRequest, nil)
		return
	}

	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Printf("[BANK] Transfer begin failed: %v", err)
		SendErrorResponse(w, "Transfer failed", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	// Lock in ascending id order so two opposing transfers cannot deadlock.
	firstID, secondID := req.FromAccountID, req.ToAccountID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.lockAccount(tx, firstID, caller)
	if err != nil {
		s.sendMovementError(w, "Transfer failed", err)
		return
	}
	second, err := s.lockAccount(tx, secondID, caller)
	if err != nil {
		s.sendMovementError(w, "Transfer failed", err)
		return
	}

	from, to := first, second
	if from.ID != req.FromAccountID {
		from, to = second, first
	}

	if from.Balance < req.Amount {
		SendErrorResponse(w, "Insufficient balance in source account", http.StatusBadRequest, nil)
		return
	}

	newFromBalance := from.Balance - req.Amount
	newToBalance := to.Balance + req.Amount

	if err := s.updateBalance(tx, from.ID, newFromBalance, from.Version); err != nil {
		log.Printf("[BANK] Transfer debit failed: %v", err)
		SendErrorResponse(w, "Transfer failed", http.StatusInternalServerError, nil)
		return
	}
	if err := s.updateBalance(tx, to.ID, newToBalance, to.Version); err != nil {
		log.Printf("[BANK] Transfer credit failed: %v", err)
		SendErrorResponse(w, "Transfer failed", http.StatusInternalServerError, nil)
		return
	}

	txn := models.BankTransaction{
		BankAccountID:   req.FromAccountID,
		TransactionType: models.TxTransfer,
		Amount:          req.Amount,
		FromAccountID:   &req.FromAccountID,
		ToAccountID:     &req.ToAccountID,
		Description:     req.Description,
		Reference:       referenceOr(req.Reference),
		Status:          models.TxCompleted,
		Tenant:          movementTenant(caller),
	}
	if err := s.insertTransaction(tx, &txn); err != nil {
		log.Printf("[BANK] Transfer record insert failed: %v", err)
		SendErrorResponse(w, "Transfer failed", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[BANK] Transfer commit failed: %v", err)
		SendErrorResponse(w, "Transfer failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[BANK] Transfer of %.2f from account %d to %d", req.Amount, req.FromAccountID, req.ToAccountID)
	SendData(w, http.StatusCreated, "Transfer successful", map[string]any{
		"transaction": txn,
		"fromBalance": newFromBalance,
		"toBalance":   newToBalance,
	})
}

// Cheque debits an account against a numbered paper instrument
// @Summary Issue a cheque
// @Tags daybank
// @Accept json
// @Produce json
// @Param request body ChequeRequest true "Cheque fields"
// @Success 201 {object} map[string]any "Cheque recorded"
// @Failure 400 {object} ErrorResponse "Validation error or insufficient balance"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /daybank/transactions/cheque [post]
func (s *BankingService) Cheque(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	var req ChequeRequest
	if err := s.decode(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !validAmount(req.Amount) {
		SendErrorResponse(w, "amount must be a valid positive number", http.StatusBadRequest, nil)
		return
	}
	if strings.TrimSpace(req.ChequeNumber) == "" {
		SendErrorResponse(w, "cheque_number is required", http.StatusBadRequest, nil)
		return
	}

	txn, newBalance, err := s.applyMovement(r.Context(), caller, req.AccountID, -req.Amount, models.BankTransaction{
		TransactionType: models.TxCheque,
		Amount:          req.Amount,
		ChequeNumber:    &req.ChequeNumber,
		Description:     req.Description,
	}, req.Reference)
	if err != nil {
		s.sendMovementError(w, "Cheque issue failed", err)
		return
	}

	log.Printf("[BANK] Cheque %s for %.2f on account %d", req.ChequeNumber, req.Amount, req.AccountID)
	SendData(w, http.StatusCreated, "Cheque issued successfully", map[string]any{
		"transaction": txn,
		"newBalance":  newBalance,
	})
}

// applyMovement runs a single-account balance movement atomically: lock the
// row, check the precondition, write the new balance under its version and
// append the transaction record. A negative delta is a debit.
func (s *BankingService) applyMovement(ctx context.Context, caller *models.Identity, accountID int64, delta float64, txn models.BankTransaction, reference *string) (*models.BankTransaction, float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	account, err := s.lockAccount(tx, accountID, caller)
	if err != nil {
		return nil, 0, err
	}

	newBalance := account.Balance + delta
	if newBalance < 0 {
		return nil, 0, ErrInsufficientBalance
	}

	if err := s.updateBalance(tx, account.ID, newBalance, account.Version); err != nil {
		return nil, 0, err
	}

	txn.BankAccountID = accountID
	txn.Reference = referenceOr(reference)
	txn.Status = models.TxCompleted
	txn.Tenant = movementTenant(caller)
	if err := s.insertTransaction(tx, &txn); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return &txn, newBalance, nil
}

func (s *BankingService) lockAccount(tx *sql.Tx, id int64, caller *models.Identity) (*models.BankAccount, error) {
	query := `SELECT id, balance, version FROM bank_accounts WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}
	query += ` FOR UPDATE`

	var account models.BankAccount
	err := tx.QueryRow(query, args...).Scan(&account.ID, &account.Balance, &account.Version)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *BankingService) updateBalance(tx *sql.Tx, accountID int64, newBalance float64, version int) error {
	result, err := tx.Exec(
		`UPDATE bank_accounts SET balance = $1, version = version + 1, updated_at = NOW() WHERE id = $2 AND version = $3`,
		newBalance, accountID, version)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("optimistic lock failed for account %d", accountID)
	}
	return nil
}

func (s *BankingService) insertTransaction(tx *sql.Tx, txn *models.BankTransaction) error {
	return tx.QueryRow(
		`INSERT INTO transactions_bank (bank_account_id, transaction_type, amount, from_account_id,
			to_account_id, cheque_number, description, reference, status, tenant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		txn.BankAccountID, txn.TransactionType, txn.Amount, txn.FromAccountID, txn.ToAccountID,
		txn.ChequeNumber, txn.Description, txn.Reference, txn.Status, txn.Tenant,
	).Scan(&txn.ID, &txn.CreatedAt)
}

func (s *BankingService) sendMovementError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
	case errors.Is(err, ErrInsufficientBalance):
		SendErrorResponse(w, "Insufficient balance", http.StatusBadRequest, nil)
	default:
		log.Printf("[BANK] %s: %v", action, err)
		SendErrorResponse(w, action, http.StatusInternalServerError, nil)
	}
}

func referenceOr(ref *string) string {
	if ref != nil && *ref != "" {
		return *ref
	}
	return uuid.NewString()
}

// movementTenant tags transaction rows with the caller's tenant; admins
// write untagged rows, matching their cross-tenant visibility.
func movementTenant(caller *models.Identity) *models.Tenant {
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		return &tenant
	}
	return nil
}

// ==================== TRANSACTION QUERIES ====================

// ListTransactions returns all visible transactions, newest first
// @Summary List bank transactions
// @Tags daybank
// @Produce json
// @Success 200 {object} map[string]any "Transactions retrieved"
// @Router /daybank/transactions/list [get]
func (s *BankingService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())
	s.respondTransactions(w, r, "Transactions retrieved successfully", nil, caller)
}

// TransactionsByAccount returns movements touching one account
// @Summary List transactions for an account
// @Tags daybank
// @Produce json
// @Param account_id path int true "Account ID"
// @Success 200 {object} map[string]any "Transactions retrieved"
// @Router /daybank/transactions/account/{account_id} [get]
func (s *BankingService) TransactionsByAccount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	accountID, err := pathID(r, "account_id")
	if err != nil {
		SendErrorResponse(w, "account_id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	cond := condition{clause: "bank_account_id = $%d", value: accountID}
	s.respondTransactions(w, r, "Transactions retrieved successfully", []condition{cond}, caller)
}

// TransactionsByType returns movements of one transaction type
// @Summary List transactions by type
// @Tags daybank
// @Produce json
// @Param type path string true "deposit, withdraw, transfer or cheque"
// @Success 200 {object} map[string]any "Transactions retrieved"
// @Failure 400 {object} ErrorResponse "Unknown type"
// @Router /daybank/transactions/type/{type} [get]
func (s *BankingService) TransactionsByType(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	txType := models.BankTransactionType(chi.URLParam(r, "type"))
	if !txType.Valid() {
		SendErrorResponse(w, "Invalid transaction type. Must be one of: deposit, withdraw, transfer, cheque", http.StatusBadRequest, nil)
		return
	}

	cond := condition{clause: "transaction_type = $%d", value: string(txType)}
	s.respondTransactions(w, r, fmt.Sprintf("%s transactions retrieved successfully", txType), []condition{cond}, caller)
}

// TransactionsByDateRange returns movements inside a closed date window
// @Summary List transactions by date range
// @Tags daybank
// @Produce json
// @Param start_date query string true "Window start (YYYY-MM-DD)"
// @Param end_date query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} map[string]any "Transactions retrieved"
// @Failure 400 {object} ErrorResponse "Missing or invalid dates"
// @Router /daybank/transactions/date-range [get]
func (s *BankingService) TransactionsByDateRange(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	startRaw := r.URL.Query().Get("start_date")
	endRaw := r.URL.Query().Get("end_date")
	if startRaw == "" || endRaw == "" {
		SendErrorResponse(w, "Both start_date and end_date are required", http.StatusBadRequest, nil)
		return
	}

	start, err := parseDate(startRaw)
	if err != nil {
		SendErrorResponse(w, "start_date must be a valid date (YYYY-MM-DD)", http.StatusBadRequest, nil)
		return
	}
	end, err := parseEndDate(endRaw)
	if err != nil {
		SendErrorResponse(w, "end_date must be a valid date (YYYY-MM-DD)", http.StatusBadRequest, nil)
		return
	}

	conds := []condition{
		{clause: "created_at >= $%d", value: start},
		{clause: "created_at < $%d", value: end},
	}
	s.respondTransactions(w, r, "Transactions retrieved successfully", conds, caller)
}

// GetTransaction returns one transaction under the caller's tenant scope
// @Summary Get a bank transaction
// @Tags daybank
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} map[string]any "Transaction retrieved"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Router /daybank/transactions/{id} [get]
func (s *BankingService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		SendErrorResponse(w, "id must be a valid number", http.StatusBadRequest, nil)
		return
	}

	query := `SELECT ` + bankTransactionColumns + ` FROM transactions_bank WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}

	txn, err := scanBankTransaction(s.db.QueryRowContext(r.Context(), query, args...))
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[BANK] Transaction fetch failed: %v", err)
		SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		return
	}

	SendData(w, http.StatusOK, "Transaction retrieved successfully", txn)
}

type condition struct {
	clause string
	value  any
}

func (s *BankingService) respondTransactions(w http.ResponseWriter, r *http.Request, message string, extra []condition, caller *models.Identity) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if tenant, scoped := middleware.TenantScope(caller); scoped {
		add("tenant = $%d", tenant)
	}
	for _, c := range extra {
		add(c.clause, c.value)
	}

	query := `SELECT ` + bankTransactionColumns + ` FROM transactions_bank`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("[BANK] Transaction listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.BankTransaction{}
	for rows.Next() {
		txn, err := scanBankTransaction(rows)
		if err != nil {
			log.Printf("[BANK] Transaction scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, *txn)
	}

	SendData(w, http.StatusOK, message, transactions)
}

func (s *BankingService) getAccount(ctx context.Context, id int64, caller *models.Identity) (*models.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`
	args := []any{id}
	if tenant, scoped := middleware.TenantScope(caller); scoped {
		query += ` AND tenant = $2`
		args = append(args, tenant)
	}
	return scanBankAccount(s.db.QueryRowContext(ctx, query, args...))
}

func scanBankAccount(row rowScanner) (*models.BankAccount, error) {
	var account models.BankAccount
	var accountNumber, ifsc, branch, tenant sql.NullString

	err := row.Scan(&account.ID, &account.BankName, &account.AccountName, &account.Shortform,
		&accountNumber, &ifsc, &branch, &account.Balance, &account.Version, &tenant,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if accountNumber.Valid {
		account.AccountNumber = &accountNumber.String
	}
	if ifsc.Valid {
		account.IFSC = &ifsc.String
	}
	if branch.Valid {
		account.Branch = &branch.String
	}
	if tenant.Valid {
		t := models.Tenant(tenant.String)
		account.Tenant = &t
	}
	return &account, nil
}

func scanBankTransaction(row rowScanner) (*models.BankTransaction, error) {
	var txn models.BankTransaction
	var fromID, toID sql.NullInt64
	var chequeNumber, description, tenant sql.NullString

	err := row.Scan(&txn.ID, &txn.BankAccountID, &txn.TransactionType, &txn.Amount,
		&fromID, &toID, &chequeNumber, &description, &txn.Reference, &txn.Status,
		&tenant, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	if fromID.Valid {
		txn.FromAccountID = &fromID.Int64
	}
	if toID.Valid {
		txn.ToAccountID = &toID.Int64
	}
	if chequeNumber.Valid {
		txn.ChequeNumber = &chequeNumber.String
	}
	if description.Valid {
		txn.Description = &description.String
	}
	if tenant.Valid {
		t := models.Tenant(tenant.String)
		txn.Tenant = &t
	}
	return &txn, nil
}
