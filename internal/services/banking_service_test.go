package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/dayledger/backend/internal/models"
)

func bankAccountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "bank_name", "account_name", "shortform", "account_number",
		"ifsc", "branch", "balance", "version", "tenant", "created_at", "updated_at"})
}

func bankTransactionTestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "bank_account_id", "transaction_type", "amount",
		"from_account_id", "to_account_id", "cheque_number", "description", "reference",
		"status", "tenant", "created_at"})
}

func TestBankingService_CreateAccount(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("successful creation", func(t *testing.T) {
		dbMock.ExpectQuery("INSERT INTO bank_accounts").
			WithArgs("State Bank", "Operations", "SB-OPS", nil, nil, nil, 0.0, 1, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(1, time.Now(), time.Now()))

		body, _ := json.Marshal(map[string]any{
			"bank_name":    "State Bank",
			"account_name": "Operations",
			"shortform":    "SB-OPS",
		})
		r := asCaller(httptest.NewRequest("POST", "/daybank/accounts/create", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing shortform is rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"bank_name":    "State Bank",
			"account_name": "Operations",
		})
		r := asCaller(httptest.NewRequest("POST", "/daybank/accounts/create", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown tenant is rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"bank_name":    "State Bank",
			"account_name": "Operations",
			"shortform":    "SB-OPS",
			"tenant":       "SomeoneElse",
		})
		r := asCaller(httptest.NewRequest("POST", "/daybank/accounts/create", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBankingService_Deposit(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("credits the account atomically", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 1000.0, 3))
		dbMock.ExpectExec(`UPDATE bank_accounts SET balance = \$1, version = version \+ 1, updated_at = NOW\(\) WHERE id = \$2 AND version = \$3`).
			WithArgs(1500.0, int64(1), 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions_bank").
			WithArgs(int64(1), "deposit", 500.0, nil, nil, nil, nil, sqlmock.AnyArg(), "completed", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, time.Now()))
		dbMock.ExpectCommit()

		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": 500.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/deposit", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Deposit(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data struct {
				NewBalance  float64                `json:"newBalance"`
				Transaction models.BankTransaction `json:"transaction"`
			} `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1500.0, resp.Data.NewBalance)
		assert.Equal(t, models.TxDeposit, resp.Data.Transaction.TransactionType)
		assert.Equal(t, models.TxCompleted, resp.Data.Transaction.Status)
		assert.NotEmpty(t, resp.Data.Transaction.Reference)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("account outside the caller tenant is not found", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 AND tenant = \$2 FOR UPDATE`).
			WithArgs(int64(5), "Dearcare").
			WillReturnError(sql.ErrNoRows)
		dbMock.ExpectRollback()

		body, _ := json.Marshal(map[string]any{"account_id": 5, "amount": 500.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/deposit", bytes.NewBuffer(body)), staffCaller)
		w := httptest.NewRecorder()

		service.Deposit(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": -20.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/deposit", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Deposit(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBankingService_Withdraw(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("insufficient balance rolls back without writes", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 100.0, 1))
		dbMock.ExpectRollback()

		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": 500.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/withdraw", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Withdraw(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("debits the account atomically", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 1000.0, 4))
		dbMock.ExpectExec(`UPDATE bank_accounts SET balance = \$1`).
			WithArgs(600.0, int64(1), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions_bank").
			WithArgs(int64(1), "withdraw", 400.0, nil, nil, nil, nil, sqlmock.AnyArg(), "completed", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, time.Now()))
		dbMock.ExpectCommit()

		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": 400.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/withdraw", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Withdraw(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestBankingService_Transfer(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("locks rows in ascending id order and conserves total balance", func(t *testing.T) {
		// Transfer 300 from account 2 to account 1; account 1 locks first.
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 200.0, 1))
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(2, 1000.0, 5))
		dbMock.ExpectExec(`UPDATE bank_accounts SET balance = \$1`).
			WithArgs(700.0, int64(2), 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(`UPDATE bank_accounts SET balance = \$1`).
			WithArgs(500.0, int64(1), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions_bank").
			WithArgs(int64(2), "transfer", 300.0, int64(2), int64(1), nil, nil, sqlmock.AnyArg(), "completed", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, time.Now()))
		dbMock.ExpectCommit()

		body, _ := json.Marshal(map[string]any{"from_account_id": 2, "to_account_id": 1, "amount": 300.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/transfer", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Transfer(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data struct {
				FromBalance float64 `json:"fromBalance"`
				ToBalance   float64 `json:"toBalance"`
			} `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 700.0, resp.Data.FromBalance)
		assert.Equal(t, 500.0, resp.Data.ToBalance)
		assert.Equal(t, 1000.0+200.0, resp.Data.FromBalance+resp.Data.ToBalance)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("same account transfer is rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"from_account_id": 1, "to_account_id": 1, "amount": 300.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/transfer", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Transfer(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("insufficient source balance rolls back both accounts", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 100.0, 1))
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(2, 50.0, 1))
		dbMock.ExpectRollback()

		body, _ := json.Marshal(map[string]any{"from_account_id": 1, "to_account_id": 2, "amount": 300.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/transfer", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Transfer(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestBankingService_Cheque(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("missing cheque number is rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": 750.0})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/cheque", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Cheque(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("records the cheque as a completed debit", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`SELECT id, balance, version FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version"}).AddRow(1, 1000.0, 2))
		dbMock.ExpectExec(`UPDATE bank_accounts SET balance = \$1`).
			WithArgs(250.0, int64(1), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectQuery("INSERT INTO transactions_bank").
			WithArgs(int64(1), "cheque", 750.0, nil, nil, "000451", nil, sqlmock.AnyArg(), "completed", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(13, time.Now()))
		dbMock.ExpectCommit()

		body, _ := json.Marshal(map[string]any{"account_id": 1, "amount": 750.0, "cheque_number": "000451"})
		r := asCaller(httptest.NewRequest("POST", "/daybank/transactions/cheque", bytes.NewBuffer(body)), adminCaller)
		w := httptest.NewRecorder()

		service.Cheque(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data struct {
				Transaction models.BankTransaction `json:"transaction"`
			} `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, models.TxCompleted, resp.Data.Transaction.Status)
		assert.NotNil(t, resp.Data.Transaction.ChequeNumber)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestBankingService_TransactionQueries(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	t.Run("staff listing is tenant scoped", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM transactions_bank WHERE tenant = \$1 ORDER BY created_at DESC`).
			WithArgs("Dearcare").
			WillReturnRows(bankTransactionTestRows().
				AddRow(1, 1, "deposit", 500.0, nil, nil, nil, nil, "ref-1", "completed", "Dearcare", time.Now()))

		r := asCaller(httptest.NewRequest("GET", "/daybank/transactions/list", nil), staffCaller)
		w := httptest.NewRecorder()

		service.ListTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("by account", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM transactions_bank WHERE bank_account_id = \$1 ORDER BY created_at DESC`).
			WithArgs(int64(3)).
			WillReturnRows(bankTransactionTestRows())

		r := asCaller(httptest.NewRequest("GET", "/daybank/transactions/account/3", nil), adminCaller)
		r = withURLParam(r, "account_id", "3")
		w := httptest.NewRecorder()

		service.TransactionsByAccount(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		r := asCaller(httptest.NewRequest("GET", "/daybank/transactions/type/cash", nil), adminCaller)
		r = withURLParam(r, "type", "cash")
		w := httptest.NewRecorder()

		service.TransactionsByType(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("date range requires both bounds", func(t *testing.T) {
		r := asCaller(httptest.NewRequest("GET", "/daybank/transactions/date-range?start_date=2026-01-01", nil), adminCaller)
		w := httptest.NewRecorder()

		service.TransactionsByDateRange(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("date range covers the whole end day", func(t *testing.T) {
		// end_date=2026-01-31 must bound at the following midnight so
		// movements recorded during Jan 31 are included.
		dbMock.ExpectQuery(`FROM transactions_bank WHERE created_at >= \$1 AND created_at < \$2 ORDER BY created_at DESC`).
			WithArgs(
				time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			).
			WillReturnRows(bankTransactionTestRows())

		r := asCaller(httptest.NewRequest("GET", "/daybank/transactions/date-range?start_date=2026-01-01&end_date=2026-01-31", nil), adminCaller)
		w := httptest.NewRecorder()

		service.TransactionsByDateRange(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestBankingService_GetBalance(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	dbMock.ExpectQuery(`FROM bank_accounts WHERE id = \$1 AND tenant = \$2`).
		WithArgs(int64(1), "Dearcare").
		WillReturnRows(bankAccountRows().
			AddRow(1, "State Bank", "Operations", "SB-OPS", nil, nil, nil, 1500.0, 3, "Dearcare", time.Now(), time.Now()))

	r := asCaller(httptest.NewRequest("GET", "/daybank/accounts/1/balance", nil), staffCaller)
	r = withURLParam(r, "id", "1")
	w := httptest.NewRecorder()

	service.GetBalance(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Balance float64 `json:"balance"`
		} `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1500.0, resp.Data.Balance)
}

func TestBankingService_AccountQR(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewBankingService(db, nil)

	dbMock.ExpectQuery(`FROM bank_accounts WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(bankAccountRows().
			AddRow(1, "State Bank", "Operations", "SB-OPS", "1234567890", "SBIN0001234", nil, 1500.0, 3, nil, time.Now(), time.Now()))

	r := asCaller(httptest.NewRequest("GET", "/daybank/accounts/1/qr", nil), adminCaller)
	r = withURLParam(r, "id", "1")
	w := httptest.NewRecorder()

	service.AccountQR(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			QRImage string `json:"qr_image"`
		} `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Data.QRImage)
}
