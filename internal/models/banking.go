package models

import "time"

type BankTransactionType string

const (
	TxDeposit  BankTransactionType = "deposit"
	TxWithdraw BankTransactionType = "withdraw"
	TxTransfer BankTransactionType = "transfer"
	TxCheque   BankTransactionType = "cheque"
)

func (t BankTransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdraw, TxTransfer, TxCheque:
		return true
	}
	return false
}

type BankTransactionStatus string

const (
	TxCompleted BankTransactionStatus = "completed"
	TxPending   BankTransactionStatus = "pending"
	TxFailed    BankTransactionStatus = "failed"
)

// BankAccount is an entry in the account registry. Balance is denormalized;
// it is updated only inside the same database transaction that records the
// movement, guarded by Version.
type BankAccount struct {
	ID            int64     `json:"id" db:"id"`
	BankName      string    `json:"bank_name" db:"bank_name"`
	AccountName   string    `json:"account_name" db:"account_name"`
	Shortform     string    `json:"shortform" db:"shortform"`
	AccountNumber *string   `json:"account_number,omitempty" db:"account_number"`
	IFSC          *string   `json:"ifsc,omitempty" db:"ifsc"`
	Branch        *string   `json:"branch,omitempty" db:"branch"`
	Balance       float64   `json:"balance" db:"balance"`
	Version       int       `json:"-" db:"version"`
	Tenant        *Tenant   `json:"tenant,omitempty" db:"tenant"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BankTransaction is an append-only movement record. Rows are never updated
// after insert.
type BankTransaction struct {
	ID              int64                 `json:"id" db:"id"`
	BankAccountID   int64                 `json:"bank_account_id" db:"bank_account_id"`
	TransactionType BankTransactionType   `json:"transaction_type" db:"transaction_type"`
	Amount          float64               `json:"amount" db:"amount"`
	FromAccountID   *int64                `json:"from_account_id,omitempty" db:"from_account_id"`
	ToAccountID     *int64                `json:"to_account_id,omitempty" db:"to_account_id"`
	ChequeNumber    *string               `json:"cheque_number,omitempty" db:"cheque_number"`
	Description     *string               `json:"description,omitempty" db:"description"`
	Reference       string                `json:"reference" db:"reference"`
	Status          BankTransactionStatus `json:"status" db:"status"`
	Tenant          *Tenant               `json:"tenant,omitempty" db:"tenant"`
	CreatedAt       time.Time             `json:"created_at" db:"created_at"`
}
