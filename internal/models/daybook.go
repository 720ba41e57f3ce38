package models

import "time"

type PayType string

const (
	PayIncoming PayType = "incoming"
	PayOutgoing PayType = "outgoing"
)

func (p PayType) Valid() bool {
	return p == PayIncoming || p == PayOutgoing
}

type PayStatus string

const (
	StatusPaid   PayStatus = "paid"
	StatusUnpaid PayStatus = "un_paid"
)

func (s PayStatus) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid
}

type ModeOfPay string

const (
	ModeCash            ModeOfPay = "cash"
	ModeUPI             ModeOfPay = "upi"
	ModeAccountTransfer ModeOfPay = "account_transfer"
)

func (m ModeOfPay) Valid() bool {
	switch m {
	case ModeCash, ModeUPI, ModeAccountTransfer:
		return true
	}
	return false
}

// PaymentTypeSpecific narrows a payment beyond incoming/outgoing.
type PaymentTypeSpecific string

const (
	ClientPaymentReceived PaymentTypeSpecific = "client_payment_received"
	NurseSalaryPaid       PaymentTypeSpecific = "nurse_salary_paid"
	OfficeExpensesPaid    PaymentTypeSpecific = "office_expenses_paid"
	StudentFeeReceived    PaymentTypeSpecific = "student_fee_received"
)

func (p PaymentTypeSpecific) Valid() bool {
	switch p {
	case ClientPaymentReceived, NurseSalaryPaid, OfficeExpensesPaid, StudentFeeReceived:
		return true
	}
	return false
}

// DayBookEntry is one row of the tenant-scoped payment ledger. Exactly one of
// NurseID (outgoing) or ClientID (incoming) may be populated; the service
// drops whichever does not match PaymentType.
type DayBookEntry struct {
	ID                  int64                `json:"id" db:"id"`
	CreatedAt           time.Time            `json:"created_at" db:"created_at"`
	Amount              float64              `json:"amount" db:"amount"`
	PaymentType         PayType              `json:"payment_type" db:"payment_type"`
	PayStatus           PayStatus            `json:"pay_status" db:"pay_status"`
	ModeOfPay           *ModeOfPay           `json:"mode_of_pay,omitempty" db:"mode_of_pay"`
	Description         *string              `json:"description,omitempty" db:"description"`
	PaymentTypeSpecific *PaymentTypeSpecific `json:"payment_type_specific,omitempty" db:"payment_type_specific"`
	PaymentDescription  *string              `json:"payment_description,omitempty" db:"payment_description"`
	Receipt             *string              `json:"receipt,omitempty" db:"receipt"`
	NurseID             *string              `json:"nurse_id,omitempty" db:"nurse_id"`
	ClientID            *string              `json:"client_id,omitempty" db:"client_id"`
	Tenant              Tenant               `json:"tenant" db:"tenant"`
	NurseSal            *int64               `json:"nurse_sal,omitempty" db:"nurse_sal"`
}

// PersonalEntry is the individual ledger variant; tenant is always Personal.
type PersonalEntry struct {
	ID          int64     `json:"id" db:"id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UserID      string    `json:"user_id" db:"user_id"`
	PayType     PayType   `json:"paytype" db:"paytype"`
	Amount      float64   `json:"amount" db:"amount"`
	Description *string   `json:"description,omitempty" db:"description"`
}

// PaymentSummary partitions entry amounts by pay status.
type PaymentSummary struct {
	TotalPaidAmount     float64 `json:"total_paid_amount"`
	TotalPendingAmount  float64 `json:"total_pending_amount"`
	TotalEntries        int64   `json:"total_entries"`
	PaidEntriesCount    int64   `json:"paid_entries_count"`
	PendingEntriesCount int64   `json:"pending_entries_count"`
}

// NetRevenue partitions paid entry amounts by payment direction.
type NetRevenue struct {
	TotalIncoming float64 `json:"total_incoming"`
	TotalOutgoing float64 `json:"total_outgoing"`
	IncomingCount int64   `json:"incoming_count"`
	OutgoingCount int64   `json:"outgoing_count"`
	NetRevenue    float64 `json:"net_revenue"`
	IsProfit      bool    `json:"is_profit"`
}

// PersonalBalance is the personal-ledger aggregate over an optional window.
type PersonalBalance struct {
	TotalIncoming float64 `json:"total_incoming"`
	TotalOutgoing float64 `json:"total_outgoing"`
	NetBalance    float64 `json:"net_balance"`
	IncomingCount int64   `json:"incoming_count"`
	OutgoingCount int64   `json:"outgoing_count"`
	TotalEntries  int64   `json:"total_entries"`
}
