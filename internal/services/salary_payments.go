package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// SalaryPayments is the external salary-payment aggregate a day book entry
// can reference through nurse_sal. Marking one paid is a best-effort side
// update after the primary entry update; MarkPaid is idempotent.
type SalaryPayments interface {
	MarkPaid(ctx context.Context, salaryID int64, receiptURL *string) error
}

type salaryPaymentsStore struct {
	db *sql.DB
}

func NewSalaryPayments(db *sql.DB) SalaryPayments {
	return &salaryPaymentsStore{db: db}
}

func (s *salaryPaymentsStore) MarkPaid(ctx context.Context, salaryID int64, receiptURL *string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE salary_payments SET payment_status = 'paid', salary_receipt = COALESCE($2, salary_receipt) WHERE id = $1`,
		salaryID, receiptURL)
	if err != nil {
		return fmt.Errorf("failed to update salary payment %d: %w", salaryID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("salary payment %d not found", salaryID)
	}

	log.Printf("[DAYBOOK] Salary payment %d marked paid", salaryID)
	return nil
}
