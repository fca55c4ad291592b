package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

const billColumns = `id, user_id, account_id, period_start, period_end,
	generation_date, due_date, amount, minimum_payment, previous_balance,
	new_charges, payments_credits, interest_charged, late_fees,
	transaction_count, paid, paid_amount, paid_date, status, notes,
	created_at, updated_at`

// CreateBill inserts a bill. The unique constraint on (account, period)
// makes generation idempotent under concurrency; a violation surfaces as a
// conflict for the caller to resolve by refetching.
func (s *Store) CreateBill(ctx context.Context, b *domain.CreditCardBill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_card_bills (id, user_id, account_id, period_start,
			period_end, generation_date, due_date, amount, minimum_payment,
			previous_balance, new_charges, payments_credits, interest_charged,
			late_fees, transaction_count, paid, paid_amount, paid_date, status,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`,
		b.ID, b.UserID, b.AccountID, b.PeriodStart, b.PeriodEnd,
		b.GenerationDate, b.DueDate, b.Amount, b.MinimumPayment,
		b.PreviousBalance, b.NewCharges, b.PaymentsCredits, b.InterestCharged,
		b.LateFees, b.TransactionCount, b.Paid, b.PaidAmount, b.PaidDate,
		b.Status, b.Notes, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "bill already exists for this period"}
		}
		return err
	}
	return nil
}

// GetBill fetches one bill scoped to the owning user.
func (s *Store) GetBill(ctx context.Context, userID, billID string) (*domain.CreditCardBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM credit_card_bills WHERE id = $1 AND user_id = $2`, billID, userID)

	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	return b, err
}

// GetBillByPeriod fetches the bill for an exact (account, period) pair.
func (s *Store) GetBillByPeriod(ctx context.Context, accountID string, periodStart, periodEnd time.Time) (*domain.CreditCardBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM credit_card_bills
		WHERE account_id = $1 AND period_start = $2 AND period_end = $3`,
		accountID, periodStart, periodEnd)

	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: accountID}
	}
	return b, err
}

// GetLatestBillBefore returns the most recent bill whose period ends at or
// before the given time.
func (s *Store) GetLatestBillBefore(ctx context.Context, accountID string, periodEnd time.Time) (*domain.CreditCardBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM credit_card_bills
		WHERE account_id = $1 AND period_end <= $2
		ORDER BY period_end DESC LIMIT 1`, accountID, periodEnd)

	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: accountID}
	}
	return b, err
}

// billSortColumns whitelists sortable columns; arbitrary input never reaches
// the ORDER BY clause.
var billSortColumns = map[string]string{
	"generation_date": "generation_date",
	"due_date":        "due_date",
	"amount":          "amount",
}

// ListBills returns bills matching the filter.
func (s *Store) ListBills(ctx context.Context, userID string, f domain.BillFilter) ([]domain.CreditCardBill, error) {
	query := `SELECT ` + billColumns + ` FROM credit_card_bills WHERE user_id = $1`
	args := []interface{}{userID}

	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND generation_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND generation_date < $%d", len(args))
	}
	if f.MinAmount > 0 {
		args = append(args, f.MinAmount)
		query += fmt.Sprintf(" AND amount >= $%d", len(args))
	}
	if f.MaxAmount > 0 {
		args = append(args, f.MaxAmount)
		query += fmt.Sprintf(" AND amount <= $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND notes ILIKE $%d", len(args))
	}

	sortCol, ok := billSortColumns[f.SortBy]
	if !ok {
		sortCol = "generation_date"
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortCol, direction)

	if f.PageSize > 0 {
		args = append(args, f.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if f.Page > 1 {
			args = append(args, (f.Page-1)*f.PageSize)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]domain.CreditCardBill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

// UpdateBill rewrites the mutable payment and status fields.
func (s *Store) UpdateBill(ctx context.Context, b *domain.CreditCardBill) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credit_card_bills SET paid = $1, paid_amount = $2,
			paid_date = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`,
		b.Paid, b.PaidAmount, b.PaidDate, b.Status, b.Notes,
		time.Now().UTC(), b.ID, b.UserID)
	if err != nil {
		return err
	}
	return requireRow(res, "bill", b.ID)
}

func scanBill(row rowScanner) (*domain.CreditCardBill, error) {
	var b domain.CreditCardBill
	var paidDate sql.NullTime

	err := row.Scan(&b.ID, &b.UserID, &b.AccountID, &b.PeriodStart,
		&b.PeriodEnd, &b.GenerationDate, &b.DueDate, &b.Amount,
		&b.MinimumPayment, &b.PreviousBalance, &b.NewCharges,
		&b.PaymentsCredits, &b.InterestCharged, &b.LateFees,
		&b.TransactionCount, &b.Paid, &b.PaidAmount, &paidDate, &b.Status,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidDate.Valid {
		b.PaidDate = &paidDate.Time
	}
	return &b, nil
}
