package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

const accountColumns = `id, user_id, name, type, currency, balance,
	credit_limit, bill_generation_day, payment_due_day, interest_rate,
	min_payment_rate, current_bill_paid, created_at, updated_at`

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	cl, genDay, dueDay, ir, mpr, paid := creditCardColumns(a)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, currency, balance,
			credit_limit, bill_generation_day, payment_due_day, interest_rate,
			min_payment_rate, current_bill_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.UserID, a.Name, a.Type, a.Currency, a.Balance,
		cl, genDay, dueDay, ir, mpr, paid, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "account already exists"}
		}
		return err
	}
	return nil
}

// GetAccount fetches one account scoped to the owning user.
func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return a, err
}

// ListAccounts returns all accounts for the user ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccount rewrites mutable account fields. Balance is untouched; only
// the ledger operations write it.
func (s *Store) UpdateAccount(ctx context.Context, a *domain.Account) error {
	cl, genDay, dueDay, ir, mpr, paid := creditCardColumns(a)

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = $1, type = $2, currency = $3,
			credit_limit = $4, bill_generation_day = $5, payment_due_day = $6,
			interest_rate = $7, min_payment_rate = $8, current_bill_paid = $9,
			updated_at = $10
		WHERE id = $11 AND user_id = $12`,
		a.Name, a.Type, a.Currency, cl, genDay, dueDay, ir, mpr, paid,
		time.Now().UTC(), a.ID, a.UserID)
	if err != nil {
		return err
	}
	return requireRow(res, "account", a.ID)
}

// DeleteAccount removes an account. A foreign key violation means
// transactions still reference it, surfaced as a conflict.
func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.ErrConflict{Message: "account has transactions and cannot be deleted"}
		}
		return err
	}
	return requireRow(res, "account", accountID)
}

// SetCurrentBillPaid flips the credit-card paid flag.
func (s *Store) SetCurrentBillPaid(ctx context.Context, accountID string, paid bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET current_bill_paid = $1, updated_at = $2
		WHERE id = $3 AND type = 'credit-card'`,
		paid, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRow(res, "account", accountID)
}

func creditCardColumns(a *domain.Account) (cl, genDay, dueDay, ir, mpr, paid interface{}) {
	if a.CreditCard == nil {
		return nil, nil, nil, nil, nil, nil
	}
	cc := a.CreditCard
	return cc.CreditLimit, cc.BillGenerationDay, cc.PaymentDueDay,
		cc.InterestRate, cc.MinPaymentRate, cc.CurrentBillPaid
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var cl sql.NullInt64
	var genDay, dueDay sql.NullInt64
	var ir, mpr sql.NullFloat64
	var paid sql.NullBool

	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &a.Balance,
		&cl, &genDay, &dueDay, &ir, &mpr, &paid, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if a.Type == domain.AccountCreditCard && genDay.Valid {
		a.CreditCard = &domain.CreditCardSettings{
			CreditLimit:       cl.Int64,
			BillGenerationDay: int(genDay.Int64),
			PaymentDueDay:     int(dueDay.Int64),
			InterestRate:      ir.Float64,
			MinPaymentRate:    mpr.Float64,
			CurrentBillPaid:   paid.Bool,
		}
	}
	return &a, nil
}

func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}
