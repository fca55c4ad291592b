package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

const transactionColumns = `id, user_id, account_id, to_account_id, category_id,
	type, amount, date, payee, notes, status, created_at, updated_at`

// CreateTransaction inserts the row and applies its balance deltas in one
// database transaction.
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, account_id, to_account_id,
				category_id, type, amount, date, payee, notes, status,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.ID, t.UserID, t.AccountID, nullString(t.ToAccountID),
			nullString(t.CategoryID), t.Type, t.Amount, t.Date, t.Payee,
			t.Notes, t.Status, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return err
		}
		return applyDeltas(ctx, tx, t.Deltas())
	})
}

// GetTransaction fetches one transaction scoped to the owning user.
func (s *Store) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = $1 AND user_id = $2`, txID, userID)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return t, err
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []interface{}{userID}

	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(" AND (account_id = $%d OR to_account_id = $%d)", len(args), len(args))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND date < $%d", len(args))
	}

	query += " ORDER BY date DESC, created_at DESC"
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

	return collectTransactions(rows)
}

// ListAccountPeriod returns completed transactions for the account within
// [start, end), oldest first. This feeds the bill calculator.
func (s *Store) ListAccountPeriod(ctx context.Context, accountID string, start, end time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND status = 'completed'
			AND date >= $2 AND date < $3
		ORDER BY date`, accountID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateTransaction reverses the stored row's deltas, applies the new
// row's deltas and rewrites the row, all in one database transaction.
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+transactionColumns+`
			FROM transactions WHERE id = $1 AND user_id = $2
			FOR UPDATE`, t.ID, t.UserID)

		old, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "transaction", ID: t.ID}
		}
		if err != nil {
			return err
		}

		if err := applyDeltas(ctx, tx, negate(old.Deltas())); err != nil {
			return err
		}
		if err := applyDeltas(ctx, tx, t.Deltas()); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET account_id = $1, to_account_id = $2,
				category_id = $3, type = $4, amount = $5, date = $6,
				payee = $7, notes = $8, status = $9, updated_at = $10
			WHERE id = $11 AND user_id = $12`,
			t.AccountID, nullString(t.ToAccountID), nullString(t.CategoryID),
			t.Type, t.Amount, t.Date, t.Payee, t.Notes, t.Status,
			time.Now().UTC(), t.ID, t.UserID)
		return err
	})
}

// DeleteTransaction reverses the row's deltas and removes it atomically.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+transactionColumns+`
			FROM transactions WHERE id = $1 AND user_id = $2
			FOR UPDATE`, txID, userID)

		old, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "transaction", ID: txID}
		}
		if err != nil {
			return err
		}

		if err := applyDeltas(ctx, tx, negate(old.Deltas())); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = $1`, txID)
		return err
	})
}

// BulkDeleteTransactions deletes the whole id set or nothing. Any id that is
// missing under the caller's ownership aborts the operation before any
// mutation.
func (s *Store) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT `+transactionColumns+`
			FROM transactions WHERE user_id = $1 AND id = ANY($2)
			FOR UPDATE`, userID, pq.Array(ids))
		if err != nil {
			return err
		}
		found, err := collectTransactions(rows)
		rows.Close()
		if err != nil {
			return err
		}

		if len(found) != len(ids) {
			return &domain.ErrNotFound{Resource: "transactions", ID: "some transactions not found"}
		}

		for i := range found {
			if err := applyDeltas(ctx, tx, negate(found[i].Deltas())); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2)`,
			userID, pq.Array(ids))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		count = int(n)
		return err
	})
	return count, err
}

// AccountHasTransactions reports whether any transaction references the
// account on either leg.
func (s *Store) AccountHasTransactions(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1 OR to_account_id = $1
		)`, accountID).Scan(&exists)
	return exists, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func applyDeltas(ctx context.Context, tx *sql.Tx, deltas []domain.BalanceDelta) error {
	for _, d := range deltas {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance + $1, updated_at = $2
			WHERE id = $3`, d.Amount, time.Now().UTC(), d.AccountID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &domain.ErrNotFound{Resource: "account", ID: d.AccountID}
		}
	}
	return nil
}

func negate(deltas []domain.BalanceDelta) []domain.BalanceDelta {
	out := make([]domain.BalanceDelta, len(deltas))
	for i, d := range deltas {
		out[i] = domain.BalanceDelta{AccountID: d.AccountID, Amount: -d.Amount}
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var toAccount, category sql.NullString

	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &toAccount, &category,
		&t.Type, &t.Amount, &t.Date, &t.Payee, &t.Notes, &t.Status,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ToAccountID = toAccount.String
	t.CategoryID = category.String
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}
