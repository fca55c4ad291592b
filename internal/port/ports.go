// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations: the Postgres store is one adapter,
// test fakes are another.
package port

import (
	"context"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

// AccountRepository persists accounts. Balance columns are written only by
// the TransactionRepository's atomic ledger operations.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account *domain.Account) error
	// DeleteAccount fails with *domain.ErrConflict while transactions still
	// reference the account.
	DeleteAccount(ctx context.Context, userID, accountID string) error
	SetCurrentBillPaid(ctx context.Context, accountID string, paid bool) error
}

// TransactionRepository persists transactions. Every mutating operation
// applies the implied balance deltas to the referenced accounts inside one
// database transaction; a partial application is never observable.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
	// ListAccountPeriod returns completed transactions for an account within
	// [start, end), ordered by date.
	ListAccountPeriod(ctx context.Context, accountID string, start, end time.Time) ([]domain.Transaction, error)
	// UpdateTransaction reverses the stored row's deltas, applies the new
	// row's deltas and writes the row, atomically.
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, txID string) error
	// BulkDeleteTransactions deletes the whole id set or nothing; if any id
	// is missing under the caller's ownership it fails without mutating.
	BulkDeleteTransactions(ctx context.Context, userID string, ids []string) (int, error)
	AccountHasTransactions(ctx context.Context, accountID string) (bool, error)
}

// BillRepository persists credit-card bills. CreateBill surfaces the
// storage-level uniqueness constraint on (account, period_start, period_end)
// as *domain.ErrConflict; that constraint, not the application pre-check, is
// the bill-deduplication source of truth.
type BillRepository interface {
	CreateBill(ctx context.Context, bill *domain.CreditCardBill) error
	GetBill(ctx context.Context, userID, billID string) (*domain.CreditCardBill, error)
	GetBillByPeriod(ctx context.Context, accountID string, periodStart, periodEnd time.Time) (*domain.CreditCardBill, error)
	// GetLatestBillBefore returns the most recent bill for the account whose
	// period ends at or before the given time, or ErrNotFound.
	GetLatestBillBefore(ctx context.Context, accountID string, periodEnd time.Time) (*domain.CreditCardBill, error)
	ListBills(ctx context.Context, userID string, filter domain.BillFilter) ([]domain.CreditCardBill, error)
	UpdateBill(ctx context.Context, bill *domain.CreditCardBill) error
}

// CategoryRepository persists categories; (user, name, type) uniqueness is
// surfaced as *domain.ErrConflict.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// ImportRepository persists CSV import jobs.
type ImportRepository interface {
	CreateImport(ctx context.Context, job *domain.ImportJob) error
	GetImport(ctx context.Context, userID, importID string) (*domain.ImportJob, error)
	ListImports(ctx context.Context, userID string) ([]domain.ImportJob, error)
	UpdateImport(ctx context.Context, job *domain.ImportJob) error
	DeleteImport(ctx context.Context, userID, importID string) error
}

// RateFetcher performs one external exchange-rate lookup. Implementations
// bound the call with a timeout; retries and fallbacks live in the resolver.
type RateFetcher interface {
	FetchRate(ctx context.Context, base, target string) (float64, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
