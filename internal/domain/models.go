// Package domain defines the core business entities for the expense manager.
// These models are independent of the persistence layer and represent the
// canonical data structures used throughout the API.
package domain

import "time"

// Monetary amounts are integer minor units (cents) everywhere. Dates cross
// the wire as ISO-8601 strings and are parsed at the handler boundary.

// ============================================================
// Accounts
// ============================================================

// AccountType enumerates the supported account kinds.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit-card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash, AccountInvestment:
		return true
	}
	return false
}

// CreditCardSettings holds the billing configuration carried only by
// credit-card accounts.
type CreditCardSettings struct {
	CreditLimit       int64   `json:"credit_limit"`
	BillGenerationDay int     `json:"bill_generation_day"` // 1-31
	PaymentDueDay     int     `json:"payment_due_day"`     // 1-31 = day of month; >31 = offset in days after period end
	InterestRate      float64 `json:"interest_rate"`       // annual, e.g. 0.18
	MinPaymentRate    float64 `json:"min_payment_rate"`    // e.g. 0.05
	CurrentBillPaid   bool    `json:"current_bill_paid"`
}

// Account represents a user's financial account. Balance is mutated only by
// the transaction ledger path, never written directly by handlers.
type Account struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Name       string              `json:"name"`
	Type       AccountType         `json:"type"`
	Currency   string              `json:"currency"`
	Balance    int64               `json:"balance"`
	CreditCard *CreditCardSettings `json:"credit_card,omitempty"` // non-nil iff Type == credit-card
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// IsCreditCard reports whether the account is a credit card with billing
// configuration attached.
func (a *Account) IsCreditCard() bool {
	return a.Type == AccountCreditCard && a.CreditCard != nil
}

// ============================================================
// Categories
// ============================================================

// CategoryType is the direction a category applies to.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Category labels transactions. (user, name, type) is unique.
type Category struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// ============================================================
// Transactions
// ============================================================

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// TransactionStatus tracks the lifecycle of a transaction. Only completed
// transactions carry a balance effect.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a single ledger entry. Amount is always positive; the sign
// of the balance effect is implied by Type. A transfer carries ToAccountID
// and applies the opposite-signed delta to each leg.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	AccountID   string            `json:"account_id"`
	ToAccountID string            `json:"to_account_id,omitempty"` // transfer destination
	CategoryID  string            `json:"category_id,omitempty"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	Date        time.Time         `json:"date"`
	Payee       string            `json:"payee"`
	Notes       string            `json:"notes,omitempty"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// BalanceDelta is one account-level balance adjustment implied by a
// transaction.
type BalanceDelta struct {
	AccountID string
	Amount    int64 // signed minor units
}

// Deltas returns the balance adjustments the transaction implies: income
// increases the account, expense decreases it, a transfer moves the amount
// between the two legs. Non-completed transactions have no effect. Reversal
// is exact: negate every delta.
func (t *Transaction) Deltas() []BalanceDelta {
	if t.Status != StatusCompleted {
		return nil
	}
	switch t.Type {
	case TransactionIncome:
		return []BalanceDelta{{AccountID: t.AccountID, Amount: t.Amount}}
	case TransactionExpense:
		return []BalanceDelta{{AccountID: t.AccountID, Amount: -t.Amount}}
	case TransactionTransfer:
		return []BalanceDelta{
			{AccountID: t.AccountID, Amount: -t.Amount},
			{AccountID: t.ToAccountID, Amount: t.Amount},
		}
	}
	return nil
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       TransactionType
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// ============================================================
// Credit-card bills
// ============================================================

// BillStatus is derived from the paid amount and due date, never set
// directly by callers.
type BillStatus string

const (
	BillGenerated BillStatus = "generated"
	BillSent      BillStatus = "sent"
	BillPaid      BillStatus = "paid"
	BillOverdue   BillStatus = "overdue"
	BillPartial   BillStatus = "partial"
)

// CreditCardBill is one billing statement for a credit-card account over
// [PeriodStart, PeriodEnd). At most one bill exists per (account, period)
// pair, enforced by a storage-level uniqueness constraint.
type CreditCardBill struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	AccountID        string     `json:"account_id"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	GenerationDate   time.Time  `json:"generation_date"`
	DueDate          time.Time  `json:"due_date"`
	Amount           int64      `json:"amount"`
	MinimumPayment   int64      `json:"minimum_payment"`
	PreviousBalance  int64      `json:"previous_balance"`
	NewCharges       int64      `json:"new_charges"`
	PaymentsCredits  int64      `json:"payments_credits"`
	InterestCharged  int64      `json:"interest_charged"`
	LateFees         int64      `json:"late_fees"`
	TransactionCount int        `json:"transaction_count"`
	Paid             bool       `json:"paid"`
	PaidAmount       int64      `json:"paid_amount"`
	PaidDate         *time.Time `json:"paid_date,omitempty"`
	Status           BillStatus `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DeriveBillStatus computes the bill status from payment state and the due
// date. "sent" survives as the base status once a bill has been sent; it is
// otherwise "generated".
func DeriveBillStatus(base BillStatus, amount, paidAmount int64, dueDate, now time.Time) BillStatus {
	switch {
	case amount <= 0:
		// Fully credited statement, nothing owed.
		return BillPaid
	case paidAmount >= amount:
		return BillPaid
	case paidAmount > 0:
		return BillPartial
	case now.After(dueDate):
		return BillOverdue
	case base == BillSent:
		return BillSent
	default:
		return BillGenerated
	}
}

// BillTotals is the pure output of the bill calculator.
type BillTotals struct {
	Amount           int64 `json:"amount"`
	MinimumPayment   int64 `json:"minimum_payment"`
	PreviousBalance  int64 `json:"previous_balance"`
	NewCharges       int64 `json:"new_charges"`
	PaymentsCredits  int64 `json:"payments_credits"`
	InterestCharges  int64 `json:"interest_charges"`
	LateFees         int64 `json:"late_fees"`
	TransactionCount int   `json:"transaction_count"`
}

// BillFilter narrows bill listings.
type BillFilter struct {
	AccountID string
	Status    BillStatus
	From      time.Time
	To        time.Time
	MinAmount int64
	MaxAmount int64 // 0 = unbounded
	Search    string
	SortBy    string // generation_date | due_date | amount
	SortDesc  bool
	Page      int
	PageSize  int
}

// SweepResult reports the outcome of the auto-generation sweep for a single
// credit-card account. Outcomes are independent; one failure never aborts
// the sweep.
type SweepResult struct {
	AccountID      string          `json:"account_id"`
	AccountName    string          `json:"account_name"`
	Bill           *CreditCardBill `json:"bill,omitempty"`
	AlreadyExisted bool            `json:"already_existed"`
	Skipped        bool            `json:"skipped"` // period still open
	Error          string          `json:"error,omitempty"`
}

// ============================================================
// Reports
// ============================================================

// CategoryTotal is one row of the expenses-by-category report.
type CategoryTotal struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total"`
	Count        int    `json:"transaction_count"`
}

// ExpensesByCategoryReport aggregates completed expenses over a date range,
// normalized to Currency.
type ExpensesByCategoryReport struct {
	Currency string          `json:"currency"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Total    int64           `json:"total"`
	Items    []CategoryTotal `json:"items"`
}

// IncomeVsExpensesReport compares completed income and expenses over a date
// range, normalized to Currency.
type IncomeVsExpensesReport struct {
	Currency string    `json:"currency"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Income   int64     `json:"income"`
	Expenses int64     `json:"expenses"`
	Net      int64     `json:"net"`
}

// ============================================================
// CSV import
// ============================================================

// ImportStatus tracks an import job through its pipeline.
type ImportStatus string

const (
	ImportAnalyzed  ImportStatus = "analyzed"
	ImportPreviewed ImportStatus = "previewed"
	ImportCompleted ImportStatus = "completed"
)

// ColumnMapping maps CSV column indexes to transaction fields. -1 means the
// field was not detected.
type ColumnMapping struct {
	Date     int `json:"date"`
	Amount   int `json:"amount"`
	Payee    int `json:"payee"`
	Notes    int `json:"notes"`
	Type     int `json:"type"`
	Category int `json:"category"`
}

// RowError is a validation failure for one CSV row during preview.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportJob persists an upload, its detected mapping and the per-row
// validation results, so imports can be resumed and audited.
type ImportJob struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	AccountID    string        `json:"account_id"`
	Filename     string        `json:"filename"`
	Status       ImportStatus  `json:"status"`
	Header       []string      `json:"header"`
	Rows         [][]string    `json:"rows"`
	Mapping      ColumnMapping `json:"mapping"`
	RowErrors    []RowError    `json:"row_errors,omitempty"`
	CreatedCount int           `json:"created_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
