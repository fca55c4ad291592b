package domain

import "time"

// Request payloads for the API, validated before any component logic runs.
// Validate returns an *ErrInvalidInput carrying the full field-error list, or
// nil when the payload is acceptable.

// ParseDate accepts the two date formats used on the wire.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// ============================================================
// Accounts
// ============================================================

// CreateAccountRequest is the body for POST /v1/accounts.
type CreateAccountRequest struct {
	Name       string              `json:"name"`
	Type       AccountType         `json:"type"`
	Currency   string              `json:"currency"`
	Balance    int64               `json:"balance"` // opening balance
	CreditCard *CreditCardSettings `json:"credit_card,omitempty"`
}

// Validate enforces the credit-card-fields-iff-credit-card invariant along
// with the basic shape.
func (r *CreateAccountRequest) Validate() error {
	var fields []FieldError
	if r.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "required"})
	}
	if !ValidAccountType(r.Type) {
		fields = append(fields, FieldError{Field: "type", Message: "must be one of checking, savings, credit-card, cash, investment"})
	}
	if len(r.Currency) != 3 {
		fields = append(fields, FieldError{Field: "currency", Message: "must be a 3-letter currency code"})
	}
	if r.Type == AccountCreditCard {
		if r.CreditCard == nil {
			fields = append(fields, FieldError{Field: "credit_card", Message: "required for credit-card accounts"})
		} else {
			fields = append(fields, validateCreditCardSettings(r.CreditCard)...)
		}
	} else if r.CreditCard != nil {
		fields = append(fields, FieldError{Field: "credit_card", Message: "only valid for credit-card accounts"})
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

func validateCreditCardSettings(cc *CreditCardSettings) []FieldError {
	var fields []FieldError
	if cc.BillGenerationDay < 1 || cc.BillGenerationDay > 31 {
		fields = append(fields, FieldError{Field: "credit_card.bill_generation_day", Message: "must be between 1 and 31"})
	}
	if cc.PaymentDueDay < 1 {
		fields = append(fields, FieldError{Field: "credit_card.payment_due_day", Message: "must be positive (1-31 = day of month, >31 = day offset)"})
	}
	if cc.InterestRate < 0 || cc.InterestRate > 1 {
		fields = append(fields, FieldError{Field: "credit_card.interest_rate", Message: "must be between 0 and 1"})
	}
	if cc.MinPaymentRate < 0 || cc.MinPaymentRate > 1 {
		fields = append(fields, FieldError{Field: "credit_card.min_payment_rate", Message: "must be between 0 and 1"})
	}
	if cc.CreditLimit < 0 {
		fields = append(fields, FieldError{Field: "credit_card.credit_limit", Message: "must not be negative"})
	}
	return fields
}

// UpdateAccountRequest is the body for PUT /v1/accounts/{accountId}. Type
// and currency are immutable after creation.
type UpdateAccountRequest struct {
	Name       string              `json:"name"`
	CreditCard *CreditCardSettings `json:"credit_card,omitempty"`
}

func (r *UpdateAccountRequest) Validate() error {
	var fields []FieldError
	if r.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "required"})
	}
	if r.CreditCard != nil {
		fields = append(fields, validateCreditCardSettings(r.CreditCard)...)
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// ============================================================
// Categories
// ============================================================

// CreateCategoryRequest is the body for POST /v1/categories.
type CreateCategoryRequest struct {
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}

func (r *CreateCategoryRequest) Validate() error {
	var fields []FieldError
	if r.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "required"})
	}
	if r.Type != CategoryIncome && r.Type != CategoryExpense {
		fields = append(fields, FieldError{Field: "type", Message: "must be income or expense"})
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// ============================================================
// Transactions
// ============================================================

// TransactionRequest is the body for transaction create and update.
type TransactionRequest struct {
	AccountID   string            `json:"account_id"`
	ToAccountID string            `json:"to_account_id,omitempty"`
	CategoryID  string            `json:"category_id,omitempty"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	Date        string            `json:"date"`
	Payee       string            `json:"payee"`
	Notes       string            `json:"notes,omitempty"`
	Status      TransactionStatus `json:"status,omitempty"` // defaults to completed
}

func (r *TransactionRequest) Validate() error {
	var fields []FieldError
	if r.AccountID == "" {
		fields = append(fields, FieldError{Field: "account_id", Message: "required"})
	}
	switch r.Type {
	case TransactionIncome, TransactionExpense:
		if r.ToAccountID != "" {
			fields = append(fields, FieldError{Field: "to_account_id", Message: "only valid for transfers"})
		}
	case TransactionTransfer:
		if r.ToAccountID == "" {
			fields = append(fields, FieldError{Field: "to_account_id", Message: "required for transfers"})
		} else if r.ToAccountID == r.AccountID {
			fields = append(fields, FieldError{Field: "to_account_id", Message: "must differ from account_id"})
		}
	default:
		fields = append(fields, FieldError{Field: "type", Message: "must be income, expense or transfer"})
	}
	if r.Amount <= 0 {
		fields = append(fields, FieldError{Field: "amount", Message: "must be positive"})
	}
	if r.Date == "" {
		fields = append(fields, FieldError{Field: "date", Message: "required"})
	} else if _, err := ParseDate(r.Date); err != nil {
		fields = append(fields, FieldError{Field: "date", Message: "invalid format, use YYYY-MM-DD or RFC3339"})
	}
	if r.Payee == "" {
		fields = append(fields, FieldError{Field: "payee", Message: "required"})
	}
	switch r.Status {
	case "", StatusPending, StatusCompleted, StatusCancelled:
	default:
		fields = append(fields, FieldError{Field: "status", Message: "must be pending, completed or cancelled"})
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// BulkDeleteRequest is the body for POST /v1/transactions/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (r *BulkDeleteRequest) Validate() error {
	if len(r.IDs) == 0 {
		return &ErrInvalidInput{Fields: []FieldError{{Field: "ids", Message: "must not be empty"}}}
	}
	return nil
}

// ============================================================
// Bills
// ============================================================

// PayBillRequest records a payment against a bill.
type PayBillRequest struct {
	Amount   int64  `json:"amount"`
	PaidDate string `json:"paid_date,omitempty"` // defaults to today
}

func (r *PayBillRequest) Validate() error {
	var fields []FieldError
	if r.Amount <= 0 {
		fields = append(fields, FieldError{Field: "amount", Message: "must be positive"})
	}
	if r.PaidDate != "" {
		if _, err := ParseDate(r.PaidDate); err != nil {
			fields = append(fields, FieldError{Field: "paid_date", Message: "invalid format, use YYYY-MM-DD or RFC3339"})
		}
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// BillSettingsRequest updates the billing configuration of a credit-card
// account.
type BillSettingsRequest struct {
	BillGenerationDay int     `json:"bill_generation_day"`
	PaymentDueDay     int     `json:"payment_due_day"`
	InterestRate      float64 `json:"interest_rate"`
	MinPaymentRate    float64 `json:"min_payment_rate"`
}

func (r *BillSettingsRequest) Validate() error {
	fields := validateCreditCardSettings(&CreditCardSettings{
		BillGenerationDay: r.BillGenerationDay,
		PaymentDueDay:     r.PaymentDueDay,
		InterestRate:      r.InterestRate,
		MinPaymentRate:    r.MinPaymentRate,
	})
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// ============================================================
// CSV import
// ============================================================

// ImportUploadRequest carries a raw CSV payload for analysis.
type ImportUploadRequest struct {
	AccountID string `json:"account_id"`
	Filename  string `json:"filename"`
	Content   string `json:"content"` // raw CSV text
}

func (r *ImportUploadRequest) Validate() error {
	var fields []FieldError
	if r.AccountID == "" {
		fields = append(fields, FieldError{Field: "account_id", Message: "required"})
	}
	if r.Content == "" {
		fields = append(fields, FieldError{Field: "content", Message: "required"})
	}
	if len(fields) > 0 {
		return &ErrInvalidInput{Fields: fields}
	}
	return nil
}

// ImportConfirmRequest optionally overrides the detected column mapping
// before execution.
type ImportConfirmRequest struct {
	Mapping *ColumnMapping `json:"mapping,omitempty"`
}
