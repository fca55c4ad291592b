package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

// In-memory repository fakes shared by the service tests. They mirror the
// Postgres adapter's semantics: mutating transaction operations apply
// balance deltas atomically, bill creation enforces period uniqueness.

type fakeStore struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	categories   map[string]*domain.Category
	transactions map[string]*domain.Transaction
	bills        map[string]*domain.CreditCardBill
	imports      map[string]*domain.ImportJob
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[string]*domain.Account),
		categories:   make(map[string]*domain.Category),
		transactions: make(map[string]*domain.Transaction),
		bills:        make(map[string]*domain.CreditCardBill),
		imports:      make(map[string]*domain.ImportJob),
	}
}

// ---- AccountRepository ----

func (f *fakeStore) CreateAccount(ctx context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	cp := *a
	if a.CreditCard != nil {
		cc := *a.CreditCard
		cp.CreditCard = &cc
	}
	return &cp, nil
}

func (f *fakeStore) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Account, 0)
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateAccount(ctx context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.accounts[a.ID]
	if !ok || stored.UserID != a.UserID {
		return &domain.ErrNotFound{Resource: "account", ID: a.ID}
	}
	balance := stored.Balance
	cp := *a
	cp.Balance = balance
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, userID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.UserID != userID {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeStore) SetCurrentBillPaid(ctx context.Context, accountID string, paid bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.CreditCard == nil {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	a.CreditCard.CurrentBillPaid = paid
	return nil
}

// ---- TransactionRepository ----

func (f *fakeStore) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.applyDeltas(t.Deltas()); err != nil {
		return err
	}
	cp := *t
	f.transactions[t.ID] = &cp
	return nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[txID]
	if !ok || t.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, t := range f.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.AccountID != "" && t.AccountID != filter.AccountID && t.ToAccountID != filter.AccountID {
			continue
		}
		if filter.CategoryID != "" && t.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !t.Date.Before(filter.To) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeStore) ListAccountPeriod(ctx context.Context, accountID string, start, end time.Time) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Transaction, 0)
	for _, t := range f.transactions {
		if t.AccountID != accountID || t.Status != domain.StatusCompleted {
			continue
		}
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.transactions[t.ID]
	if !ok || old.UserID != t.UserID {
		return &domain.ErrNotFound{Resource: "transaction", ID: t.ID}
	}
	if err := f.applyDeltas(negateDeltas(old.Deltas())); err != nil {
		return err
	}
	if err := f.applyDeltas(t.Deltas()); err != nil {
		return err
	}
	cp := *t
	cp.CreatedAt = old.CreatedAt
	f.transactions[t.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, userID, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.transactions[txID]
	if !ok || old.UserID != userID {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	if err := f.applyDeltas(negateDeltas(old.Deltas())); err != nil {
		return err
	}
	delete(f.transactions, txID)
	return nil
}

func (f *fakeStore) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		t, ok := f.transactions[id]
		if !ok || t.UserID != userID {
			return 0, &domain.ErrNotFound{Resource: "transactions", ID: "some transactions not found"}
		}
	}
	for _, id := range ids {
		old := f.transactions[id]
		if err := f.applyDeltas(negateDeltas(old.Deltas())); err != nil {
			return 0, err
		}
		delete(f.transactions, id)
	}
	return len(ids), nil
}

func (f *fakeStore) AccountHasTransactions(ctx context.Context, accountID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.AccountID == accountID || t.ToAccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) applyDeltas(deltas []domain.BalanceDelta) error {
	for _, d := range deltas {
		a, ok := f.accounts[d.AccountID]
		if !ok {
			return &domain.ErrNotFound{Resource: "account", ID: d.AccountID}
		}
		a.Balance += d.Amount
	}
	return nil
}

func negateDeltas(deltas []domain.BalanceDelta) []domain.BalanceDelta {
	out := make([]domain.BalanceDelta, len(deltas))
	for i, d := range deltas {
		out[i] = domain.BalanceDelta{AccountID: d.AccountID, Amount: -d.Amount}
	}
	return out
}

// ---- BillRepository ----

func (f *fakeStore) CreateBill(ctx context.Context, b *domain.CreditCardBill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bills {
		if existing.AccountID == b.AccountID &&
			existing.PeriodStart.Equal(b.PeriodStart) &&
			existing.PeriodEnd.Equal(b.PeriodEnd) {
			return &domain.ErrConflict{Message: "bill already exists for this period"}
		}
	}
	cp := *b
	f.bills[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBill(ctx context.Context, userID, billID string) (*domain.CreditCardBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[billID]
	if !ok || b.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetBillByPeriod(ctx context.Context, accountID string, periodStart, periodEnd time.Time) (*domain.CreditCardBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bills {
		if b.AccountID == accountID && b.PeriodStart.Equal(periodStart) && b.PeriodEnd.Equal(periodEnd) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "bill", ID: accountID}
}

func (f *fakeStore) GetLatestBillBefore(ctx context.Context, accountID string, periodEnd time.Time) (*domain.CreditCardBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.CreditCardBill
	for _, b := range f.bills {
		if b.AccountID != accountID || b.PeriodEnd.After(periodEnd) {
			continue
		}
		if latest == nil || b.PeriodEnd.After(latest.PeriodEnd) {
			latest = b
		}
	}
	if latest == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: accountID}
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) ListBills(ctx context.Context, userID string, filter domain.BillFilter) ([]domain.CreditCardBill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CreditCardBill, 0)
	for _, b := range f.bills {
		if b.UserID != userID {
			continue
		}
		if filter.AccountID != "" && b.AccountID != filter.AccountID {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenerationDate.Before(out[j].GenerationDate) })
	return out, nil
}

func (f *fakeStore) UpdateBill(ctx context.Context, b *domain.CreditCardBill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bills[b.ID]; !ok {
		return &domain.ErrNotFound{Resource: "bill", ID: b.ID}
	}
	cp := *b
	f.bills[b.ID] = &cp
	return nil
}

// ---- CategoryRepository ----

func (f *fakeStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.categories {
		if existing.UserID == c.UserID && existing.Name == c.Name && existing.Type == c.Type {
			return &domain.ErrConflict{Message: "category already exists"}
		}
	}
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[categoryID]
	if !ok || c.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Category, 0)
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return &domain.ErrNotFound{Resource: "category", ID: c.ID}
	}
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[categoryID]
	if !ok || c.UserID != userID {
		return &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	delete(f.categories, categoryID)
	return nil
}

// ---- ImportRepository ----

func (f *fakeStore) CreateImport(ctx context.Context, job *domain.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.imports[job.ID] = &cp
	return nil
}

func (f *fakeStore) GetImport(ctx context.Context, userID, importID string) (*domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.imports[importID]
	if !ok || j.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "import", ID: importID}
	}
	cp := *j
	return &cp, nil
}

func (f *fakeStore) ListImports(ctx context.Context, userID string) ([]domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ImportJob, 0)
	for _, j := range f.imports {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateImport(ctx context.Context, job *domain.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.imports[job.ID]; !ok {
		return &domain.ErrNotFound{Resource: "import", ID: job.ID}
	}
	cp := *job
	f.imports[job.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteImport(ctx context.Context, userID, importID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.imports[importID]
	if !ok || j.UserID != userID {
		return &domain.ErrNotFound{Resource: "import", ID: importID}
	}
	delete(f.imports, importID)
	return nil
}

// ---- RateFetcher ----

type fakeRateFetcher struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeRateFetcher) FetchRate(ctx context.Context, base, target string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if r, ok := f.rates[base+"-"+target]; ok {
		return r, nil
	}
	return 0, &domain.ErrNotFound{Resource: "rate", ID: base + "-" + target}
}

func (f *fakeRateFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
