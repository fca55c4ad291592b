package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

var reportTracer = otel.Tracer("service/reports")

// ReportService aggregates ledger data into reports, normalizing amounts
// across account currencies.
type ReportService struct {
	transactions port.TransactionRepository
	accounts     port.AccountRepository
	categories   port.CategoryRepository
	currency     *CurrencyService
	logger       *zap.Logger
}

// NewReportService wires the report service.
func NewReportService(transactions port.TransactionRepository, accounts port.AccountRepository, categories port.CategoryRepository, currency *CurrencyService, logger *zap.Logger) *ReportService {
	return &ReportService{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		currency:     currency,
		logger:       logger,
	}
}

// ReportFilter narrows report aggregation. AccountID and CategoryID are
// optional.
type ReportFilter struct {
	From       time.Time
	To         time.Time
	AccountID  string
	CategoryID string
}

// ExpensesByCategory totals completed expenses per category over the filter
// range, converted to the requested currency and sorted largest first.
func (s *ReportService) ExpensesByCategory(ctx context.Context, userID, currency string, filter ReportFilter) (*domain.ExpensesByCategoryReport, error) {
	ctx, span := reportTracer.Start(ctx, "reports.ExpensesByCategory")
	defer span.End()

	txs, accountCurrencies, err := s.completedTransactions(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	totals := make(map[string]*domain.CategoryTotal)
	var grandTotal int64
	for i := range txs {
		t := &txs[i]
		if t.Type != domain.TransactionExpense {
			continue
		}
		amount, err := s.currency.Convert(ctx, t.Amount, accountCurrencies[t.AccountID], currency)
		if err != nil {
			return nil, err
		}

		key := t.CategoryID
		entry, ok := totals[key]
		if !ok {
			name := names[key]
			if key == "" {
				name = "Uncategorized"
			}
			entry = &domain.CategoryTotal{CategoryID: key, CategoryName: name}
			totals[key] = entry
		}
		entry.Total += amount
		entry.Count++
		grandTotal += amount
	}

	items := make([]domain.CategoryTotal, 0, len(totals))
	for _, entry := range totals {
		items = append(items, *entry)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Total > items[j].Total })

	return &domain.ExpensesByCategoryReport{
		Currency: currency,
		From:     filter.From,
		To:       filter.To,
		Total:    grandTotal,
		Items:    items,
	}, nil
}

// IncomeVsExpenses compares completed income against expenses over the
// filter range, converted to the requested currency.
func (s *ReportService) IncomeVsExpenses(ctx context.Context, userID, currency string, filter ReportFilter) (*domain.IncomeVsExpensesReport, error) {
	ctx, span := reportTracer.Start(ctx, "reports.IncomeVsExpenses")
	defer span.End()

	txs, accountCurrencies, err := s.completedTransactions(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	var income, expenses int64
	for i := range txs {
		t := &txs[i]
		if t.Type != domain.TransactionIncome && t.Type != domain.TransactionExpense {
			continue
		}
		amount, err := s.currency.Convert(ctx, t.Amount, accountCurrencies[t.AccountID], currency)
		if err != nil {
			return nil, err
		}
		if t.Type == domain.TransactionIncome {
			income += amount
		} else {
			expenses += amount
		}
	}

	return &domain.IncomeVsExpensesReport{
		Currency: currency,
		From:     filter.From,
		To:       filter.To,
		Income:   income,
		Expenses: expenses,
		Net:      income - expenses,
	}, nil
}

// completedTransactions loads the user's completed transactions matching the
// filter together with a per-account currency map.
func (s *ReportService) completedTransactions(ctx context.Context, userID string, filter ReportFilter) ([]domain.Transaction, map[string]string, error) {
	txs, err := s.transactions.ListTransactions(ctx, userID, domain.TransactionFilter{
		From:       filter.From,
		To:         filter.To,
		AccountID:  filter.AccountID,
		CategoryID: filter.CategoryID,
	})
	if err != nil {
		return nil, nil, err
	}

	completed := txs[:0]
	for i := range txs {
		if txs[i].Status == domain.StatusCompleted {
			completed = append(completed, txs[i])
		}
	}

	accounts, err := s.accounts.ListAccounts(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	currencies := make(map[string]string, len(accounts))
	for _, a := range accounts {
		currencies[a.ID] = a.Currency
	}
	return completed, currencies, nil
}
