package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/infra/observability"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

var billingTracer = otel.Tracer("service/billing")

// sweepConcurrency bounds how many accounts the sweep bills in parallel.
const sweepConcurrency = 4

// BillingService generates and settles credit-card bills.
type BillingService struct {
	accounts     port.AccountRepository
	transactions port.TransactionRepository
	bills        port.BillRepository
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewBillingService wires the billing engine. now is injectable for tests.
func NewBillingService(accounts port.AccountRepository, transactions port.TransactionRepository, bills port.BillRepository, metrics *observability.Metrics, logger *zap.Logger) *BillingService {
	return &BillingService{
		accounts:     accounts,
		transactions: transactions,
		bills:        bills,
		metrics:      metrics,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Generate produces the bill for the account's most recent closed billing
// period. Generation is idempotent: if the bill already exists the stored
// one is returned with alreadyExisted set. Under concurrent generation the
// storage uniqueness constraint decides the single winner; losers refetch.
func (s *BillingService) Generate(ctx context.Context, userID, accountID string) (*domain.CreditCardBill, bool, error) {
	ctx, span := billingTracer.Start(ctx, "billing.Generate")
	defer span.End()
	began := time.Now()
	defer func() { s.metrics.RecordRequestDuration("billing.generate", time.Since(began)) }()

	account, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, false, err
	}
	if !account.IsCreditCard() {
		return nil, false, &domain.ErrInvalidAccountType{AccountID: accountID, Type: account.Type}
	}

	now := s.now()
	start, end := billingPeriod(account.CreditCard.BillGenerationDay, now)

	if existing, err := s.bills.GetBillByPeriod(ctx, accountID, start, end); err == nil {
		s.metrics.IncrBillGenerated("duplicate")
		return existing, true, nil
	} else if !isNotFound(err) {
		return nil, false, err
	}

	bill, err := s.buildBill(ctx, userID, account, start, end, now)
	if err != nil {
		s.metrics.IncrBillGenerated("error")
		return nil, false, err
	}

	if err := s.bills.CreateBill(ctx, bill); err != nil {
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			// Lost the race; the stored bill is authoritative.
			existing, getErr := s.bills.GetBillByPeriod(ctx, accountID, start, end)
			if getErr != nil {
				return nil, false, getErr
			}
			s.metrics.IncrBillGenerated("duplicate")
			return existing, true, nil
		}
		s.metrics.IncrBillGenerated("error")
		return nil, false, err
	}

	if err := s.accounts.SetCurrentBillPaid(ctx, accountID, false); err != nil {
		s.logger.Warn("failed to reset current bill paid flag",
			zap.String("account_id", accountID), zap.Error(err))
	}

	s.metrics.IncrBillGenerated("created")
	s.logger.Info("bill generated",
		zap.String("account_id", accountID),
		zap.String("bill_id", bill.ID),
		zap.Int64("amount", bill.Amount))
	return bill, false, nil
}

func (s *BillingService) buildBill(ctx context.Context, userID string, account *domain.Account, start, end, now time.Time) (*domain.CreditCardBill, error) {
	periodTxs, err := s.transactions.ListAccountPeriod(ctx, account.ID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var previous *domain.CreditCardBill
	prev, err := s.bills.GetLatestBillBefore(ctx, account.ID, start)
	if err == nil {
		// The stored status goes stale once the due date passes; refresh it
		// before it decides the late fee.
		prev.Status = domain.DeriveBillStatus(prev.Status, prev.Amount, prev.PaidAmount, prev.DueDate, now)
		previous = prev
	} else if !isNotFound(err) {
		return nil, err
	}

	totals := calculateBill(account.Balance, periodTxs, previous, account.CreditCard)
	due := dueDate(account.CreditCard.PaymentDueDay, end)

	return &domain.CreditCardBill{
		ID:               uuid.NewString(),
		UserID:           userID,
		AccountID:        account.ID,
		PeriodStart:      start,
		PeriodEnd:        end,
		GenerationDate:   now,
		DueDate:          due,
		Amount:           totals.Amount,
		MinimumPayment:   totals.MinimumPayment,
		PreviousBalance:  totals.PreviousBalance,
		NewCharges:       totals.NewCharges,
		PaymentsCredits:  totals.PaymentsCredits,
		InterestCharged:  totals.InterestCharges,
		LateFees:         totals.LateFees,
		TransactionCount: totals.TransactionCount,
		Status:           domain.BillGenerated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// PayBill records a payment against a bill. Payments accumulate: paying the
// remainder of a partially paid bill settles it.
func (s *BillingService) PayBill(ctx context.Context, userID, billID string, req *domain.PayBillRequest) (*domain.CreditCardBill, error) {
	ctx, span := billingTracer.Start(ctx, "billing.PayBill")
	defer span.End()
	began := time.Now()
	defer func() { s.metrics.RecordRequestDuration("billing.pay", time.Since(began)) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	bill, err := s.bills.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	paidDate := s.now()
	if req.PaidDate != "" {
		if paidDate, err = domain.ParseDate(req.PaidDate); err != nil {
			return nil, &domain.ErrValidation{Field: "paid_date", Message: "invalid date"}
		}
	}

	bill.PaidAmount += req.Amount
	bill.PaidDate = &paidDate
	bill.Paid = bill.Amount > 0 && bill.PaidAmount >= bill.Amount
	bill.Status = domain.DeriveBillStatus(bill.Status, bill.Amount, bill.PaidAmount, bill.DueDate, s.now())

	if err := s.bills.UpdateBill(ctx, bill); err != nil {
		return nil, err
	}

	if bill.Paid {
		if err := s.accounts.SetCurrentBillPaid(ctx, bill.AccountID, true); err != nil {
			s.logger.Warn("failed to set current bill paid flag",
				zap.String("account_id", bill.AccountID), zap.Error(err))
		}
	}

	s.logger.Info("bill payment recorded",
		zap.String("bill_id", billID),
		zap.Int64("amount", req.Amount),
		zap.String("status", string(bill.Status)))
	return bill, nil
}

// GetBill returns one bill with its status refreshed against the clock.
func (s *BillingService) GetBill(ctx context.Context, userID, billID string) (*domain.CreditCardBill, error) {
	bill, err := s.bills.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	bill.Status = domain.DeriveBillStatus(bill.Status, bill.Amount, bill.PaidAmount, bill.DueDate, s.now())
	return bill, nil
}

// ListBills returns bills matching the filter, statuses refreshed.
func (s *BillingService) ListBills(ctx context.Context, userID string, filter domain.BillFilter) ([]domain.CreditCardBill, error) {
	bills, err := s.bills.ListBills(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range bills {
		bills[i].Status = domain.DeriveBillStatus(bills[i].Status, bills[i].Amount, bills[i].PaidAmount, bills[i].DueDate, now)
	}
	return bills, nil
}

// GetSettings returns the billing configuration of a credit-card account.
func (s *BillingService) GetSettings(ctx context.Context, userID, accountID string) (*domain.CreditCardSettings, error) {
	account, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsCreditCard() {
		return nil, &domain.ErrInvalidAccountType{AccountID: accountID, Type: account.Type}
	}
	return account.CreditCard, nil
}

// UpdateSettings replaces the billing configuration of a credit-card
// account. Existing bills keep the terms they were generated under.
func (s *BillingService) UpdateSettings(ctx context.Context, userID, accountID string, req *domain.BillSettingsRequest) (*domain.CreditCardSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsCreditCard() {
		return nil, &domain.ErrInvalidAccountType{AccountID: accountID, Type: account.Type}
	}

	account.CreditCard.BillGenerationDay = req.BillGenerationDay
	account.CreditCard.PaymentDueDay = req.PaymentDueDay
	account.CreditCard.InterestRate = req.InterestRate
	account.CreditCard.MinPaymentRate = req.MinPaymentRate

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account.CreditCard, nil
}

// Sweep generates bills for every credit-card account of the user. Accounts
// are processed concurrently with a bounded limit; each outcome is reported
// independently and one failure never aborts the rest.
func (s *BillingService) Sweep(ctx context.Context, userID string) ([]domain.SweepResult, error) {
	ctx, span := billingTracer.Start(ctx, "billing.Sweep")
	defer span.End()
	began := time.Now()
	defer func() { s.metrics.RecordRequestDuration("billing.sweep", time.Since(began)) }()

	accounts, err := s.accounts.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.Account, 0)
	for _, a := range accounts {
		if a.IsCreditCard() {
			cards = append(cards, a)
		}
	}

	results := make([]domain.SweepResult, len(cards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for i := range cards {
		i := i
		g.Go(func() error {
			account := cards[i]
			result := domain.SweepResult{AccountID: account.ID, AccountName: account.Name}

			_, end := billingPeriod(account.CreditCard.BillGenerationDay, s.now())
			if end.Before(account.CreatedAt) {
				result.Skipped = true
				results[i] = result
				return nil
			}

			bill, existed, err := s.Generate(gctx, userID, account.ID)
			if err != nil {
				result.Error = err.Error()
				s.logger.Warn("sweep bill generation failed",
					zap.String("account_id", account.ID), zap.Error(err))
			} else {
				result.Bill = bill
				result.AlreadyExisted = existed
			}
			results[i] = result
			return nil
		})
	}

	// workers never return errors; Wait only observes context cancellation
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}
