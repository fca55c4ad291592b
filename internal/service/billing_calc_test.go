package service

import (
	"testing"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

func expenseTx(amount int64) domain.Transaction {
	return domain.Transaction{
		Type:   domain.TransactionExpense,
		Amount: amount,
		Status: domain.StatusCompleted,
	}
}

func incomeTx(amount int64) domain.Transaction {
	return domain.Transaction{
		Type:   domain.TransactionIncome,
		Amount: amount,
		Status: domain.StatusCompleted,
	}
}

func defaultSettings() *domain.CreditCardSettings {
	return &domain.CreditCardSettings{
		BillGenerationDay: 15,
		PaymentDueDay:     5,
		InterestRate:      0.18,
		MinPaymentRate:    0.05,
	}
}

func TestCalculateBillNewCardNoCarriedBalance(t *testing.T) {
	// Fresh card: 3000 in charges this period, nothing carried over.
	txs := []domain.Transaction{expenseTx(1000), expenseTx(2000)}
	totals := calculateBill(-3000, txs, nil, defaultSettings())

	if totals.PreviousBalance != 0 {
		t.Errorf("previous balance = %d, want 0", totals.PreviousBalance)
	}
	if totals.NewCharges != 3000 {
		t.Errorf("new charges = %d, want 3000", totals.NewCharges)
	}
	if totals.InterestCharges != 0 {
		t.Errorf("interest = %d, want 0 with no carried balance", totals.InterestCharges)
	}
	if totals.LateFees != 0 {
		t.Errorf("late fees = %d, want 0 with no previous bill", totals.LateFees)
	}
	if totals.Amount != 3000 {
		t.Errorf("amount = %d, want 3000", totals.Amount)
	}
	if totals.TransactionCount != 2 {
		t.Errorf("transaction count = %d, want 2", totals.TransactionCount)
	}
}

func TestCalculateBillMinimumPaymentFloor(t *testing.T) {
	// 5% of 1000 is 50, well under the floor.
	txs := []domain.Transaction{expenseTx(1000)}
	totals := calculateBill(-1000, txs, nil, defaultSettings())

	if totals.Amount != 1000 {
		t.Fatalf("amount = %d, want 1000", totals.Amount)
	}
	if totals.MinimumPayment != 2500 {
		t.Errorf("minimum payment = %d, want floor 2500", totals.MinimumPayment)
	}
}

func TestCalculateBillMinimumPaymentAboveFloor(t *testing.T) {
	// 5% of 100000 is 5000, above the floor.
	txs := []domain.Transaction{expenseTx(100000)}
	totals := calculateBill(-100000, txs, nil, defaultSettings())

	if totals.MinimumPayment != 5000 {
		t.Errorf("minimum payment = %d, want 5000", totals.MinimumPayment)
	}
}

func TestCalculateBillInterestOnCarriedBalance(t *testing.T) {
	// Carried debt of 12000 at 18% annual is 180 for one month.
	txs := []domain.Transaction{expenseTx(5000)}
	totals := calculateBill(-17000, txs, nil, defaultSettings())

	if totals.PreviousBalance != -12000 {
		t.Fatalf("previous balance = %d, want -12000", totals.PreviousBalance)
	}
	if totals.InterestCharges != 180 {
		t.Errorf("interest = %d, want 180", totals.InterestCharges)
	}
	if want := int64(12000 + 5000 + 180); totals.Amount != want {
		t.Errorf("amount = %d, want %d", totals.Amount, want)
	}
}

func TestCalculateBillLateFeeWhenPreviousOverdue(t *testing.T) {
	previous := &domain.CreditCardBill{Status: domain.BillOverdue}
	txs := []domain.Transaction{expenseTx(1000)}
	totals := calculateBill(-1000, txs, previous, defaultSettings())

	if totals.LateFees != 3500 {
		t.Errorf("late fees = %d, want 3500", totals.LateFees)
	}
}

func TestCalculateBillLateFeeWhenPreviousPartial(t *testing.T) {
	previous := &domain.CreditCardBill{Status: domain.BillPartial}
	totals := calculateBill(0, nil, previous, defaultSettings())

	if totals.LateFees != 3500 {
		t.Errorf("late fees = %d, want 3500", totals.LateFees)
	}
}

func TestCalculateBillNoLateFeeWhenPreviousPaid(t *testing.T) {
	previous := &domain.CreditCardBill{Status: domain.BillPaid}
	totals := calculateBill(0, nil, previous, defaultSettings())

	if totals.LateFees != 0 {
		t.Errorf("late fees = %d, want 0", totals.LateFees)
	}
}

func TestCalculateBillPaymentsReduceTotal(t *testing.T) {
	// 5000 charged, 2000 paid onto the card within the period.
	txs := []domain.Transaction{expenseTx(5000), incomeTx(2000)}
	totals := calculateBill(-3000, txs, nil, defaultSettings())

	if totals.PaymentsCredits != 2000 {
		t.Errorf("payments = %d, want 2000", totals.PaymentsCredits)
	}
	if totals.Amount != 3000 {
		t.Errorf("amount = %d, want 3000", totals.Amount)
	}
}

func TestCalculateBillTotalNeverNegative(t *testing.T) {
	// Overpayment: more credited than charged.
	txs := []domain.Transaction{expenseTx(1000), incomeTx(5000)}
	totals := calculateBill(4000, txs, nil, defaultSettings())

	if totals.Amount != 0 {
		t.Errorf("amount = %d, want 0 after overpayment", totals.Amount)
	}
	if totals.MinimumPayment != 0 {
		t.Errorf("minimum payment = %d, want 0 for a zero bill", totals.MinimumPayment)
	}
}

func TestBillingPeriodAfterGenerationDay(t *testing.T) {
	// Generation day 15, today the 20th: period is Mar 16 .. Apr 15.
	now := time.Date(2026, time.April, 20, 10, 0, 0, 0, time.UTC)
	start, end := billingPeriod(15, now)

	wantStart := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestBillingPeriodBeforeGenerationDay(t *testing.T) {
	// Generation day 15, today the 10th: the April occurrence has not yet
	// arrived, so the period closed on Mar 15.
	now := time.Date(2026, time.April, 10, 10, 0, 0, 0, time.UTC)
	start, end := billingPeriod(15, now)

	wantStart := time.Date(2026, time.February, 16, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestBillingPeriodClampsShortMonths(t *testing.T) {
	// Generation day 31 in a 30-day month clamps to the month end.
	now := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	_, end := billingPeriod(31, now)

	wantEnd := time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC)
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestDueDateDayOfMonth(t *testing.T) {
	// Due day 5 after a period ending Apr 15 lands on May 5.
	periodEnd := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	due := dueDate(5, periodEnd)

	want := time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due = %v, want %v", due, want)
	}
}

func TestDueDateClampsToMonthEnd(t *testing.T) {
	// Due day 31 after a period ending in January clamps to Feb 28.
	periodEnd := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	due := dueDate(31, periodEnd)

	want := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due = %v, want %v", due, want)
	}
}

func TestDueDateAsOffset(t *testing.T) {
	// Values above 31 are a day offset from the period end.
	periodEnd := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	due := dueDate(45, periodEnd)

	want := time.Date(2026, time.May, 30, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due = %v, want %v", due, want)
	}
}
