package service

import (
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

// Billing constants, minor units.
const (
	lateFeeFlat       int64 = 3500 // applied when the previous bill is overdue or partial
	minPaymentFloor   int64 = 2500
	monthsPerYear           = 12
)

// calculateBill computes the totals for one billing statement. It is pure:
// all inputs are explicit and there is no I/O.
//
// The statement balance reconstructs the previous balance from the account's
// current balance and the period's activity, charges interest on any carried
// balance at the monthly rate, and adds a flat late fee when the previous
// bill was not settled in full.
func calculateBill(balance int64, periodTxs []domain.Transaction, previousBill *domain.CreditCardBill, cc *domain.CreditCardSettings) domain.BillTotals {
	var newCharges, paymentsCredits int64
	for i := range periodTxs {
		switch periodTxs[i].Type {
		case domain.TransactionExpense:
			newCharges += periodTxs[i].Amount
		case domain.TransactionIncome:
			paymentsCredits += periodTxs[i].Amount
		}
	}

	// Ledger convention: expenses decrease the balance, so a carried debt is
	// negative. Reconstruct the balance as of the period start by undoing the
	// period's activity.
	previousBalance := balance + newCharges - paymentsCredits

	carried := previousBalance
	if carried < 0 {
		carried = -carried
	}

	var interest int64
	if carried > 0 && cc.InterestRate > 0 {
		interest = roundHalfUp(float64(carried) * cc.InterestRate / monthsPerYear)
	}

	var lateFees int64
	if previousBill != nil &&
		(previousBill.Status == domain.BillOverdue || previousBill.Status == domain.BillPartial) {
		lateFees = lateFeeFlat
	}

	total := carried + newCharges + interest + lateFees - paymentsCredits
	if total < 0 {
		total = 0
	}

	minPayment := roundHalfUp(float64(total) * cc.MinPaymentRate)
	if total > 0 && minPayment < minPaymentFloor {
		minPayment = minPaymentFloor
	}

	return domain.BillTotals{
		Amount:           total,
		MinimumPayment:   minPayment,
		PreviousBalance:  previousBalance,
		NewCharges:       newCharges,
		PaymentsCredits:  paymentsCredits,
		InterestCharges:  interest,
		LateFees:         lateFees,
		TransactionCount: len(periodTxs),
	}
}

// billingPeriod derives the most recent closed billing period from the
// account's generation day. The period ends on the latest occurrence of the
// generation day at or before now, and starts the day after the occurrence
// one month earlier. Short months clamp the day.
func billingPeriod(genDay int, now time.Time) (start, end time.Time) {
	end = occurrenceOfDay(genDay, now.Year(), now.Month())
	if end.After(now) {
		prev := now.AddDate(0, -1, 0)
		end = occurrenceOfDay(genDay, prev.Year(), prev.Month())
	}

	prevMonth := end.AddDate(0, -1, 0)
	prevOccurrence := occurrenceOfDay(genDay, prevMonth.Year(), prevMonth.Month())
	start = prevOccurrence.AddDate(0, 0, 1)
	return start, end
}

// occurrenceOfDay returns day-of-month in the given month, clamped to the
// month's length, at midnight UTC.
func occurrenceOfDay(day, year int, month time.Month) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dueDate derives the payment due date from the account configuration. A
// value of 1-31 is a day of the month following the period end, clamped to
// that month's length; larger values are a day offset after the period end.
func dueDate(paymentDueDay int, periodEnd time.Time) time.Time {
	if paymentDueDay > 31 {
		return periodEnd.AddDate(0, 0, paymentDueDay)
	}
	next := periodEnd.AddDate(0, 1, 0)
	return occurrenceOfDay(paymentDueDay, next.Year(), next.Month())
}
