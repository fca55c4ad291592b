package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

func newTransactionFixture(t *testing.T) (*TransactionService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewTransactionService(store, store, store, zap.NewNop())

	for _, id := range []string{"acc-1", "acc-2"} {
		store.CreateAccount(context.Background(), &domain.Account{
			ID: id, UserID: testUser, Name: id,
			Type: domain.AccountChecking, Currency: "USD",
			CreatedAt: time.Now().UTC(),
		})
	}
	return svc, store
}

func balanceOf(t *testing.T, store *fakeStore, accountID string) int64 {
	t.Helper()
	a, err := store.GetAccount(context.Background(), testUser, accountID)
	if err != nil {
		t.Fatalf("GetAccount(%s): %v", accountID, err)
	}
	return a.Balance
}

func TestCreateTransactionAppliesBalanceEffect(t *testing.T) {
	svc, store := newTransactionFixture(t)

	_, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionIncome,
		Amount: 5000, Date: "2026-04-01", Payee: "Employer",
	})
	if err != nil {
		t.Fatalf("Create income: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != 5000 {
		t.Errorf("balance = %d, want 5000", got)
	}

	_, err = svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1200, Date: "2026-04-02", Payee: "Grocer",
	})
	if err != nil {
		t.Fatalf("Create expense: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != 3800 {
		t.Errorf("balance = %d, want 3800", got)
	}
}

func TestCreatePendingTransactionHasNoEffect(t *testing.T) {
	svc, store := newTransactionFixture(t)

	_, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Pending shop",
		Status: domain.StatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != 0 {
		t.Errorf("balance = %d, want 0 for a pending transaction", got)
	}
}

func TestTransferMovesBalanceBetweenAccounts(t *testing.T) {
	svc, store := newTransactionFixture(t)

	_, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", ToAccountID: "acc-2",
		Type: domain.TransactionTransfer,
		Amount: 2500, Date: "2026-04-01", Payee: "Savings move",
	})
	if err != nil {
		t.Fatalf("Create transfer: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != -2500 {
		t.Errorf("source balance = %d, want -2500", got)
	}
	if got := balanceOf(t, store, "acc-2"); got != 2500 {
		t.Errorf("destination balance = %d, want 2500", got)
	}
}

func TestUpdateTransactionMovesBalanceByDifference(t *testing.T) {
	svc, store := newTransactionFixture(t)

	tx, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Repeated edits must each move the balance by exactly the difference.
	amounts := []int64{3000, 500, 500, 7000}
	for _, amount := range amounts {
		_, err := svc.Update(context.Background(), testUser, tx.ID, &domain.TransactionRequest{
			AccountID: "acc-1", Type: domain.TransactionExpense,
			Amount: amount, Date: "2026-04-01", Payee: "Shop",
		})
		if err != nil {
			t.Fatalf("Update to %d: %v", amount, err)
		}
		if got := balanceOf(t, store, "acc-1"); got != -amount {
			t.Errorf("balance after edit to %d = %d, want %d", amount, got, -amount)
		}
	}
}

func TestUpdateTransactionMovesEffectAcrossAccounts(t *testing.T) {
	svc, store := newTransactionFixture(t)

	tx, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(context.Background(), testUser, tx.ID, &domain.TransactionRequest{
		AccountID: "acc-2", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != 0 {
		t.Errorf("old account balance = %d, want 0 after reassignment", got)
	}
	if got := balanceOf(t, store, "acc-2"); got != -1000 {
		t.Errorf("new account balance = %d, want -1000", got)
	}
}

func TestDeleteTransactionReversesEffect(t *testing.T) {
	svc, store := newTransactionFixture(t)

	tx, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionIncome,
		Amount: 4000, Date: "2026-04-01", Payee: "Employer",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), testUser, tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != 0 {
		t.Errorf("balance = %d, want 0 after delete", got)
	}
}

func TestBulkDeleteAllOrNothing(t *testing.T) {
	svc, store := newTransactionFixture(t)

	var ids []string
	for i := 0; i < 3; i++ {
		tx, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
			AccountID: "acc-1", Type: domain.TransactionExpense,
			Amount: 1000, Date: "2026-04-01", Payee: "Shop",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	_, err := svc.BulkDelete(context.Background(), testUser, &domain.BulkDeleteRequest{
		IDs: append(ids, "missing-id"),
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := balanceOf(t, store, "acc-1"); got != -3000 {
		t.Errorf("balance = %d, want -3000 untouched after failed bulk delete", got)
	}
	if got := len(store.transactions); got != 3 {
		t.Errorf("transactions = %d, want 3 untouched", got)
	}

	count, err := svc.BulkDelete(context.Background(), testUser, &domain.BulkDeleteRequest{IDs: ids})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if count != 3 {
		t.Errorf("deleted = %d, want 3", count)
	}
	if got := balanceOf(t, store, "acc-1"); got != 0 {
		t.Errorf("balance = %d, want 0 after bulk delete", got)
	}
}

func TestCreateTransactionValidatesReferences(t *testing.T) {
	svc, _ := newTransactionFixture(t)

	_, err := svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "nope", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown account", err)
	}

	_, err = svc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
		CategoryID: "nope",
	})
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown category", err)
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	svc, _ := newTransactionFixture(t)

	cases := []struct {
		name string
		req  domain.TransactionRequest
	}{
		{"zero amount", domain.TransactionRequest{
			AccountID: "acc-1", Type: domain.TransactionExpense,
			Amount: 0, Date: "2026-04-01", Payee: "Shop"}},
		{"self transfer", domain.TransactionRequest{
			AccountID: "acc-1", ToAccountID: "acc-1",
			Type: domain.TransactionTransfer,
			Amount: 100, Date: "2026-04-01", Payee: "Me"}},
		{"bad date", domain.TransactionRequest{
			AccountID: "acc-1", Type: domain.TransactionExpense,
			Amount: 100, Date: "not-a-date", Payee: "Shop"}},
		{"missing payee", domain.TransactionRequest{
			AccountID: "acc-1", Type: domain.TransactionExpense,
			Amount: 100, Date: "2026-04-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), testUser, &tc.req)
			var invalid *domain.ErrInvalidInput
			if !errors.As(err, &invalid) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAccountDeleteBlockedByTransactions(t *testing.T) {
	txSvc, store := newTransactionFixture(t)
	accSvc := NewAccountService(store, store, zap.NewNop())

	_, err := txSvc.Create(context.Background(), testUser, &domain.TransactionRequest{
		AccountID: "acc-1", Type: domain.TransactionExpense,
		Amount: 1000, Date: "2026-04-01", Payee: "Shop",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = accSvc.Delete(context.Background(), testUser, "acc-1")
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	if err := accSvc.Delete(context.Background(), testUser, "acc-2"); err != nil {
		t.Errorf("deleting an unused account failed: %v", err)
	}
}
