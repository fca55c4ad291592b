package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

var accountTracer = otel.Tracer("service/accounts")

// AccountService manages financial accounts.
type AccountService struct {
	accounts     port.AccountRepository
	transactions port.TransactionRepository
	logger       *zap.Logger
}

// NewAccountService wires the account service.
func NewAccountService(accounts port.AccountRepository, transactions port.TransactionRepository, logger *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, transactions: transactions, logger: logger}
}

// Create opens a new account with an optional opening balance.
func (s *AccountService) Create(ctx context.Context, userID string, req *domain.CreateAccountRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "accounts.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		Currency:  req.Currency,
		Balance:   req.Balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Type == domain.AccountCreditCard {
		cc := *req.CreditCard
		cc.CurrentBillPaid = true
		account.CreditCard = &cc
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("type", string(account.Type)))
	return account, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return s.accounts.GetAccount(ctx, userID, accountID)
}

// List returns all of the user's accounts.
func (s *AccountService) List(ctx context.Context, userID string) ([]domain.Account, error) {
	return s.accounts.ListAccounts(ctx, userID)
}

// Update renames an account and adjusts credit-card settings. Type,
// currency and balance are immutable here.
func (s *AccountService) Update(ctx context.Context, userID, accountID string, req *domain.UpdateAccountRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "accounts.Update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	account.Name = req.Name
	if req.CreditCard != nil {
		if !account.IsCreditCard() {
			return nil, &domain.ErrInvalidAccountType{AccountID: accountID, Type: account.Type}
		}
		paid := account.CreditCard.CurrentBillPaid
		cc := *req.CreditCard
		cc.CurrentBillPaid = paid
		account.CreditCard = &cc
	}

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes an account. Accounts with ledger history cannot be
// deleted; the transactions must go first.
func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	ctx, span := accountTracer.Start(ctx, "accounts.Delete")
	defer span.End()

	has, err := s.transactions.AccountHasTransactions(ctx, accountID)
	if err != nil {
		return err
	}
	if has {
		return &domain.ErrConflict{Message: "account has transactions and cannot be deleted"}
	}

	if err := s.accounts.DeleteAccount(ctx, userID, accountID); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", accountID))
	return nil
}
