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

var transactionTracer = otel.Tracer("service/transactions")

// TransactionService manages ledger entries. Every mutation flows through
// the repository's atomic operations so account balances always equal the
// sum of completed transaction effects.
type TransactionService struct {
	transactions port.TransactionRepository
	accounts     port.AccountRepository
	categories   port.CategoryRepository
	logger       *zap.Logger
}

// NewTransactionService wires the transaction service.
func NewTransactionService(transactions port.TransactionRepository, accounts port.AccountRepository, categories port.CategoryRepository, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		logger:       logger,
	}
}

// Create records a new transaction and applies its balance effect.
func (s *TransactionService) Create(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := transactionTracer.Start(ctx, "transactions.Create")
	defer span.End()

	tx, err := s.buildTransaction(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	tx.ID = uuid.NewString()
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.Int64("amount", tx.Amount))
	return tx, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	return s.transactions.GetTransaction(ctx, userID, txID)
}

// List returns transactions matching the filter.
func (s *TransactionService) List(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.transactions.ListTransactions(ctx, userID, filter)
}

// Update replaces a transaction. The old balance effect is reversed and the
// new one applied in a single atomic step, so editing an amount from A to B
// moves the balance by exactly B-A.
func (s *TransactionService) Update(ctx context.Context, userID, txID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := transactionTracer.Start(ctx, "transactions.Update")
	defer span.End()

	tx, err := s.buildTransaction(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	tx.ID = txID

	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return s.transactions.GetTransaction(ctx, userID, txID)
}

// Delete removes a transaction, reversing its balance effect.
func (s *TransactionService) Delete(ctx context.Context, userID, txID string) error {
	ctx, span := transactionTracer.Start(ctx, "transactions.Delete")
	defer span.End()

	return s.transactions.DeleteTransaction(ctx, userID, txID)
}

// BulkDelete removes a set of transactions atomically. If any id is missing
// the whole operation fails and nothing changes.
func (s *TransactionService) BulkDelete(ctx context.Context, userID string, req *domain.BulkDeleteRequest) (int, error) {
	ctx, span := transactionTracer.Start(ctx, "transactions.BulkDelete")
	defer span.End()

	if err := req.Validate(); err != nil {
		return 0, err
	}

	count, err := s.transactions.BulkDeleteTransactions(ctx, userID, req.IDs)
	if err != nil {
		return 0, err
	}

	s.logger.Info("transactions bulk deleted",
		zap.Int("count", count))
	return count, nil
}

// buildTransaction validates the request and resolves referenced resources
// under the caller's ownership.
func (s *TransactionService) buildTransaction(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}
	if req.ToAccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, userID, req.ToAccountID); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != "" {
		if _, err := s.categories.GetCategory(ctx, userID, req.CategoryID); err != nil {
			return nil, err
		}
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "invalid date"}
	}

	status := req.Status
	if status == "" {
		status = domain.StatusCompleted
	}

	return &domain.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        date,
		Payee:       req.Payee,
		Notes:       req.Notes,
		Status:      status,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
