// Package postgres implements the repository ports on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Store wraps a Postgres connection pool and implements the repository
// ports. The pool is injected so tests and tools can share one.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore builds a Store around an existing pool.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Open connects to Postgres, configures the pool and ensures the schema
// exists.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewStore(db, logger)
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("connected to postgres")
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// isForeignKeyViolation reports whether err is a Postgres foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			currency TEXT NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			credit_limit BIGINT,
			bill_generation_day INT,
			payment_due_day INT,
			interest_rate DOUBLE PRECISION,
			min_payment_rate DOUBLE PRECISION,
			current_bill_paid BOOLEAN,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, name, type)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id UUID NOT NULL REFERENCES accounts(id),
			to_account_id UUID REFERENCES accounts(id),
			category_id UUID REFERENCES categories(id),
			type TEXT NOT NULL,
			amount BIGINT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			payee TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date)`,

		`CREATE TABLE IF NOT EXISTS credit_card_bills (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id UUID NOT NULL REFERENCES accounts(id),
			period_start TIMESTAMPTZ NOT NULL,
			period_end TIMESTAMPTZ NOT NULL,
			generation_date TIMESTAMPTZ NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			amount BIGINT NOT NULL,
			minimum_payment BIGINT NOT NULL,
			previous_balance BIGINT NOT NULL,
			new_charges BIGINT NOT NULL,
			payments_credits BIGINT NOT NULL,
			interest_charged BIGINT NOT NULL,
			late_fees BIGINT NOT NULL,
			transaction_count INT NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_amount BIGINT NOT NULL DEFAULT 0,
			paid_date TIMESTAMPTZ,
			status TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (account_id, period_start, period_end)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_user ON credit_card_bills(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_account ON credit_card_bills(account_id)`,

		`CREATE TABLE IF NOT EXISTS import_jobs (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id UUID NOT NULL REFERENCES accounts(id),
			filename TEXT NOT NULL,
			status TEXT NOT NULL,
			header JSONB NOT NULL DEFAULT '[]',
			rows JSONB NOT NULL DEFAULT '[]',
			mapping JSONB NOT NULL DEFAULT '{}',
			row_errors JSONB NOT NULL DEFAULT '[]',
			created_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_jobs_user ON import_jobs(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
