package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

var importTracer = otel.Tracer("service/imports")

// ImportService runs the CSV import pipeline: upload and analysis, preview
// with per-row validation, then confirmed execution through the transaction
// service so every created row carries its ledger effect.
type ImportService struct {
	imports      port.ImportRepository
	accounts     port.AccountRepository
	transactions *TransactionService
	logger       *zap.Logger
}

// NewImportService wires the import pipeline.
func NewImportService(imports port.ImportRepository, accounts port.AccountRepository, transactions *TransactionService, logger *zap.Logger) *ImportService {
	return &ImportService{
		imports:      imports,
		accounts:     accounts,
		transactions: transactions,
		logger:       logger,
	}
}

// Upload parses the CSV payload, detects the column mapping and persists the
// job in analyzed state.
func (s *ImportService) Upload(ctx context.Context, userID string, req *domain.ImportUploadRequest) (*domain.ImportJob, error) {
	ctx, span := importTracer.Start(ctx, "imports.Upload")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(req.Content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.ErrValidation{Field: "content", Message: fmt.Sprintf("invalid CSV: %v", err)}
	}
	if len(records) < 2 {
		return nil, &domain.ErrValidation{Field: "content", Message: "file needs a header row and at least one data row"}
	}

	header := records[0]
	rows := records[1:]
	mapping := detectColumns(header, rows[0])

	now := time.Now().UTC()
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		AccountID: req.AccountID,
		Filename:  req.Filename,
		Status:    domain.ImportAnalyzed,
		Header:    header,
		Rows:      rows,
		Mapping:   mapping,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.imports.CreateImport(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("import uploaded",
		zap.String("import_id", job.ID),
		zap.Int("rows", len(rows)))
	return job, nil
}

// Preview validates every row under the given mapping (or the detected one)
// and persists the per-row results.
func (s *ImportService) Preview(ctx context.Context, userID, importID string, mapping *domain.ColumnMapping) (*domain.ImportJob, error) {
	ctx, span := importTracer.Start(ctx, "imports.Preview")
	defer span.End()

	job, err := s.imports.GetImport(ctx, userID, importID)
	if err != nil {
		return nil, err
	}
	if mapping != nil {
		job.Mapping = *mapping
	}

	job.RowErrors = validateRows(job.Rows, job.Mapping)
	job.Status = domain.ImportPreviewed

	if err := s.imports.UpdateImport(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Confirm creates a transaction for each valid row and marks the job
// completed. Rows that failed preview validation are skipped.
func (s *ImportService) Confirm(ctx context.Context, userID, importID string, req *domain.ImportConfirmRequest) (*domain.ImportJob, error) {
	ctx, span := importTracer.Start(ctx, "imports.Confirm")
	defer span.End()

	job, err := s.imports.GetImport(ctx, userID, importID)
	if err != nil {
		return nil, err
	}
	if req.Mapping != nil {
		job.Mapping = *req.Mapping
	}
	if job.Status == domain.ImportCompleted {
		return nil, &domain.ErrConflict{Message: "import already executed"}
	}

	job.RowErrors = validateRows(job.Rows, job.Mapping)
	bad := make(map[int]bool, len(job.RowErrors))
	for _, re := range job.RowErrors {
		bad[re.Row] = true
	}

	created := 0
	for i, row := range job.Rows {
		if bad[i+1] {
			continue
		}
		txReq := rowToRequest(row, job.Mapping, job.AccountID)
		if _, err := s.transactions.Create(ctx, userID, txReq); err != nil {
			job.RowErrors = append(job.RowErrors, domain.RowError{
				Row: i + 1, Field: "row", Message: err.Error(),
			})
			continue
		}
		created++
	}

	job.Status = domain.ImportCompleted
	job.CreatedCount = created
	if err := s.imports.UpdateImport(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("import executed",
		zap.String("import_id", job.ID),
		zap.Int("created", created),
		zap.Int("failed", len(job.RowErrors)))
	return job, nil
}

// Get returns one import job.
func (s *ImportService) Get(ctx context.Context, userID, importID string) (*domain.ImportJob, error) {
	return s.imports.GetImport(ctx, userID, importID)
}

// List returns the user's import history.
func (s *ImportService) List(ctx context.Context, userID string) ([]domain.ImportJob, error) {
	return s.imports.ListImports(ctx, userID)
}

// Delete removes an import job from the history.
func (s *ImportService) Delete(ctx context.Context, userID, importID string) error {
	return s.imports.DeleteImport(ctx, userID, importID)
}

// headerHints maps transaction fields to header keywords, checked in order.
var headerHints = map[string][]string{
	"date":     {"date", "time", "posted"},
	"amount":   {"amount", "value", "sum"},
	"payee":    {"payee", "description", "merchant", "narration"},
	"notes":    {"notes", "memo", "remark"},
	"type":     {"type", "direction"},
	"category": {"category"},
}

// detectColumns maps CSV columns to transaction fields using header
// keywords first, then value patterns from the first data row.
func detectColumns(header, firstRow []string) domain.ColumnMapping {
	m := domain.ColumnMapping{Date: -1, Amount: -1, Payee: -1, Notes: -1, Type: -1, Category: -1}

	assign := func(field string, idx int) {
		switch field {
		case "date":
			if m.Date == -1 {
				m.Date = idx
			}
		case "amount":
			if m.Amount == -1 {
				m.Amount = idx
			}
		case "payee":
			if m.Payee == -1 {
				m.Payee = idx
			}
		case "notes":
			if m.Notes == -1 {
				m.Notes = idx
			}
		case "type":
			if m.Type == -1 {
				m.Type = idx
			}
		case "category":
			if m.Category == -1 {
				m.Category = idx
			}
		}
	}

	for idx, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		for field, hints := range headerHints {
			for _, hint := range hints {
				if strings.Contains(name, hint) {
					assign(field, idx)
				}
			}
		}
	}

	// Fall back to value patterns for the essential columns.
	for idx, val := range firstRow {
		if m.Date == -1 && isDateValue(val) && idx != m.Amount {
			m.Date = idx
		}
		if m.Amount == -1 && isAmountValue(val) && idx != m.Date {
			m.Amount = idx
		}
	}
	return m
}

func isDateValue(s string) bool {
	_, err := domain.ParseDate(strings.TrimSpace(s))
	return err == nil
}

func isAmountValue(s string) bool {
	_, err := parseAmount(s)
	return err == nil
}

// parseAmount converts a decimal string to minor units. Thousands
// separators and currency symbols are stripped.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "$€£₹")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return roundHalfUp(v * 100), nil
}

// validateRows checks every data row against the mapping. Row numbers are
// 1-based over the data rows.
func validateRows(rows [][]string, m domain.ColumnMapping) []domain.RowError {
	var errs []domain.RowError

	if m.Date == -1 {
		return []domain.RowError{{Row: 0, Field: "mapping", Message: "no date column detected"}}
	}
	if m.Amount == -1 {
		return []domain.RowError{{Row: 0, Field: "mapping", Message: "no amount column detected"}}
	}

	for i, row := range rows {
		n := i + 1
		if m.Date >= len(row) || !isDateValue(row[m.Date]) {
			errs = append(errs, domain.RowError{Row: n, Field: "date", Message: "invalid or missing date"})
			continue
		}
		if m.Amount >= len(row) {
			errs = append(errs, domain.RowError{Row: n, Field: "amount", Message: "missing amount"})
			continue
		}
		amount, err := parseAmount(row[m.Amount])
		if err != nil {
			errs = append(errs, domain.RowError{Row: n, Field: "amount", Message: "invalid amount"})
			continue
		}
		if amount == 0 {
			errs = append(errs, domain.RowError{Row: n, Field: "amount", Message: "amount must not be zero"})
		}
	}
	return errs
}

// rowToRequest builds a transaction request from a validated row. Negative
// amounts are expenses, positive amounts income, unless a type column says
// otherwise.
func rowToRequest(row []string, m domain.ColumnMapping, accountID string) *domain.TransactionRequest {
	amount, _ := parseAmount(row[m.Amount])

	txType := domain.TransactionExpense
	if amount > 0 {
		txType = domain.TransactionIncome
	}
	if m.Type >= 0 && m.Type < len(row) {
		switch strings.ToLower(strings.TrimSpace(row[m.Type])) {
		case "income", "credit", "deposit":
			txType = domain.TransactionIncome
		case "expense", "debit", "withdrawal":
			txType = domain.TransactionExpense
		}
	}
	if amount < 0 {
		amount = -amount
	}

	payee := "Imported"
	if m.Payee >= 0 && m.Payee < len(row) && strings.TrimSpace(row[m.Payee]) != "" {
		payee = strings.TrimSpace(row[m.Payee])
	}
	notes := ""
	if m.Notes >= 0 && m.Notes < len(row) {
		notes = strings.TrimSpace(row[m.Notes])
	}

	date, _ := domain.ParseDate(strings.TrimSpace(row[m.Date]))

	return &domain.TransactionRequest{
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Date:      date.Format("2006-01-02"),
		Payee:     payee,
		Notes:     notes,
		Status:    domain.StatusCompleted,
	}
}
