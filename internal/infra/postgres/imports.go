package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

const importColumns = `id, user_id, account_id, filename, status, header,
	rows, mapping, row_errors, created_count, created_at, updated_at`

// CreateImport persists a new import job. Header, rows, mapping and errors
// are stored as JSONB.
func (s *Store) CreateImport(ctx context.Context, job *domain.ImportJob) error {
	header, rows, mapping, rowErrs, err := marshalImportFields(job)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_jobs (id, user_id, account_id, filename, status,
			header, rows, mapping, row_errors, created_count, created_at,
			updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.UserID, job.AccountID, job.Filename, job.Status,
		header, rows, mapping, rowErrs, job.CreatedCount,
		job.CreatedAt, job.UpdatedAt)
	return err
}

// GetImport fetches one import job scoped to the owning user.
func (s *Store) GetImport(ctx context.Context, userID, importID string) (*domain.ImportJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+importColumns+`
		FROM import_jobs WHERE id = $1 AND user_id = $2`, importID, userID)

	job, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "import", ID: importID}
	}
	return job, err
}

// ListImports returns the user's import jobs, newest first.
func (s *Store) ListImports(ctx context.Context, userID string) ([]domain.ImportJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+importColumns+`
		FROM import_jobs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]domain.ImportJob, 0)
	for rows.Next() {
		job, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// UpdateImport rewrites the job's mutable pipeline state.
func (s *Store) UpdateImport(ctx context.Context, job *domain.ImportJob) error {
	_, rows, mapping, rowErrs, err := marshalImportFields(job)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs SET status = $1, rows = $2, mapping = $3,
			row_errors = $4, created_count = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`,
		job.Status, rows, mapping, rowErrs, job.CreatedCount,
		time.Now().UTC(), job.ID, job.UserID)
	if err != nil {
		return err
	}
	return requireRow(res, "import", job.ID)
}

// DeleteImport removes an import job from the history.
func (s *Store) DeleteImport(ctx context.Context, userID, importID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM import_jobs WHERE id = $1 AND user_id = $2`, importID, userID)
	if err != nil {
		return err
	}
	return requireRow(res, "import", importID)
}

func marshalImportFields(job *domain.ImportJob) (header, rows, mapping, rowErrs []byte, err error) {
	if header, err = json.Marshal(job.Header); err != nil {
		return
	}
	if rows, err = json.Marshal(job.Rows); err != nil {
		return
	}
	if mapping, err = json.Marshal(job.Mapping); err != nil {
		return
	}
	rowErrs, err = json.Marshal(job.RowErrors)
	return
}

func scanImport(row rowScanner) (*domain.ImportJob, error) {
	var job domain.ImportJob
	var header, rows, mapping, rowErrs []byte

	err := row.Scan(&job.ID, &job.UserID, &job.AccountID, &job.Filename,
		&job.Status, &header, &rows, &mapping, &rowErrs, &job.CreatedCount,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(header, &job.Header); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rows, &job.Rows); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mapping, &job.Mapping); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rowErrs, &job.RowErrors); err != nil {
		return nil, err
	}
	return &job, nil
}
