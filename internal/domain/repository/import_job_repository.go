package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

type ImportJobRepository interface {
	CreateJob(ctx context.Context, tx *sql.Tx, job *model.ImportJob) error
	GetJobByID(ctx context.Context, id string) (*model.ImportJob, error)
	UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error
	IncrementJobAttempts(ctx context.Context, tx *sql.Tx, jobID string) error
}

type pgImportJobRepository struct {
	db *sql.DB
}

func NewPgImportJobRepository(db *sql.DB) ImportJobRepository {
	return &pgImportJobRepository{db: db}
}

func (r *pgImportJobRepository) CreateJob(ctx context.Context, tx *sql.Tx, job *model.ImportJob) error {
	query := `INSERT INTO import_jobs (id, status, payload, attempts)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := on(r.db, tx).QueryRowContext(ctx, query, job.ID, job.Status, []byte(job.Payload), job.Attempts).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgImportJobRepository.CreateJob: %w", err)
	}
	return nil
}

func (r *pgImportJobRepository) GetJobByID(ctx context.Context, id string) (*model.ImportJob, error) {
	job := &model.ImportJob{}
	var payload []byte
	var lastError sql.NullString
	query := `SELECT id, status, payload, attempts, last_error, created_at, updated_at
	          FROM import_jobs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Status, &payload, &job.Attempts, &lastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("import job", id)
		}
		return nil, fmt.Errorf("pgImportJobRepository.GetJobByID: %w", err)
	}
	job.Payload = payload
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	return job, nil
}

func (r *pgImportJobRepository) UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error {
	query := `UPDATE import_jobs SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	res, err := on(r.db, tx).ExecContext(ctx, query, status, lastError, jobID)
	if err != nil {
		return fmt.Errorf("pgImportJobRepository.UpdateJobStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewNotFound("import job", jobID)
	}
	return nil
}

func (r *pgImportJobRepository) IncrementJobAttempts(ctx context.Context, tx *sql.Tx, jobID string) error {
	query := `UPDATE import_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := on(r.db, tx).ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("pgImportJobRepository.IncrementJobAttempts: %w", err)
	}
	return nil
}
