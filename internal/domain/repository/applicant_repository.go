package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

type ApplicantRepository interface {
	// UpsertApplicant inserts a new applicant or updates the one owning the same phone number.
	// ID, CreatedAt and UpdatedAt are filled from the stored row.
	UpsertApplicant(ctx context.Context, tx *sql.Tx, a *model.Applicant) error
	FindApplicantByID(ctx context.Context, id string) (*model.Applicant, error)
	FindApplicantByPhone(ctx context.Context, phone string) (*model.Applicant, error)

	// ReplaceCategoryResults drops every stored result of the applicant and writes results instead.
	ReplaceCategoryResults(ctx context.Context, tx *sql.Tx, applicantID string, results []model.ApplicantCategoryResult) error
	ListCategoryResults(ctx context.Context, applicantID string) ([]model.ApplicantCategoryResult, error)

	UpsertExamScore(ctx context.Context, tx *sql.Tx, s model.ApplicantExamScore) error
	ListExamScores(ctx context.Context, applicantID string) ([]model.ApplicantExamScore, error)
}

type pgApplicantRepository struct {
	db *sql.DB
}

func NewPgApplicantRepository(db *sql.DB) ApplicantRepository {
	return &pgApplicantRepository{db: db}
}

func (r *pgApplicantRepository) UpsertApplicant(ctx context.Context, tx *sql.Tx, a *model.Applicant) error {
	query := `INSERT INTO applicants (id, surname, name, patronymic, phone_number, city)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (phone_number) DO UPDATE
	          SET surname = EXCLUDED.surname, name = EXCLUDED.name,
	              patronymic = EXCLUDED.patronymic, city = EXCLUDED.city,
	              updated_at = CURRENT_TIMESTAMP
	          RETURNING id, created_at, updated_at`
	err := on(r.db, tx).QueryRowContext(ctx, query, a.ID, a.Surname, a.Name, a.Patronymic, a.PhoneNumber, a.City).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgApplicantRepository.UpsertApplicant: %w", err)
	}
	return nil
}

const applicantColumns = `SELECT id, surname, name, patronymic, phone_number, city, created_at, updated_at FROM applicants`

func (r *pgApplicantRepository) FindApplicantByID(ctx context.Context, id string) (*model.Applicant, error) {
	a, err := scanApplicant(r.db.QueryRowContext(ctx, applicantColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("applicant", id)
		}
		return nil, fmt.Errorf("pgApplicantRepository.FindApplicantByID: %w", err)
	}
	return a, nil
}

func (r *pgApplicantRepository) FindApplicantByPhone(ctx context.Context, phone string) (*model.Applicant, error) {
	a, err := scanApplicant(r.db.QueryRowContext(ctx, applicantColumns+` WHERE phone_number = $1`, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("applicant", phone)
		}
		return nil, fmt.Errorf("pgApplicantRepository.FindApplicantByPhone: %w", err)
	}
	return a, nil
}

func scanApplicant(row *sql.Row) (*model.Applicant, error) {
	a := &model.Applicant{}
	var patronymic, city sql.NullString
	if err := row.Scan(&a.ID, &a.Surname, &a.Name, &patronymic, &a.PhoneNumber, &city, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if patronymic.Valid {
		a.Patronymic = &patronymic.String
	}
	if city.Valid {
		a.City = &city.String
	}
	return a, nil
}

func (r *pgApplicantRepository) ReplaceCategoryResults(ctx context.Context, tx *sql.Tx, applicantID string, results []model.ApplicantCategoryResult) error {
	q := on(r.db, tx)

	// Row lock keeps concurrent submissions for the same applicant from interleaving.
	var locked string
	err := q.QueryRowContext(ctx, `SELECT id FROM applicants WHERE id = $1 FOR UPDATE`, applicantID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.NewNotFound("applicant", applicantID)
		}
		return fmt.Errorf("pgApplicantRepository.ReplaceCategoryResults lock: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM applicant_category_results WHERE applicant_id = $1`, applicantID); err != nil {
		return fmt.Errorf("pgApplicantRepository.ReplaceCategoryResults delete: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	insert := `INSERT INTO applicant_category_results (applicant_id, category_id, compliance) VALUES ($1, $2, $3)`
	var stmt *sql.Stmt
	if tx != nil {
		stmt, err = tx.PrepareContext(ctx, insert)
	} else {
		stmt, err = r.db.PrepareContext(ctx, insert)
	}
	if err != nil {
		return fmt.Errorf("pgApplicantRepository.ReplaceCategoryResults prepare: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.ExecContext(ctx, applicantID, res.CategoryID, res.Compliance); err != nil {
			return fmt.Errorf("pgApplicantRepository.ReplaceCategoryResults insert category %s: %w", res.CategoryID, err)
		}
	}
	return nil
}

func (r *pgApplicantRepository) ListCategoryResults(ctx context.Context, applicantID string) ([]model.ApplicantCategoryResult, error) {
	query := `SELECT applicant_id, category_id, compliance FROM applicant_category_results WHERE applicant_id = $1`
	rows, err := r.db.QueryContext(ctx, query, applicantID)
	if err != nil {
		return nil, fmt.Errorf("pgApplicantRepository.ListCategoryResults query: %w", err)
	}
	defer rows.Close()

	results := []model.ApplicantCategoryResult{}
	for rows.Next() {
		var res model.ApplicantCategoryResult
		if err := rows.Scan(&res.ApplicantID, &res.CategoryID, &res.Compliance); err != nil {
			return nil, fmt.Errorf("pgApplicantRepository.ListCategoryResults scan: %w", err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgApplicantRepository.ListCategoryResults rows.Err: %w", err)
	}
	return results, nil
}

func (r *pgApplicantRepository) UpsertExamScore(ctx context.Context, tx *sql.Tx, s model.ApplicantExamScore) error {
	query := `INSERT INTO applicant_exam_scores (applicant_id, exam_id, score) VALUES ($1, $2, $3)
	          ON CONFLICT (applicant_id, exam_id) DO UPDATE SET score = EXCLUDED.score`
	if _, err := on(r.db, tx).ExecContext(ctx, query, s.ApplicantID, s.ExamID, s.Score); err != nil {
		return fmt.Errorf("pgApplicantRepository.UpsertExamScore: %w", err)
	}
	return nil
}

func (r *pgApplicantRepository) ListExamScores(ctx context.Context, applicantID string) ([]model.ApplicantExamScore, error) {
	query := `SELECT s.applicant_id, s.exam_id, e.name, e.code, s.score
	          FROM applicant_exam_scores s
	          JOIN exams e ON e.id = s.exam_id
	          WHERE s.applicant_id = $1
	          ORDER BY e.code`
	rows, err := r.db.QueryContext(ctx, query, applicantID)
	if err != nil {
		return nil, fmt.Errorf("pgApplicantRepository.ListExamScores query: %w", err)
	}
	defer rows.Close()

	scores := []model.ApplicantExamScore{}
	for rows.Next() {
		var s model.ApplicantExamScore
		if err := rows.Scan(&s.ApplicantID, &s.ExamID, &s.ExamName, &s.ExamCode, &s.Score); err != nil {
			return nil, fmt.Errorf("pgApplicantRepository.ListExamScores scan: %w", err)
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgApplicantRepository.ListExamScores rows.Err: %w", err)
	}
	return scores, nil
}
