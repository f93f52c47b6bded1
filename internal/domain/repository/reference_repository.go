package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"

	"github.com/lib/pq"
)

// ReferenceRepository reads and loads the administrator-managed reference data:
// questions, answers, answer weights, categories, faculties, exams and requirements.
type ReferenceRepository interface {
	ListQuestions(ctx context.Context) ([]model.Question, error) // With answers
	FindQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error)
	FindAnswersByIDs(ctx context.Context, ids []string) ([]model.Answer, error)
	FindAnswerWeights(ctx context.Context, answerIDs []string) ([]model.AnswerWeight, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	FindCategory(ctx context.Context, id string) (*model.Category, error)
	ListFaculties(ctx context.Context) ([]model.Faculty, error)
	FindFaculty(ctx context.Context, id string) (*model.Faculty, error)
	FindFacultiesByCategory(ctx context.Context, categoryID string) ([]model.Faculty, error)

	ListExams(ctx context.Context) ([]model.Exam, error)
	FindExamsByIDs(ctx context.Context, ids []string) ([]model.Exam, error)
	FindRequirements(ctx context.Context, facultyID string) ([]model.FacultyExamRequirement, error)
	ListRequirements(ctx context.Context) ([]model.FacultyExamRequirement, error)

	UpsertCategory(ctx context.Context, tx *sql.Tx, c *model.Category) error
	UpsertQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error
	UpsertAnswer(ctx context.Context, tx *sql.Tx, a *model.Answer) error
	UpsertAnswerWeight(ctx context.Context, tx *sql.Tx, w model.AnswerWeight) error
	UpsertFaculty(ctx context.Context, tx *sql.Tx, f *model.Faculty) error
	UpsertExam(ctx context.Context, tx *sql.Tx, e *model.Exam) error
	UpsertRequirement(ctx context.Context, tx *sql.Tx, r model.FacultyExamRequirement) error
}

type pgReferenceRepository struct {
	db *sql.DB
}

func NewPgReferenceRepository(db *sql.DB) ReferenceRepository {
	return &pgReferenceRepository{db: db}
}

func (r *pgReferenceRepository) ListQuestions(ctx context.Context) ([]model.Question, error) {
	query := `SELECT q.id, q.text, a.id, a.text
	          FROM questions q
	          LEFT JOIN answers a ON a.question_id = q.id
	          ORDER BY q.text, q.id, a.text, a.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.ListQuestions query: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	index := map[string]int{}
	for rows.Next() {
		var q model.Question
		var answerID, answerText sql.NullString
		if err := rows.Scan(&q.ID, &q.Text, &answerID, &answerText); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.ListQuestions scan: %w", err)
		}
		i, seen := index[q.ID]
		if !seen {
			q.Answers = []model.Answer{}
			questions = append(questions, q)
			i = len(questions) - 1
			index[q.ID] = i
		}
		if answerID.Valid {
			questions[i].Answers = append(questions[i].Answers, model.Answer{ID: answerID.String, QuestionID: q.ID, Text: answerText.String})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.ListQuestions rows.Err: %w", err)
	}
	return questions, nil
}

func (r *pgReferenceRepository) FindQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, text FROM questions WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindQuestionsByIDs query: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.FindQuestionsByIDs scan: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindQuestionsByIDs rows.Err: %w", err)
	}
	return questions, nil
}

func (r *pgReferenceRepository) FindAnswersByIDs(ctx context.Context, ids []string) ([]model.Answer, error) {
	if len(ids) == 0 {
		return []model.Answer{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, question_id, text FROM answers WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindAnswersByIDs query: %w", err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.FindAnswersByIDs scan: %w", err)
		}
		answers = append(answers, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindAnswersByIDs rows.Err: %w", err)
	}
	return answers, nil
}

func (r *pgReferenceRepository) FindAnswerWeights(ctx context.Context, answerIDs []string) ([]model.AnswerWeight, error) {
	if len(answerIDs) == 0 {
		return []model.AnswerWeight{}, nil
	}
	query := `SELECT answer_id, category_id, score FROM answer_weights WHERE answer_id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(answerIDs))
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindAnswerWeights query: %w", err)
	}
	defer rows.Close()

	weights := []model.AnswerWeight{}
	for rows.Next() {
		var w model.AnswerWeight
		if err := rows.Scan(&w.AnswerID, &w.CategoryID, &w.Score); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.FindAnswerWeights scan: %w", err)
		}
		weights = append(weights, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.FindAnswerWeights rows.Err: %w", err)
	}
	return weights, nil
}

func (r *pgReferenceRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.ListCategories query: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.ListCategories scan: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.ListCategories rows.Err: %w", err)
	}
	return categories, nil
}

func (r *pgReferenceRepository) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	c := &model.Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("category", id)
		}
		return nil, fmt.Errorf("pgReferenceRepository.FindCategory: %w", err)
	}
	return c, nil
}

func (r *pgReferenceRepository) ListFaculties(ctx context.Context) ([]model.Faculty, error) {
	return r.queryFaculties(ctx, "ListFaculties", `SELECT id, name, url, category_id FROM faculties ORDER BY name, id`)
}

func (r *pgReferenceRepository) FindFacultiesByCategory(ctx context.Context, categoryID string) ([]model.Faculty, error) {
	return r.queryFaculties(ctx, "FindFacultiesByCategory",
		`SELECT id, name, url, category_id FROM faculties WHERE category_id = $1 ORDER BY name, id`, categoryID)
}

func (r *pgReferenceRepository) queryFaculties(ctx context.Context, op, query string, args ...interface{}) ([]model.Faculty, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	faculties := []model.Faculty{}
	for rows.Next() {
		var f model.Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.URL, &f.CategoryID); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.%s scan: %w", op, err)
		}
		faculties = append(faculties, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s rows.Err: %w", op, err)
	}
	return faculties, nil
}

func (r *pgReferenceRepository) FindFaculty(ctx context.Context, id string) (*model.Faculty, error) {
	f := &model.Faculty{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, url, category_id FROM faculties WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &f.URL, &f.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound("faculty", id)
		}
		return nil, fmt.Errorf("pgReferenceRepository.FindFaculty: %w", err)
	}
	return f, nil
}

func (r *pgReferenceRepository) ListExams(ctx context.Context) ([]model.Exam, error) {
	return r.queryExams(ctx, "ListExams", `SELECT id, name, code FROM exams ORDER BY code`)
}

func (r *pgReferenceRepository) FindExamsByIDs(ctx context.Context, ids []string) ([]model.Exam, error) {
	if len(ids) == 0 {
		return []model.Exam{}, nil
	}
	return r.queryExams(ctx, "FindExamsByIDs", `SELECT id, name, code FROM exams WHERE id = ANY($1::uuid[]) ORDER BY code`, pq.Array(ids))
}

func (r *pgReferenceRepository) queryExams(ctx context.Context, op, query string, args ...interface{}) ([]model.Exam, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.Code); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.%s scan: %w", op, err)
		}
		exams = append(exams, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s rows.Err: %w", op, err)
	}
	return exams, nil
}

const requirementColumns = `SELECT fer.faculty_id, f.name, fer.exam_id, e.code, e.name, fer.min_score
        FROM faculty_exam_requirements fer
        JOIN faculties f ON f.id = fer.faculty_id
        JOIN exams e ON e.id = fer.exam_id`

func (r *pgReferenceRepository) FindRequirements(ctx context.Context, facultyID string) ([]model.FacultyExamRequirement, error) {
	return r.queryRequirements(ctx, "FindRequirements", requirementColumns+` WHERE fer.faculty_id = $1 ORDER BY e.code`, facultyID)
}

func (r *pgReferenceRepository) ListRequirements(ctx context.Context) ([]model.FacultyExamRequirement, error) {
	return r.queryRequirements(ctx, "ListRequirements", requirementColumns+` ORDER BY f.name, e.code`)
}

func (r *pgReferenceRepository) queryRequirements(ctx context.Context, op, query string, args ...interface{}) ([]model.FacultyExamRequirement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	reqs := []model.FacultyExamRequirement{}
	for rows.Next() {
		var req model.FacultyExamRequirement
		if err := rows.Scan(&req.FacultyID, &req.FacultyName, &req.ExamID, &req.ExamCode, &req.ExamName, &req.MinScore); err != nil {
			return nil, fmt.Errorf("pgReferenceRepository.%s scan: %w", op, err)
		}
		reqs = append(reqs, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.%s rows.Err: %w", op, err)
	}
	return reqs, nil
}

// Upserts below are used by catalog import and always run inside its transaction.

func (r *pgReferenceRepository) UpsertCategory(ctx context.Context, tx *sql.Tx, c *model.Category) error {
	query := `INSERT INTO categories (id, name) VALUES ($1, $2)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	if _, err := on(r.db, tx).ExecContext(ctx, query, c.ID, c.Name); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertCategory: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	query := `INSERT INTO questions (id, text) VALUES ($1, $2)
	          ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text`
	if _, err := on(r.db, tx).ExecContext(ctx, query, q.ID, q.Text); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertQuestion: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertAnswer(ctx context.Context, tx *sql.Tx, a *model.Answer) error {
	query := `INSERT INTO answers (id, question_id, text) VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE SET question_id = EXCLUDED.question_id, text = EXCLUDED.text`
	if _, err := on(r.db, tx).ExecContext(ctx, query, a.ID, a.QuestionID, a.Text); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertAnswer: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertAnswerWeight(ctx context.Context, tx *sql.Tx, w model.AnswerWeight) error {
	query := `INSERT INTO answer_weights (answer_id, category_id, score) VALUES ($1, $2, $3)
	          ON CONFLICT (answer_id, category_id) DO UPDATE SET score = EXCLUDED.score`
	if _, err := on(r.db, tx).ExecContext(ctx, query, w.AnswerID, w.CategoryID, w.Score); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertAnswerWeight: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertFaculty(ctx context.Context, tx *sql.Tx, f *model.Faculty) error {
	query := `INSERT INTO faculties (id, name, url, category_id) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, url = EXCLUDED.url, category_id = EXCLUDED.category_id`
	if _, err := on(r.db, tx).ExecContext(ctx, query, f.ID, f.Name, f.URL, f.CategoryID); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertFaculty: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertExam(ctx context.Context, tx *sql.Tx, e *model.Exam) error {
	query := `INSERT INTO exams (id, name, code) VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code`
	if _, err := on(r.db, tx).ExecContext(ctx, query, e.ID, e.Name, e.Code); err != nil {
		if common.IsUniqueViolation(err) { // code taken by another exam
			return &common.ConflictError{Entity: "exam code", Key: e.Code}
		}
		return fmt.Errorf("pgReferenceRepository.UpsertExam: %w", err)
	}
	return nil
}

func (r *pgReferenceRepository) UpsertRequirement(ctx context.Context, tx *sql.Tx, req model.FacultyExamRequirement) error {
	query := `INSERT INTO faculty_exam_requirements (faculty_id, exam_id, min_score) VALUES ($1, $2, $3)
	          ON CONFLICT (faculty_id, exam_id) DO UPDATE SET min_score = EXCLUDED.min_score`
	if _, err := on(r.db, tx).ExecContext(ctx, query, req.FacultyID, req.ExamID, req.MinScore); err != nil {
		return fmt.Errorf("pgReferenceRepository.UpsertRequirement: %w", err)
	}
	return nil
}
