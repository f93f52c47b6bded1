package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

var migrations = []struct {
	name  string
	query string
}{
	{"questions", `
		CREATE TABLE IF NOT EXISTS questions (
			id   UUID PRIMARY KEY,
			text VARCHAR(200) NOT NULL
		)`},
	{"answers", `
		CREATE TABLE IF NOT EXISTS answers (
			id          UUID PRIMARY KEY,
			question_id UUID NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			text        VARCHAR(200) NOT NULL
		)`},
	{"answers_question_idx", `CREATE INDEX IF NOT EXISTS answers_question_idx ON answers (question_id)`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id   UUID PRIMARY KEY,
			name VARCHAR(50) NOT NULL
		)`},
	{"answer_weights", `
		CREATE TABLE IF NOT EXISTS answer_weights (
			answer_id   UUID NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			score       INTEGER NOT NULL,
			PRIMARY KEY (answer_id, category_id)
		)`},
	{"faculties", `
		CREATE TABLE IF NOT EXISTS faculties (
			id          UUID PRIMARY KEY,
			name        VARCHAR(50) NOT NULL,
			url         VARCHAR(200) NOT NULL DEFAULT '',
			category_id UUID NOT NULL REFERENCES categories(id)
		)`},
	{"faculties_category_idx", `CREATE INDEX IF NOT EXISTS faculties_category_idx ON faculties (category_id)`},
	{"exams", `
		CREATE TABLE IF NOT EXISTS exams (
			id   UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			code VARCHAR(50) NOT NULL UNIQUE
		)`},
	{"faculty_exam_requirements", `
		CREATE TABLE IF NOT EXISTS faculty_exam_requirements (
			faculty_id UUID NOT NULL REFERENCES faculties(id) ON DELETE CASCADE,
			exam_id    UUID NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
			min_score  INTEGER NOT NULL CHECK (min_score >= 0),
			PRIMARY KEY (faculty_id, exam_id)
		)`},
	{"applicants", `
		CREATE TABLE IF NOT EXISTS applicants (
			id           UUID PRIMARY KEY,
			surname      VARCHAR(30) NOT NULL,
			name         VARCHAR(30) NOT NULL,
			patronymic   VARCHAR(30),
			phone_number VARCHAR(11) NOT NULL UNIQUE,
			city         VARCHAR(100),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"applicant_category_results", `
		CREATE TABLE IF NOT EXISTS applicant_category_results (
			applicant_id UUID NOT NULL REFERENCES applicants(id) ON DELETE CASCADE,
			category_id  UUID NOT NULL REFERENCES categories(id),
			compliance   INTEGER NOT NULL,
			PRIMARY KEY (applicant_id, category_id)
		)`},
	{"applicant_exam_scores", `
		CREATE TABLE IF NOT EXISTS applicant_exam_scores (
			applicant_id UUID NOT NULL REFERENCES applicants(id) ON DELETE CASCADE,
			exam_id      UUID NOT NULL REFERENCES exams(id),
			score        INTEGER NOT NULL CHECK (score >= 0),
			PRIMARY KEY (applicant_id, exam_id)
		)`},
	{"import_jobs", `
		CREATE TABLE IF NOT EXISTS import_jobs (
			id         UUID PRIMARY KEY,
			status     VARCHAR(20) NOT NULL,
			payload    JSONB NOT NULL,
			attempts   INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
}

// RunMigrations creates any missing tables and indexes. Every statement is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	log.Println("Running database migrations...")

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.query); err != nil {
			log.Printf("ERROR: Failed to run migration %s: %v", m.name, err)
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
