package model

import (
	"encoding/json"
	"time"
)

const (
	ImportStatusQueued     = "Queued"
	ImportStatusProcessing = "Processing" // Worker picked it up and holds the import lock
	ImportStatusCompleted  = "Completed"
	ImportStatusFailed     = "Failed"
)

// ImportJob is an administrative load of reference data, applied asynchronously by the import worker.
type ImportJob struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"-"` // Catalog, internal use
	Attempts  int             `json:"attempts"`
	LastError *string         `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Catalog is the reference data bundle carried by an ImportJob.
// Rows are upserted by id, so re-importing a catalog is idempotent.
type Catalog struct {
	Categories   []CatalogCategory    `json:"categories" validate:"dive"`
	Questions    []CatalogQuestion    `json:"questions" validate:"dive"`
	Faculties    []CatalogFaculty     `json:"faculties" validate:"dive"`
	Exams        []CatalogExam        `json:"exams" validate:"dive"`
	Requirements []CatalogRequirement `json:"requirements" validate:"dive"`
}

type CatalogCategory struct {
	ID   string `json:"id" validate:"required,uuid"`
	Name string `json:"name" validate:"required,max=50"`
}

type CatalogQuestion struct {
	ID      string          `json:"id" validate:"required,uuid"`
	Text    string          `json:"text" validate:"required,max=200"`
	Answers []CatalogAnswer `json:"answers" validate:"dive"`
}

type CatalogAnswer struct {
	ID      string          `json:"id" validate:"required,uuid"`
	Text    string          `json:"text" validate:"required,max=200"`
	Weights []CatalogWeight `json:"weights" validate:"dive"`
}

type CatalogWeight struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
	Score      int    `json:"score"`
}

type CatalogFaculty struct {
	ID         string `json:"id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required,max=50"`
	URL        string `json:"url" validate:"omitempty,url,max=200"`
	CategoryID string `json:"category_id" validate:"required,uuid"`
}

type CatalogExam struct {
	ID   string `json:"id" validate:"required,uuid"`
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"omitempty,max=50"` // Derived from Name when empty
}

type CatalogRequirement struct {
	FacultyID string `json:"faculty_id" validate:"required,uuid"`
	ExamID    string `json:"exam_id" validate:"required,uuid"`
	MinScore  int    `json:"min_score" validate:"gte=0"`
}
