package model

import "time"

type Applicant struct {
	ID          string    `json:"uuid"`
	Surname     string    `json:"surname"`
	Name        string    `json:"name"`
	Patronymic  *string   `json:"patronymic,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	City        *string   `json:"city,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplicantCategoryResult holds the compliance an applicant reached in one category
// on their latest questionnaire submission.
type ApplicantCategoryResult struct {
	ApplicantID string `json:"applicant_id"`
	CategoryID  string `json:"category_id"`
	Compliance  int    `json:"compliance"`
}

type ApplicantExamScore struct {
	ApplicantID string `json:"-"`
	ExamID      string `json:"exam_id"`
	ExamName    string `json:"exam_name,omitempty"`
	ExamCode    string `json:"exam_code,omitempty"`
	Score       int    `json:"score"`
}
