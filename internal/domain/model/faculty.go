package model

// Category (faculty type) is a scoring bucket grouping faculties with a shared orientation,
// e.g. "Human-Nature" or "Human-Technology".
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Faculties []Faculty `json:"faculties"`
}

type Faculty struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	CategoryID string `json:"category_id"`
}

type Exam struct {
	ID   string `json:"uuid"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// FacultyExamRequirement is the minimum score a faculty requires in one exam.
// Absence of a row means the exam is not required.
type FacultyExamRequirement struct {
	FacultyID   string `json:"faculty_id"`
	FacultyName string `json:"faculty_name,omitempty"`
	ExamID      string `json:"exam_id"`
	ExamCode    string `json:"exam_code,omitempty"`
	ExamName    string `json:"exam_name,omitempty"`
	MinScore    int    `json:"min_score"`
}
