package model

// Profile is the ranked questionnaire result shown to an applicant.
type Profile struct {
	Applicant  Applicant         `json:"applicant"`
	Categories []CategoryProfile `json:"faculty_type"`
}

type CategoryProfile struct {
	CategoryID string        `json:"id"`
	Name       string        `json:"name"`
	Compliance int           `json:"compliance"`
	Faculties  []FacultyLink `json:"faculties"`
}

type FacultyLink struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Eligibility reports whether exam results satisfy one faculty's requirements.
type Eligibility struct {
	FacultyID   string      `json:"faculty_id"`
	FacultyName string      `json:"faculty_name"`
	Satisfied   bool        `json:"satisfied"`
	Missing     []string    `json:"missing"`
	Shortfalls  []Shortfall `json:"shortfalls"`
}

type Shortfall struct {
	ExamID   string `json:"exam_id"`
	Required int    `json:"required"`
	Actual   int    `json:"actual"`
}

// ApplicantProfile is everything known about an applicant: the stored questionnaire
// result, the exam scores and the per-faculty eligibility derived from them.
type ApplicantProfile struct {
	Applicant   Applicant            `json:"applicant"`
	Categories  []CategoryProfile    `json:"faculty_type"`
	Exams       []ApplicantExamScore `json:"exams"`
	Eligibility []Eligibility        `json:"eligibility"`
}
