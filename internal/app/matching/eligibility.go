package matching

import (
	"context"
	"fmt"

	"prof_match/internal/domain/model"
)

type RequirementReader interface {
	FindFaculty(ctx context.Context, id string) (*model.Faculty, error)
	FindRequirements(ctx context.Context, facultyID string) ([]model.FacultyExamRequirement, error)
}

type Matcher struct {
	ref RequirementReader
}

func NewMatcher(ref RequirementReader) *Matcher {
	return &Matcher{ref: ref}
}

// MatchEligibility checks passed (exam_id -> score) against the faculty's current requirements.
func (m *Matcher) MatchEligibility(ctx context.Context, facultyID string, passed map[string]int) (*model.Eligibility, error) {
	faculty, err := m.ref.FindFaculty(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("MatchEligibility: %w", err)
	}
	reqs, err := m.ref.FindRequirements(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("MatchEligibility: requirements of faculty %s: %w", facultyID, err)
	}
	e := Evaluate(*faculty, reqs, passed)
	return &e, nil
}

// Evaluate compares exam scores with requirements. A missing exam goes to Missing,
// a score below the minimum goes to Shortfalls, and the faculty is satisfied when both are empty.
func Evaluate(faculty model.Faculty, reqs []model.FacultyExamRequirement, passed map[string]int) model.Eligibility {
	e := model.Eligibility{
		FacultyID:   faculty.ID,
		FacultyName: faculty.Name,
		Missing:     []string{},
		Shortfalls:  []model.Shortfall{},
	}
	for _, req := range reqs {
		score, ok := passed[req.ExamID]
		switch {
		case !ok:
			e.Missing = append(e.Missing, req.ExamID)
		case score < req.MinScore:
			e.Shortfalls = append(e.Shortfalls, model.Shortfall{ExamID: req.ExamID, Required: req.MinScore, Actual: score})
		}
	}
	e.Satisfied = len(e.Missing) == 0 && len(e.Shortfalls) == 0
	return e
}
