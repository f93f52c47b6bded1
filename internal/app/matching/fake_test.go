package matching

import (
	"context"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

// fakeReference is an in-memory reference store.
type fakeReference struct {
	questions    map[string]model.Question
	answers      map[string]model.Answer
	weights      []model.AnswerWeight
	categories   map[string]model.Category
	faculties    []model.Faculty
	requirements []model.FacultyExamRequirement
}

func (f *fakeReference) FindQuestionsByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	out := []model.Question{}
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeReference) FindAnswersByIDs(ctx context.Context, ids []string) ([]model.Answer, error) {
	out := []model.Answer{}
	for _, id := range ids {
		if a, ok := f.answers[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeReference) FindAnswerWeights(ctx context.Context, answerIDs []string) ([]model.AnswerWeight, error) {
	want := map[string]bool{}
	for _, id := range answerIDs {
		want[id] = true
	}
	out := []model.AnswerWeight{}
	for _, w := range f.weights {
		if want[w.AnswerID] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeReference) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, common.NewNotFound("category", id)
	}
	return &c, nil
}

func (f *fakeReference) FindFacultiesByCategory(ctx context.Context, categoryID string) ([]model.Faculty, error) {
	out := []model.Faculty{}
	for _, fac := range f.faculties {
		if fac.CategoryID == categoryID {
			out = append(out, fac)
		}
	}
	return out, nil
}

func (f *fakeReference) FindFaculty(ctx context.Context, id string) (*model.Faculty, error) {
	for _, fac := range f.faculties {
		if fac.ID == id {
			fac := fac
			return &fac, nil
		}
	}
	return nil, common.NewNotFound("faculty", id)
}

func (f *fakeReference) FindRequirements(ctx context.Context, facultyID string) ([]model.FacultyExamRequirement, error) {
	out := []model.FacultyExamRequirement{}
	for _, r := range f.requirements {
		if r.FacultyID == facultyID {
			out = append(out, r)
		}
	}
	return out, nil
}

// newFixture: Q1 has answers A1 (10 -> C1), A2 (5 -> C2) and A0 (no weights);
// Q2 has A3 (3 -> C1, 4 -> C2). C1 holds F1 and F2, C2 holds F3, C3 has no faculties.
func newFixture() *fakeReference {
	return &fakeReference{
		questions: map[string]model.Question{
			"Q1": {ID: "Q1", Text: "Do you like working outdoors?"},
			"Q2": {ID: "Q2", Text: "Do you like machines?"},
		},
		answers: map[string]model.Answer{
			"A0": {ID: "A0", QuestionID: "Q1", Text: "No opinion"},
			"A1": {ID: "A1", QuestionID: "Q1", Text: "Yes"},
			"A2": {ID: "A2", QuestionID: "Q1", Text: "Sometimes"},
			"A3": {ID: "A3", QuestionID: "Q2", Text: "Yes"},
		},
		weights: []model.AnswerWeight{
			{AnswerID: "A1", CategoryID: "C1", Score: 10},
			{AnswerID: "A2", CategoryID: "C2", Score: 5},
			{AnswerID: "A3", CategoryID: "C1", Score: 3},
			{AnswerID: "A3", CategoryID: "C2", Score: 4},
		},
		categories: map[string]model.Category{
			"C1": {ID: "C1", Name: "Human-Nature"},
			"C2": {ID: "C2", Name: "Human-Technology"},
			"C3": {ID: "C3", Name: "Human-Sign"},
		},
		faculties: []model.Faculty{
			{ID: "F1", Name: "Agronomy", URL: "https://example.edu/agro", CategoryID: "C1"},
			{ID: "F2", Name: "Veterinary", URL: "https://example.edu/vet", CategoryID: "C1"},
			{ID: "F3", Name: "Mechanization", URL: "https://example.edu/mech", CategoryID: "C2"},
		},
		requirements: []model.FacultyExamRequirement{
			{FacultyID: "F1", ExamID: "E1", MinScore: 60},
			{FacultyID: "F1", ExamID: "E2", MinScore: 40},
		},
	}
}
