package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"prof_match/internal/app/service"
	"prof_match/internal/common"
	"prof_match/internal/domain/model"
)

// notFoundEverywhere answers every call with a NotFoundError.
type notFoundEverywhere struct{}

func (notFoundEverywhere) RegisterOrUpdate(context.Context, service.RegisterApplicantRequest) (*model.Applicant, error) {
	return nil, common.NewNotFound("applicant", "")
}

func (notFoundEverywhere) SubmitExamScores(context.Context, string, service.SubmitExamScoresRequest) ([]model.Eligibility, error) {
	return nil, common.NewNotFound("applicant", "")
}

func (notFoundEverywhere) GetProfile(_ context.Context, id string) (*model.ApplicantProfile, error) {
	return nil, common.NewNotFound("applicant", id)
}

func (notFoundEverywhere) GetProfileByPhone(_ context.Context, phone string) (*model.ApplicantProfile, error) {
	return nil, common.NewNotFound("applicant", phone)
}

func (notFoundEverywhere) MatchEligibility(_ context.Context, _, facultyID string) (*model.Eligibility, error) {
	return nil, common.NewNotFound("faculty", facultyID)
}

func (notFoundEverywhere) SubmitAnswers(context.Context, service.SubmitAnswersRequest) (*model.Profile, error) {
	return nil, common.NewNotFound("applicant", "")
}

func (notFoundEverywhere) ListQuestions(context.Context) ([]model.Question, error) {
	return []model.Question{}, nil
}

func (notFoundEverywhere) ListExams(context.Context) ([]model.Exam, error) {
	return []model.Exam{}, nil
}

func (notFoundEverywhere) ListRequirements(context.Context) ([]model.FacultyExamRequirement, error) {
	return []model.FacultyExamRequirement{}, nil
}

func (notFoundEverywhere) ListCategories(context.Context) ([]model.Category, error) {
	return []model.Category{}, nil
}

func (notFoundEverywhere) EnqueueImport(context.Context, model.Catalog) (*model.ImportJob, error) {
	return &model.ImportJob{Status: model.ImportStatusQueued}, nil
}

func (notFoundEverywhere) GetJob(_ context.Context, id string) (*model.ImportJob, error) {
	return nil, common.NewNotFound("import job", id)
}

func TestRouterWiring(t *testing.T) {
	s := notFoundEverywhere{}
	router := NewRouter(s, s, s, s)

	tests := []struct {
		method   string
		path     string
		expected int
	}{
		{method: http.MethodGet, path: "/health", expected: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/questions", expected: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/exams/required", expected: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/faculties", expected: http.StatusOK},
		{method: http.MethodGet, path: "/api/v1/applicants/0a000000-0000-4000-8000-000000000001", expected: http.StatusNotFound},
		{method: http.MethodGet, path: "/api/v1/applicants/by-phone/79001234567", expected: http.StatusNotFound},
		{method: http.MethodGet, path: "/api/v1/admin/imports/0f000000-0000-4000-8000-000000000001", expected: http.StatusNotFound},
		{method: http.MethodGet, path: "/api/v1/nowhere", expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
