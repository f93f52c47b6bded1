package handler

import (
	"context"
	"net/http"

	"prof_match/internal/common"
	"prof_match/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ReferenceService interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
	ListExams(ctx context.Context) ([]model.Exam, error)
	ListRequirements(ctx context.Context) ([]model.FacultyExamRequirement, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// ReferenceHandler serves read-only reference data. Empty lists are returned as [].
type ReferenceHandler struct {
	referenceService ReferenceService
}

func NewReferenceHandler(rs ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: rs}
}

func (h *ReferenceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/questions", h.listQuestions)
	r.Get("/exams", h.listExams)
	r.Get("/exams/required", h.listRequirements)
	r.Get("/faculties", h.listCategories)
}

func (h *ReferenceHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.referenceService.ListQuestions(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Question{"questions": questions})
}

func (h *ReferenceHandler) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.referenceService.ListExams(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Exam{"exams": exams})
}

func (h *ReferenceHandler) listRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.referenceService.ListRequirements(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.FacultyExamRequirement{"required_exams": reqs})
}

func (h *ReferenceHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.referenceService.ListCategories(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Category{"categories": categories})
}
