package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"prof_match/internal/api/middleware"
	"prof_match/internal/app/service"
	"prof_match/internal/common"
	"prof_match/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// ApplicantService is implemented by *service.ApplicantService.
type ApplicantService interface {
	RegisterOrUpdate(ctx context.Context, req service.RegisterApplicantRequest) (*model.Applicant, error)
	SubmitExamScores(ctx context.Context, applicantID string, req service.SubmitExamScoresRequest) ([]model.Eligibility, error)
	GetProfile(ctx context.Context, applicantID string) (*model.ApplicantProfile, error)
	GetProfileByPhone(ctx context.Context, phone string) (*model.ApplicantProfile, error)
	MatchEligibility(ctx context.Context, applicantID, facultyID string) (*model.Eligibility, error)
}

type ApplicantHandler struct {
	applicantService ApplicantService
}

func NewApplicantHandler(as ApplicantService) *ApplicantHandler {
	return &ApplicantHandler{applicantService: as}
}

func (h *ApplicantHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireJSON).Post("/register", h.register) // POST /api/v1/applicants/register
	r.Get("/by-phone/{phone}", h.getProfileByPhone)              // GET /api/v1/applicants/by-phone/79001234567

	r.Group(func(byID chi.Router) {
		byID.Use(middleware.UUIDParams("applicantID"))
		byID.Get("/{applicantID}", h.getProfile)
		byID.With(middleware.RequireJSON).Put("/{applicantID}/exams", h.submitExamScores)
		byID.With(middleware.UUIDParams("facultyID")).Get("/{applicantID}/eligibility/{facultyID}", h.matchEligibility)
	})
}

func (h *ApplicantHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	applicant, err := h.applicantService.RegisterOrUpdate(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, applicant)
}

func (h *ApplicantHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.applicantService.GetProfile(r.Context(), chi.URLParam(r, "applicantID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ApplicantHandler) getProfileByPhone(w http.ResponseWriter, r *http.Request) {
	profile, err := h.applicantService.GetProfileByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ApplicantHandler) submitExamScores(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitExamScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	eligibility, err := h.applicantService.SubmitExamScores(r.Context(), chi.URLParam(r, "applicantID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.Eligibility{"eligibility": eligibility})
}

func (h *ApplicantHandler) matchEligibility(w http.ResponseWriter, r *http.Request) {
	e, err := h.applicantService.MatchEligibility(r.Context(), chi.URLParam(r, "applicantID"), chi.URLParam(r, "facultyID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, e)
}
