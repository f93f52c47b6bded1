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

type ResultService interface {
	SubmitAnswers(ctx context.Context, req service.SubmitAnswersRequest) (*model.Profile, error)
}

type ResultHandler struct {
	resultService ResultService
}

func NewResultHandler(rs ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

func (h *ResultHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireJSON).Post("/", h.submitAnswers) // POST /api/v1/results
}

func (h *ResultHandler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	profile, err := h.resultService.SubmitAnswers(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}
