package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"prof_match/internal/api/middleware"
	"prof_match/internal/common"
	"prof_match/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ImportService interface {
	EnqueueImport(ctx context.Context, catalog model.Catalog) (*model.ImportJob, error)
	GetJob(ctx context.Context, jobID string) (*model.ImportJob, error)
}

// ImportHandler accepts catalog loads. The routes carry no authentication.
type ImportHandler struct {
	importService ImportService
}

func NewImportHandler(is ImportService) *ImportHandler {
	return &ImportHandler{importService: is}
}

func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireJSON).Post("/", h.enqueueImport)              // POST /api/v1/admin/imports
	r.With(middleware.UUIDParams("jobID")).Get("/{jobID}", h.getImportJob) // GET /api/v1/admin/imports/{jobID}
}

func (h *ImportHandler) enqueueImport(w http.ResponseWriter, r *http.Request) {
	var catalog model.Catalog
	if err := json.NewDecoder(r.Body).Decode(&catalog); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	job, err := h.importService.EnqueueImport(r.Context(), catalog)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *ImportHandler) getImportJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.importService.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
