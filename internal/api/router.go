package api

import (
	"net/http"
	"time"

	"prof_match/internal/api/handler"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	applicantService handler.ApplicantService,
	resultService handler.ResultService,
	referenceService handler.ReferenceService,
	importService handler.ImportService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Reference data (questions, exams, requirements, faculties)
		referenceHandler := handler.NewReferenceHandler(referenceService)
		v1.Group(referenceHandler.RegisterRoutes)

		applicantHandler := handler.NewApplicantHandler(applicantService)
		v1.Route("/applicants", applicantHandler.RegisterRoutes)

		resultHandler := handler.NewResultHandler(resultService)
		v1.Route("/results", resultHandler.RegisterRoutes)

		// Catalog imports (no auth in this service)
		importHandler := handler.NewImportHandler(importService)
		v1.Route("/admin/imports", importHandler.RegisterRoutes)
	})

	return r
}
