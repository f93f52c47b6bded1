package middleware

import (
	"mime"
	"net/http"

	"prof_match/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UUIDParams rejects the request with 400 unless every named URL parameter is a UUID.
// It must be attached with r.With or inside a route group so the parameters are already resolved.
func UUIDParams(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, name := range names {
				if _, err := uuid.Parse(chi.URLParam(r, name)); err != nil {
					common.RespondWithErr(w, common.NewValidation(name, "must be a UUID"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON rejects bodies that are not declared as application/json.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				common.RespondWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
