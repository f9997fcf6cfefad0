package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/soaringjerry/surveyd/internal/models"
	"github.com/soaringjerry/surveyd/internal/services"
)

// SurveyLookup fetches a survey, returning nil when it does not exist.
type SurveyLookup interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
}

// RequireSurveyAccess lets admins and the survey owner through. It answers
// 404 for unknown surveys and 403 for everybody else. The survey id is read
// from the chi URL parameter named param.
func RequireSurveyAccess(store SurveyLookup, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			id := chi.URLParam(r, param)
			sv, err := store.GetSurvey(r.Context(), id)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("survey_id", id).Msg("survey lookup failed")
				writeMessage(w, http.StatusInternalServerError, "internal error")
				return
			}
			if err := services.AuthorizeSurvey(sv, c.UID, c.IsAdmin()); err != nil {
				status := http.StatusForbidden
				if services.IsNotFound(err) {
					status = http.StatusNotFound
				}
				writeMessage(w, status, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
