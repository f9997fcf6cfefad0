package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/surveyd/internal/middleware"
	"github.com/soaringjerry/surveyd/internal/services"
)

// GET /api/surveys/{surveyID}/analytics?time_series=true&interval=daily|weekly|monthly
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.ParseAnalyticsQuery(q.Get("time_series"), q.Get("interval"))
	start := time.Now()
	res, err := rt.analytics.Summary(r.Context(), chi.URLParam(r, surveyIDParam), query)
	rt.cfg.Metrics.ObserveAnalytics(query.TimeSeries, time.Since(start))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/surveys/{surveyID}/export?format=csv|excel|json
// Exports are never served from the result cache.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(middleware.HeaderCache, "MISS")
	res, err := rt.exports.Export(r.Context(), services.ExportParams{
		SurveyID: chi.URLParam(r, surveyIDParam),
		Format:   services.ParseExportFormat(r.URL.Query().Get("format")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.cfg.Metrics.ExportServed(string(res.Format))
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
