package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/surveyd/internal/middleware"
	"github.com/soaringjerry/surveyd/internal/models"
	"github.com/soaringjerry/surveyd/internal/services"
)

// POST /api/surveys
func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var in services.CreateSurveyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	sv, err := rt.surveys.Create(r.Context(), claims.UID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

// GET /api/surveys
func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	list, err := rt.surveys.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surveys": list})
}

// GET /api/surveys/{surveyID}
func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.Get(r.Context(), chi.URLParam(r, surveyIDParam))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// PUT /api/surveys/{surveyID}
// { title?, description?, questions? }
func (rt *Router) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, surveyIDParam)
	var in services.UpdateSurveyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	sv, err := rt.surveys.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, sv)
}

// DELETE /api/surveys/{surveyID}
func (rt *Router) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, surveyIDParam)
	if err := rt.surveys.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/surveys/{surveyID}/questions
func (rt *Router) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, surveyIDParam)
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	added, err := rt.surveys.AddQuestion(r.Context(), id, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	writeJSON(w, http.StatusCreated, added)
}

// PUT /api/surveys/{surveyID}/questions/{questionID}
func (rt *Router) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, surveyIDParam)
	var patch services.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	q, err := rt.surveys.UpdateQuestion(r.Context(), id, chi.URLParam(r, questionIDParam), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, q)
}

// DELETE /api/surveys/{surveyID}/questions/{questionID}
func (rt *Router) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, surveyIDParam)
	if err := rt.surveys.DeleteQuestion(r.Context(), id, chi.URLParam(r, questionIDParam)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/surveys/{surveyID}/responses
// { answers: [{question_id, value}] }
func (rt *Router) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, surveyIDParam)
	var req struct {
		Answers []models.Answer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	resp, err := rt.responses.Submit(r.Context(), services.SubmitRequest{
		SurveyID:     id,
		RespondentID: claims.UID,
		Answers:      req.Answers,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rt.invalidate(r.Context(), id)
	writeJSON(w, http.StatusCreated, resp)
}

// GET /api/surveys/{surveyID}/responses?page=&per_page=
func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	out, err := rt.responses.List(r.Context(), chi.URLParam(r, surveyIDParam), page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/surveys/{surveyID}/responses/{responseID}
func (rt *Router) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := rt.responses.Get(r.Context(), chi.URLParam(r, surveyIDParam), chi.URLParam(r, responseIDParam))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
