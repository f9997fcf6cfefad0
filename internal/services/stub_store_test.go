package services

import (
	"context"
	"errors"

	"github.com/soaringjerry/surveyd/internal/models"
)

type stubStore struct {
	surveys   map[string]*models.Survey
	responses map[string][]*models.Response
	listErr   error
}

func newStubStore(surveys ...*models.Survey) *stubStore {
	s := &stubStore{surveys: map[string]*models.Survey{}, responses: map[string][]*models.Response{}}
	for _, sv := range surveys {
		s.surveys[sv.ID] = sv
	}
	return s
}

func (s *stubStore) CreateSurvey(_ context.Context, sv *models.Survey) error {
	if _, ok := s.surveys[sv.ID]; ok {
		return models.ErrSurveyExists
	}
	s.surveys[sv.ID] = sv.Clone()
	return nil
}

func (s *stubStore) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	sv, ok := s.surveys[id]
	if !ok {
		return nil, nil
	}
	return sv.Clone(), nil
}

func (s *stubStore) ListSurveys(context.Context) ([]*models.Survey, error) {
	out := []*models.Survey{}
	for _, sv := range s.surveys {
		out = append(out, sv.Clone())
	}
	return out, nil
}

func (s *stubStore) DeleteSurvey(_ context.Context, id string) (bool, error) {
	if _, ok := s.surveys[id]; !ok {
		return false, nil
	}
	delete(s.surveys, id)
	delete(s.responses, id)
	return true, nil
}

func (s *stubStore) AddQuestion(_ context.Context, surveyID string, q models.Question) error {
	sv, ok := s.surveys[surveyID]
	if !ok {
		return models.ErrSurveyNotFound
	}
	if _, exists := sv.Question(q.ID); exists {
		return models.ErrQuestionExists
	}
	sv.Questions = append(sv.Questions, q)
	return nil
}

func (s *stubStore) UpdateSurvey(_ context.Context, sv *models.Survey) (bool, error) {
	if _, ok := s.surveys[sv.ID]; !ok {
		return false, nil
	}
	s.surveys[sv.ID] = sv.Clone()
	return true, nil
}

func (s *stubStore) UpdateQuestion(_ context.Context, surveyID string, q models.Question) error {
	sv, ok := s.surveys[surveyID]
	if !ok {
		return models.ErrSurveyNotFound
	}
	for i := range sv.Questions {
		if sv.Questions[i].ID == q.ID {
			sv.Questions[i] = q
			return nil
		}
	}
	return models.ErrQuestionNotFound
}

func (s *stubStore) DeleteQuestion(_ context.Context, surveyID, questionID string) error {
	sv, ok := s.surveys[surveyID]
	if !ok {
		return models.ErrSurveyNotFound
	}
	for i := range sv.Questions {
		if sv.Questions[i].ID == questionID {
			sv.Questions = append(sv.Questions[:i:i], sv.Questions[i+1:]...)
			return nil
		}
	}
	return models.ErrQuestionNotFound
}

func (s *stubStore) GetResponse(_ context.Context, surveyID, responseID string) (*models.Response, error) {
	for _, r := range s.responses[surveyID] {
		if r.ID == responseID {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

// AddResponse prepends so listings come back newest first.
func (s *stubStore) AddResponse(_ context.Context, r *models.Response) error {
	if _, ok := s.surveys[r.SurveyID]; !ok {
		return models.ErrSurveyNotFound
	}
	s.responses[r.SurveyID] = append([]*models.Response{r.Clone()}, s.responses[r.SurveyID]...)
	return nil
}

func (s *stubStore) ListResponses(_ context.Context, surveyID string) ([]*models.Response, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []*models.Response{}
	for _, r := range s.responses[surveyID] {
		out = append(out, r.Clone())
	}
	return out, nil
}

var errStubBackend = errors.New("backend down")
