package api

import (
	"context"
	"sort"
	"sync"

	"github.com/soaringjerry/surveyd/internal/models"
)

type memoryStore struct {
	mu        sync.RWMutex
	surveys   map[string]*models.Survey
	responses map[string][]*models.Response
}

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:   map[string]*models.Survey{},
		responses: map[string][]*models.Response{},
	}
}

func (s *memoryStore) CreateSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return models.ErrSurveyExists
	}
	s.surveys[sv.ID] = sv.Clone()
	return nil
}

func (s *memoryStore) GetSurvey(_ context.Context, id string) (*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surveys[id].Clone(), nil
}

func (s *memoryStore) ListSurveys(context.Context) ([]*models.Survey, error) {
	s.mu.RLock()
	out := make([]*models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, sv.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) DeleteSurvey(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[id]; !ok {
		return false, nil
	}
	delete(s.surveys, id)
	delete(s.responses, id)
	return true, nil
}

func (s *memoryStore) AddQuestion(_ context.Context, surveyID string, q models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[surveyID]
	if !ok {
		return models.ErrSurveyNotFound
	}
	if _, exists := sv.Question(q.ID); exists {
		return models.ErrQuestionExists
	}
	q.Choices = append([]string(nil), q.Choices...)
	sv.Questions = append(sv.Questions, q)
	return nil
}

func (s *memoryStore) UpdateSurvey(_ context.Context, sv *models.Survey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.surveys[sv.ID]
	if !ok {
		return false, nil
	}
	next := sv.Clone()
	next.OwnerID, next.CreatedAt = cur.OwnerID, cur.CreatedAt
	s.surveys[sv.ID] = next
	return true, nil
}

func (s *memoryStore) UpdateQuestion(_ context.Context, surveyID string, q models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[surveyID]
	if !ok {
		return models.ErrSurveyNotFound
	}
	for i := range sv.Questions {
		if sv.Questions[i].ID == q.ID {
			q.Choices = append([]string(nil), q.Choices...)
			sv.Questions[i] = q
			return nil
		}
	}
	return models.ErrQuestionNotFound
}

func (s *memoryStore) DeleteQuestion(_ context.Context, surveyID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *memoryStore) GetResponse(_ context.Context, surveyID, responseID string) (*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses[surveyID] {
		if r.ID == responseID {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) AddResponse(_ context.Context, r *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[r.SurveyID]; !ok {
		return models.ErrSurveyNotFound
	}
	s.responses[r.SurveyID] = append(s.responses[r.SurveyID], r.Clone())
	return nil
}

func (s *memoryStore) ListResponses(_ context.Context, surveyID string) ([]*models.Response, error) {
	s.mu.RLock()
	src := s.responses[surveyID]
	out := make([]*models.Response, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i].Clone())
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }
