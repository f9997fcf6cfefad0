package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/surveyd/internal/models"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	AddResponse(ctx context.Context, r *models.Response) error
	ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error)
	GetResponse(ctx context.Context, surveyID, responseID string) (*models.Response, error)
}

// SubmitRequest carries a decoded submission into the service layer.
type SubmitRequest struct {
	SurveyID     string
	RespondentID string
	Answers      []models.Answer
}

// ResponsePage is one page of a survey's responses, newest first.
type ResponsePage struct {
	Responses []*models.Response `json:"responses"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"per_page"`
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type ResponseService struct {
	store       ResponseStore
	now         func() time.Time
	idGenerator func() string
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Submit validates the answers against the survey's questions and stores
// the response.
func (s *ResponseService) Submit(ctx context.Context, req SubmitRequest) (*models.Response, error) {
	sv, err := s.store.GetSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	if err := ValidateAnswers(sv, req.Answers); err != nil {
		return nil, err
	}
	resp := &models.Response{
		ID:           s.idGenerator(),
		SurveyID:     sv.ID,
		RespondentID: req.RespondentID,
		SubmittedAt:  s.now(),
		Answers:      req.Answers,
	}
	if err := s.store.AddResponse(ctx, resp); err != nil {
		if errors.Is(err, models.ErrSurveyNotFound) {
			return nil, NewNotFoundError(msgSurveyNotFound)
		}
		return nil, fmt.Errorf("add response: %w", err)
	}
	return resp, nil
}

// ValidateAnswers rejects unknown question ids, missing required answers
// and values that do not match the question type.
func ValidateAnswers(sv *models.Survey, answers []models.Answer) error {
	answered := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		q, ok := sv.Question(a.QuestionID)
		if !ok {
			return NewInvalidError(fmt.Sprintf("Question %s does not exist in this survey.", a.QuestionID))
		}
		if err := validateValue(q, a.Value); err != nil {
			return err
		}
		answered[a.QuestionID] = struct{}{}
	}
	for _, q := range sv.Questions {
		if !q.Required {
			continue
		}
		if _, ok := answered[q.ID]; !ok {
			return NewInvalidError(fmt.Sprintf("Question %s is required.", q.ID))
		}
	}
	return nil
}

func validateValue(q models.Question, raw models.AnswerValue) error {
	v := raw.Resolve(q.Type)
	switch q.Type {
	case models.QuestionMultipleChoice:
		if v.Kind != models.KindText {
			return NewInvalidError(fmt.Sprintf("Question %s expects a single choice.", q.ID))
		}
		if !q.HasChoice(v.Text) {
			return NewInvalidError(fmt.Sprintf("Invalid choice for question %s.", q.ID))
		}
	case models.QuestionCheckbox:
		if !raw.IsList() {
			return NewInvalidError(fmt.Sprintf("Checkbox question %s requires a list of choices.", q.ID))
		}
		for _, it := range v.Items {
			if !q.HasChoice(it) {
				return NewInvalidError(fmt.Sprintf("Invalid choice %s for question %s.", it, q.ID))
			}
		}
	case models.QuestionRating:
		if v.Kind != models.KindNumber || v.Number != math.Trunc(v.Number) {
			return NewInvalidError(fmt.Sprintf("Rating for question %s must be an integer.", q.ID))
		}
		if v.Number < float64(q.Min) || v.Number > float64(q.Max) {
			return NewInvalidError(fmt.Sprintf("Rating for question %s must be between %d and %d.", q.ID, q.Min, q.Max))
		}
	case models.QuestionText:
		if v.Kind == models.KindNone {
			return NewInvalidError(fmt.Sprintf("Question %s expects a text answer.", q.ID))
		}
	}
	return nil
}

// List returns one page of responses. page starts at 1; out of range values
// are clamped.
func (s *ResponseService) List(ctx context.Context, surveyID string, page, perPage int) (*ResponsePage, error) {
	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	all, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return &ResponsePage{Responses: all[start:end], Total: len(all), Page: page, PerPage: perPage}, nil
}

func (s *ResponseService) Get(ctx context.Context, surveyID, responseID string) (*models.Response, error) {
	r, err := s.store.GetResponse(ctx, surveyID, responseID)
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	if r == nil {
		return nil, NewNotFoundError("Response not found.")
	}
	return r, nil
}
