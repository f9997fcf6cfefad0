package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/soaringjerry/surveyd/internal/models"
)

type SurveyStore interface {
	CreateSurvey(ctx context.Context, sv *models.Survey) error
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	DeleteSurvey(ctx context.Context, id string) (bool, error)
	UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error)
	AddQuestion(ctx context.Context, surveyID string, q models.Question) error
	UpdateQuestion(ctx context.Context, surveyID string, q models.Question) error
	DeleteQuestion(ctx context.Context, surveyID, questionID string) error
}

const maxTitleLength = 200

// CreateSurveyInput is the authoring payload for a new survey.
type CreateSurveyInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []models.Question `json:"questions"`
}

// UpdateSurveyInput is a partial survey update. Nil fields are left as they
// are; a non-nil Questions replaces the whole question list.
type UpdateSurveyInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Questions   *[]models.Question `json:"questions"`
}

// QuestionPatch is a partial question update. The id cannot change.
type QuestionPatch struct {
	Type     *models.QuestionType `json:"type"`
	Text     *string              `json:"text"`
	Order    *int                 `json:"order"`
	Choices  *[]string            `json:"choices"`
	Required *bool                `json:"required"`
	Min      *int                 `json:"min"`
	Max      *int                 `json:"max"`
}

func (p QuestionPatch) apply(q *models.Question) {
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Order != nil {
		q.Order = *p.Order
	}
	if p.Choices != nil {
		q.Choices = append([]string(nil), (*p.Choices)...)
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.Min != nil {
		q.Min = *p.Min
	}
	if p.Max != nil {
		q.Max = *p.Max
	}
}

const msgQuestionNotFound = "Question not found."

type SurveyService struct {
	store       SurveyStore
	now         func() time.Time
	idGenerator func() string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

func (s *SurveyService) Create(ctx context.Context, ownerID string, in CreateSurveyInput) (*models.Survey, error) {
	if ownerID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	title, err := checkTitle(in.Title)
	if err != nil {
		return nil, err
	}
	questions, err := prepareQuestions(in.Questions)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sv := &models.Survey{
		ID:          s.idGenerator(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Questions:   questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSurvey(ctx, sv); err != nil {
		if errors.Is(err, models.ErrSurveyExists) {
			return nil, NewConflictError("survey exists")
		}
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return sv, nil
}

func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	return sv, nil
}

func (s *SurveyService) List(ctx context.Context) ([]*models.Survey, error) {
	return s.store.ListSurveys(ctx)
}

// Delete removes the survey together with its responses.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteSurvey(ctx, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if !ok {
		return NewNotFoundError(msgSurveyNotFound)
	}
	return nil
}

// AddQuestion appends q to the survey. A zero position places it last.
func (s *SurveyService) AddQuestion(ctx context.Context, surveyID string, q models.Question) (*models.Question, error) {
	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	if _, exists := sv.Question(q.ID); exists {
		return nil, NewConflictError(fmt.Sprintf("duplicate question id %s", q.ID))
	}
	if q.Order == 0 {
		last := 0
		for _, existing := range sv.Questions {
			if existing.Order > last {
				last = existing.Order
			}
		}
		q.Order = last + 1
	}
	if err := s.store.AddQuestion(ctx, surveyID, q); err != nil {
		switch {
		case errors.Is(err, models.ErrSurveyNotFound):
			return nil, NewNotFoundError(msgSurveyNotFound)
		case errors.Is(err, models.ErrQuestionExists):
			return nil, NewConflictError(fmt.Sprintf("duplicate question id %s", q.ID))
		}
		return nil, fmt.Errorf("add question: %w", err)
	}
	return &q, nil
}

// Update applies a partial update to the survey's title, description or
// question list.
func (s *SurveyService) Update(ctx context.Context, id string, in UpdateSurveyInput) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	if in.Title != nil {
		title, err := checkTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		sv.Title = title
	}
	if in.Description != nil {
		sv.Description = strings.TrimSpace(*in.Description)
	}
	if in.Questions != nil {
		questions, err := prepareQuestions(*in.Questions)
		if err != nil {
			return nil, err
		}
		sv.Questions = questions
	}
	sv.UpdatedAt = s.now()
	ok, err := s.store.UpdateSurvey(ctx, sv)
	if err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	if !ok {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	return sv, nil
}

// UpdateQuestion patches one question and re-validates it.
func (s *SurveyService) UpdateQuestion(ctx context.Context, surveyID, questionID string, patch QuestionPatch) (*models.Question, error) {
	sv, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	q, ok := sv.Question(questionID)
	if !ok {
		return nil, NewNotFoundError(msgQuestionNotFound)
	}
	patch.apply(&q)
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	if err := s.store.UpdateQuestion(ctx, surveyID, q); err != nil {
		return nil, mapQuestionStoreError("update question", err)
	}
	return &q, nil
}

// DeleteQuestion removes a question. Stored answers to it stay in their
// responses but no longer show up in analytics or exports.
func (s *SurveyService) DeleteQuestion(ctx context.Context, surveyID, questionID string) error {
	if err := s.store.DeleteQuestion(ctx, surveyID, questionID); err != nil {
		return mapQuestionStoreError("delete question", err)
	}
	return nil
}

func mapQuestionStoreError(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrSurveyNotFound):
		return NewNotFoundError(msgSurveyNotFound)
	case errors.Is(err, models.ErrQuestionNotFound):
		return NewNotFoundError(msgQuestionNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", NewInvalidError("title required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", NewInvalidError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return title, nil
}

// prepareQuestions normalizes and validates an authored question list. A
// zero position becomes the question's 1-based index.
func prepareQuestions(in []models.Question) ([]models.Question, error) {
	seen := make(map[string]struct{}, len(in))
	questions := make([]models.Question, 0, len(in))
	for i, q := range in {
		q.Normalize()
		if q.Order == 0 {
			q.Order = i + 1
		}
		if err := q.Validate(); err != nil {
			return nil, NewInvalidError(err.Error())
		}
		if _, dup := seen[q.ID]; dup {
			return nil, NewConflictError(fmt.Sprintf("duplicate question id %s", q.ID))
		}
		seen[q.ID] = struct{}{}
		questions = append(questions, q)
	}
	return questions, nil
}
