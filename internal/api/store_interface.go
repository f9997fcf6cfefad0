package api

import (
	"context"

	"github.com/soaringjerry/surveyd/internal/models"
)

// Store is the persistence collaborator behind the HTTP layer. GetSurvey and
// GetResponse return nil, nil for unknown ids; ListResponses returns newest
// first. UpdateSurvey replaces title, description and the whole question
// list and reports false for unknown surveys.
type Store interface {
	CreateSurvey(ctx context.Context, sv *models.Survey) error
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	DeleteSurvey(ctx context.Context, id string) (bool, error)
	UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error)
	AddQuestion(ctx context.Context, surveyID string, q models.Question) error
	UpdateQuestion(ctx context.Context, surveyID string, q models.Question) error
	DeleteQuestion(ctx context.Context, surveyID, questionID string) error

	AddResponse(ctx context.Context, r *models.Response) error
	GetResponse(ctx context.Context, surveyID, responseID string) (*models.Response, error)
	ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*memoryStore)(nil)
