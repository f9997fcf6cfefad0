package services

import (
	"context"
	"sort"

	"github.com/soaringjerry/surveyd/internal/models"
)

// SurveyReader returns a survey snapshot, or nil when it does not exist.
type SurveyReader interface {
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
}

// ResponseLister returns every response of a survey in store order.
type ResponseLister interface {
	ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error)
}

// Schema is a read-only view of a survey's question definitions.
type Schema struct {
	Survey    *models.Survey
	Questions []models.Question
}

// QuestionIDs lists question ids in authored order.
func (s *Schema) QuestionIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

type SchemaReader struct {
	store SurveyReader
}

func NewSchemaReader(store SurveyReader) *SchemaReader {
	return &SchemaReader{store: store}
}

// Read loads the survey and orders its questions by position. Questions
// sharing a position keep their insertion order.
func (r *SchemaReader) Read(ctx context.Context, surveyID string) (*Schema, error) {
	sv, err := r.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError(msgSurveyNotFound)
	}
	qs := make([]models.Question, len(sv.Questions))
	copy(qs, sv.Questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return &Schema{Survey: sv, Questions: qs}, nil
}
