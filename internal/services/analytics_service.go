package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/soaringjerry/surveyd/internal/models"
)

type AnalyticsStore interface {
	SurveyReader
	ResponseLister
}

type AnalyticsService struct {
	schema *SchemaReader
	store  ResponseLister
}

// AnalyticsQuery carries the optional flags of an analytics request.
type AnalyticsQuery struct {
	TimeSeries bool
	Interval   Interval
}

// ParseAnalyticsQuery reads the raw time_series and interval parameters.
// Values that do not parse fall back to no time series and daily buckets.
func ParseAnalyticsQuery(timeSeries, interval string) AnalyticsQuery {
	on, err := strconv.ParseBool(strings.TrimSpace(timeSeries))
	if err != nil {
		on = false
	}
	return AnalyticsQuery{TimeSeries: on, Interval: ParseInterval(interval)}
}

// AnalyticsResult maps question ids to their statistics. TimeSeries is only
// set when the query asked for it.
type AnalyticsResult struct {
	SurveyID   string
	Questions  map[string]QuestionStats
	TimeSeries []TimeBucket
}

// MarshalJSON flattens the result into one object keyed by question id,
// with the time series under "time_series".
func (r *AnalyticsResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Questions)+1)
	for id, st := range r.Questions {
		out[id] = st
	}
	if r.TimeSeries != nil {
		out[models.TimeSeriesKey] = r.TimeSeries
	}
	return json.Marshal(out)
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{schema: NewSchemaReader(store), store: store}
}

func (s *AnalyticsService) Summary(ctx context.Context, surveyID string, q AnalyticsQuery) (*AnalyticsResult, error) {
	schema, err := s.schema.Read(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	res := &AnalyticsResult{
		SurveyID:  surveyID,
		Questions: Aggregate(schema.Questions, responses),
	}
	if q.TimeSeries {
		res.TimeSeries = BuildTimeSeries(responses, q.Interval)
	}
	return res, nil
}
