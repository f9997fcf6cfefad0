package services

import (
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/soaringjerry/surveyd/internal/models"
)

const textSampleLimit = 5

// QuestionStats is the per-question summary. The concrete type depends on
// the question type: *ChoiceStats, *RatingStats or *TextStats.
type QuestionStats interface {
	QuestionType() models.QuestionType
}

// ChoiceStats covers multiple_choice and checkbox questions.
type ChoiceStats struct {
	Type           models.QuestionType `json:"type"`
	Counts         map[string]int      `json:"counts"`
	Percentages    map[string]float64  `json:"percentages"`
	SelectionRates map[string]float64  `json:"selection_rates,omitempty"`
	TotalResponses int                 `json:"total_responses"`
}

func (s *ChoiceStats) QuestionType() models.QuestionType { return s.Type }

type RatingStats struct {
	Type           models.QuestionType `json:"type"`
	TotalResponses int                 `json:"total_responses"`
	Average        float64             `json:"average"`
	Median         float64             `json:"median"`
	Distribution   map[string]int      `json:"distribution"`
}

func (s *RatingStats) QuestionType() models.QuestionType { return s.Type }

type TextStats struct {
	Type          models.QuestionType `json:"type"`
	ResponseCount int                 `json:"response_count"`
	AverageLength float64             `json:"average_length"`
	Samples       []string            `json:"samples"`
}

func (s *TextStats) QuestionType() models.QuestionType { return s.Type }

// Aggregate computes statistics for every question. Answers are grouped by
// question id in response order; answers to ids outside the schema are
// dropped. Repeated answers to the same question within one response are
// all counted.
func Aggregate(questions []models.Question, responses []*models.Response) map[string]QuestionStats {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	grouped := make(map[string][]models.AnswerValue, len(questions))
	for _, r := range responses {
		if r == nil {
			continue
		}
		for _, a := range r.Answers {
			if _, ok := known[a.QuestionID]; !ok {
				continue
			}
			grouped[a.QuestionID] = append(grouped[a.QuestionID], a.Value)
		}
	}

	out := make(map[string]QuestionStats, len(questions))
	for _, q := range questions {
		values := grouped[q.ID]
		switch q.Type {
		case models.QuestionMultipleChoice:
			out[q.ID] = aggregateMultipleChoice(values)
		case models.QuestionCheckbox:
			out[q.ID] = aggregateCheckbox(values)
		case models.QuestionRating:
			out[q.ID] = aggregateRating(values)
		case models.QuestionText:
			out[q.ID] = aggregateText(values)
		}
	}
	return out
}

func aggregateMultipleChoice(values []models.AnswerValue) *ChoiceStats {
	st := &ChoiceStats{
		Type:        models.QuestionMultipleChoice,
		Counts:      map[string]int{},
		Percentages: map[string]float64{},
	}
	selections := 0
	for _, raw := range values {
		v := raw.Resolve(models.QuestionMultipleChoice)
		switch v.Kind {
		case models.KindText:
			st.Counts[v.Text]++
			selections++
		case models.KindItems:
			for _, it := range v.Items {
				st.Counts[it]++
				selections++
			}
		default:
			continue
		}
		st.TotalResponses++
	}
	if selections > 0 {
		for c, n := range st.Counts {
			st.Percentages[c] = float64(n) / float64(selections) * 100
		}
	}
	return st
}

func aggregateCheckbox(values []models.AnswerValue) *ChoiceStats {
	st := &ChoiceStats{
		Type:        models.QuestionCheckbox,
		Counts:      map[string]int{},
		Percentages: map[string]float64{},
	}
	for _, raw := range values {
		v := raw.Resolve(models.QuestionCheckbox)
		if v.Kind != models.KindItems {
			continue
		}
		st.TotalResponses++
		for _, it := range v.Items {
			st.Counts[it]++
		}
	}
	if st.TotalResponses > 0 {
		for c, n := range st.Counts {
			st.Percentages[c] = float64(n) / float64(st.TotalResponses) * 100
		}
	}
	st.SelectionRates = make(map[string]float64, len(st.Percentages))
	for c, p := range st.Percentages {
		st.SelectionRates[c] = p
	}
	return st
}

func aggregateRating(values []models.AnswerValue) *RatingStats {
	st := &RatingStats{Type: models.QuestionRating, Distribution: map[string]int{}}
	nums := make([]float64, 0, len(values))
	for _, raw := range values {
		v := raw.Resolve(models.QuestionRating)
		if v.Kind == models.KindNumber {
			nums = append(nums, v.Number)
		}
	}
	if len(nums) == 0 {
		return st
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
		st.Distribution[strconv.Itoa(int(n))]++
	}
	st.TotalResponses = len(nums)
	st.Average = sum / float64(len(nums))
	st.Median = median(nums)
	return st
}

// median sorts nums in place.
func median(nums []float64) float64 {
	sort.Float64s(nums)
	n := len(nums)
	if n%2 == 1 {
		return nums[n/2]
	}
	return (nums[n/2-1] + nums[n/2]) / 2
}

// aggregateText keeps the first textSampleLimit answers as samples. Stores
// list responses newest first, so samples are the most recent answers.
func aggregateText(values []models.AnswerValue) *TextStats {
	st := &TextStats{Type: models.QuestionText, Samples: []string{}}
	total := 0
	for _, raw := range values {
		v := raw.Resolve(models.QuestionText)
		if v.Kind != models.KindText {
			continue
		}
		st.ResponseCount++
		total += utf8.RuneCountInString(v.Text)
		if len(st.Samples) < textSampleLimit {
			st.Samples = append(st.Samples, v.Text)
		}
	}
	if st.ResponseCount > 0 {
		st.AverageLength = float64(total) / float64(st.ResponseCount)
	}
	return st
}
