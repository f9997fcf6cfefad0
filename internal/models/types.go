package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the caller role carried in auth claims.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRespondent Role = "respondent"
)

// QuestionType selects both the accepted answer shape and the aggregation rule.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionRating         QuestionType = "rating"
	QuestionText           QuestionType = "text"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionRating, QuestionText:
		return true
	}
	return false
}

// HasChoices reports whether answers to t are drawn from a choice set.
func (t QuestionType) HasChoices() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckbox
}

// TimeSeriesKey holds the time series in an analytics result, next to the
// per-question entries, so no question may use it as its id.
const TimeSeriesKey = "time_series"

const (
	DefaultRatingMin = 1
	DefaultRatingMax = 5
)

// Question is a typed prompt within a survey.
type Question struct {
	ID       string       `json:"question_id"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Order    int          `json:"order"`
	Choices  []string     `json:"choices,omitempty"`
	Required bool         `json:"required"`
	Min      int          `json:"min,omitempty"`
	Max      int          `json:"max,omitempty"`
}

// Normalize fills the rating range defaults when neither bound was given.
func (q *Question) Normalize() {
	q.ID = strings.TrimSpace(q.ID)
	if q.Type == QuestionRating && q.Min == 0 && q.Max == 0 {
		q.Min, q.Max = DefaultRatingMin, DefaultRatingMax
	}
}

// Validate checks the type-specific constraints of a question definition.
func (q Question) Validate() error {
	if q.ID == "" {
		return errors.New("question_id required")
	}
	if q.ID == TimeSeriesKey {
		return fmt.Errorf("question_id %q is reserved", TimeSeriesKey)
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unsupported question type %q", q.Type)
	}
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text required")
	}
	if q.Type.HasChoices() {
		seen := make(map[string]struct{}, len(q.Choices))
		for _, c := range q.Choices {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("question %s: empty choice", q.ID)
			}
			if _, dup := seen[c]; dup {
				return fmt.Errorf("question %s: duplicate choice %q", q.ID, c)
			}
			seen[c] = struct{}{}
		}
		if len(seen) < 2 {
			return fmt.Errorf("question %s: at least two choices required", q.ID)
		}
	}
	if q.Type == QuestionRating && q.Min >= q.Max {
		return fmt.Errorf("question %s: rating min must be below max", q.ID)
	}
	return nil
}

// HasChoice reports whether c belongs to the question's choice set.
func (q Question) HasChoice(c string) bool {
	for _, v := range q.Choices {
		if v == c {
			return true
		}
	}
	return false
}

// Survey is a named collection of ordered questions owned by one admin user.
type Survey struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Question returns the question with the given id.
func (s *Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Clone returns a deep copy so stores can hand out snapshots.
func (s *Survey) Clone() *Survey {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Choices = append([]string(nil), q.Choices...)
		out.Questions[i] = q
	}
	return &out
}

// Answer is one value given to one question.
type Answer struct {
	QuestionID string      `json:"question_id"`
	Value      AnswerValue `json:"value"`
}

// Response is one respondent's submission to a survey.
type Response struct {
	ID           string    `json:"id"`
	SurveyID     string    `json:"survey_id"`
	RespondentID string    `json:"respondent,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Answers      []Answer  `json:"answers"`
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Answers = make([]Answer, len(r.Answers))
	for i, a := range r.Answers {
		out.Answers[i] = Answer{QuestionID: a.QuestionID, Value: append(AnswerValue(nil), a.Value...)}
	}
	return &out
}
