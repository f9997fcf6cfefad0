package mongostore

import (
	"time"

	"github.com/soaringjerry/surveyd/internal/models"
)

type questionDocument struct {
	ID       string   `bson:"id"`
	Type     string   `bson:"type"`
	Text     string   `bson:"text"`
	Order    int      `bson:"order"`
	Choices  []string `bson:"choices,omitempty"`
	Required bool     `bson:"required"`
	Min      int      `bson:"min,omitempty"`
	Max      int      `bson:"max,omitempty"`
}

type surveyDocument struct {
	ID          string             `bson:"_id"`
	OwnerID     string             `bson:"ownerId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Questions   []questionDocument `bson:"questions"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// answerDocument keeps the submitted JSON verbatim so values of any shape
// survive the round trip.
type answerDocument struct {
	QuestionID string `bson:"questionId"`
	Value      string `bson:"value"`
}

type responseDocument struct {
	ID           string           `bson:"_id"`
	SurveyID     string           `bson:"surveyId"`
	RespondentID string           `bson:"respondentId,omitempty"`
	SubmittedAt  time.Time        `bson:"submittedAt"`
	Answers      []answerDocument `bson:"answers"`
}

func toQuestionDocument(q models.Question) questionDocument {
	return questionDocument{
		ID:       q.ID,
		Type:     string(q.Type),
		Text:     q.Text,
		Order:    q.Order,
		Choices:  append([]string(nil), q.Choices...),
		Required: q.Required,
		Min:      q.Min,
		Max:      q.Max,
	}
}

func (d questionDocument) model() models.Question {
	return models.Question{
		ID:       d.ID,
		Type:     models.QuestionType(d.Type),
		Text:     d.Text,
		Order:    d.Order,
		Choices:  append([]string(nil), d.Choices...),
		Required: d.Required,
		Min:      d.Min,
		Max:      d.Max,
	}
}

func toSurveyDocument(sv *models.Survey) surveyDocument {
	doc := surveyDocument{
		ID:          sv.ID,
		OwnerID:     sv.OwnerID,
		Title:       sv.Title,
		Description: sv.Description,
		Questions:   make([]questionDocument, 0, len(sv.Questions)),
		CreatedAt:   sv.CreatedAt.UTC(),
		UpdatedAt:   sv.UpdatedAt.UTC(),
	}
	for _, q := range sv.Questions {
		doc.Questions = append(doc.Questions, toQuestionDocument(q))
	}
	return doc
}

func (d surveyDocument) model() *models.Survey {
	sv := &models.Survey{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Questions:   make([]models.Question, 0, len(d.Questions)),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	for _, q := range d.Questions {
		sv.Questions = append(sv.Questions, q.model())
	}
	return sv
}

func toResponseDocument(r *models.Response) responseDocument {
	doc := responseDocument{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		RespondentID: r.RespondentID,
		SubmittedAt:  r.SubmittedAt.UTC(),
		Answers:      make([]answerDocument, 0, len(r.Answers)),
	}
	for _, a := range r.Answers {
		raw, _ := a.Value.MarshalJSON()
		doc.Answers = append(doc.Answers, answerDocument{QuestionID: a.QuestionID, Value: string(raw)})
	}
	return doc
}

func (d responseDocument) model() *models.Response {
	r := &models.Response{
		ID:           d.ID,
		SurveyID:     d.SurveyID,
		RespondentID: d.RespondentID,
		SubmittedAt:  d.SubmittedAt.UTC(),
		Answers:      make([]models.Answer, 0, len(d.Answers)),
	}
	for _, a := range d.Answers {
		r.Answers = append(r.Answers, models.Answer{QuestionID: a.QuestionID, Value: models.AnswerValue(a.Value)})
	}
	return r
}
