package models

import (
	"encoding/json"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		raw  string
		qt   QuestionType
		want Value
	}{
		{`"A"`, QuestionMultipleChoice, Value{Kind: KindText, Text: "A"}},
		{`["A","B"]`, QuestionMultipleChoice, Value{Kind: KindItems, Items: []string{"A", "B"}}},
		{`["x",null,2]`, QuestionCheckbox, Value{Kind: KindItems, Items: []string{"x", "2"}}},
		{`"solo"`, QuestionCheckbox, Value{Kind: KindItems, Items: []string{"solo"}}},
		{`4`, QuestionRating, Value{Kind: KindNumber, Number: 4}},
		{`"4"`, QuestionRating, Value{}},
		{`true`, QuestionText, Value{Kind: KindText, Text: "true"}},
		{`{"a": 1}`, QuestionText, Value{Kind: KindText, Text: `{"a":1}`}},
		{`null`, QuestionText, Value{}},
		{``, QuestionMultipleChoice, Value{}},
	}
	for _, tc := range cases {
		got := AnswerValue(tc.raw).Resolve(tc.qt)
		if got.Kind != tc.want.Kind || got.Text != tc.want.Text || got.Number != tc.want.Number || len(got.Items) != len(tc.want.Items) {
			t.Fatalf("Resolve(%s, %s) = %+v want %+v", tc.raw, tc.qt, got, tc.want)
		}
		for i := range tc.want.Items {
			if got.Items[i] != tc.want.Items[i] {
				t.Fatalf("Resolve(%s) items %v want %v", tc.raw, got.Items, tc.want.Items)
			}
		}
	}
}

func TestCell(t *testing.T) {
	cases := map[string]string{
		`["a","b"]`: "a;b",
		`3`:         "3",
		`2.5`:       "2.5",
		`"hi"`:      "hi",
		`null`:      "",
	}
	for raw, want := range cases {
		if got := AnswerValue(raw).Cell(); got != want {
			t.Fatalf("Cell(%s)=%q want %q", raw, got, want)
		}
	}
}

func TestAnswerJSONRoundTrip(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`{"question_id":"q1","value":["x","y"]}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Value.IsList() {
		t.Fatalf("expected list value")
	}
	b, err := json.Marshal(Answer{QuestionID: "q2"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"question_id":"q2","value":null}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestQuestionValidate(t *testing.T) {
	q := Question{ID: " r ", Type: QuestionRating, Text: "Rate"}
	q.Normalize()
	if q.ID != "r" || q.Min != DefaultRatingMin || q.Max != DefaultRatingMax {
		t.Fatalf("unexpected normalized question %+v", q)
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := Question{ID: "c", Type: QuestionCheckbox, Text: "Pick", Choices: []string{"a", ""}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for empty choice")
	}
}

func TestQuestionValidateReservesTimeSeriesID(t *testing.T) {
	q := Question{ID: TimeSeriesKey, Type: QuestionRating, Text: "Rate"}
	q.Normalize()
	if err := q.Validate(); err == nil {
		t.Fatalf("expected %q to be rejected as a question id", TimeSeriesKey)
	}
}
