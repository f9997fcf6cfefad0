package services

import (
	"math"
	"sort"
	"strconv"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/soaringjerry/surveyd/internal/models"
)

func responsesWith(qid string, values ...models.AnswerValue) []*models.Response {
	out := make([]*models.Response, 0, len(values))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range values {
		out = append(out, &models.Response{
			ID:          "r" + strconv.Itoa(i),
			SurveyID:    "s1",
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
			Answers:     []models.Answer{{QuestionID: qid, Value: v}},
		})
	}
	return out
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestAggregateMultipleChoiceScenario(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionMultipleChoice, Text: "Pick", Choices: []string{"A", "B"}}}
	rs := responsesWith("q1", models.TextValue("A"), models.TextValue("B"), models.TextValue("A"))

	st, ok := Aggregate(qs, rs)["q1"].(*ChoiceStats)
	if !ok {
		t.Fatalf("expected choice stats")
	}
	if st.Counts["A"] != 2 || st.Counts["B"] != 1 {
		t.Fatalf("unexpected counts: %v", st.Counts)
	}
	if !approx(st.Percentages["A"], 66.7, 0.05) || !approx(st.Percentages["B"], 33.3, 0.05) {
		t.Fatalf("unexpected percentages: %v", st.Percentages)
	}
	if st.TotalResponses != 3 {
		t.Fatalf("expected 3 responses, got %d", st.TotalResponses)
	}
	if st.SelectionRates != nil {
		t.Fatalf("multiple choice must not carry selection rates")
	}
}

func TestAggregateRatingScenario(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionRating, Text: "Rate", Min: 1, Max: 5}}
	rs := responsesWith("q1", models.NumberValue(4), models.NumberValue(2), models.NumberValue(4), models.NumberValue(5))

	st := Aggregate(qs, rs)["q1"].(*RatingStats)
	if st.Average != 3.75 {
		t.Fatalf("expected average 3.75, got %v", st.Average)
	}
	if st.Median != 4.0 {
		t.Fatalf("expected median 4, got %v", st.Median)
	}
	want := map[string]int{"2": 1, "4": 2, "5": 1}
	if len(st.Distribution) != len(want) {
		t.Fatalf("unexpected distribution: %v", st.Distribution)
	}
	for k, v := range want {
		if st.Distribution[k] != v {
			t.Fatalf("distribution[%s]=%d want %d", k, st.Distribution[k], v)
		}
	}
	if st.TotalResponses != 4 {
		t.Fatalf("expected 4 ratings, got %d", st.TotalResponses)
	}
}

func TestAggregateRatingIgnoresNonNumeric(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionRating, Text: "Rate", Min: 1, Max: 5}}
	rs := responsesWith("q1", models.TextValue("high"), models.NumberValue(3), models.AnswerValue("null"))

	st := Aggregate(qs, rs)["q1"].(*RatingStats)
	if st.TotalResponses != 1 || st.Average != 3 || st.Median != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestAggregateEmptyShapes(t *testing.T) {
	qs := []models.Question{
		{ID: "mc", Type: models.QuestionMultipleChoice, Text: "a", Choices: []string{"x", "y"}},
		{ID: "cb", Type: models.QuestionCheckbox, Text: "b", Choices: []string{"x", "y"}},
		{ID: "rt", Type: models.QuestionRating, Text: "c", Min: 1, Max: 5},
		{ID: "tx", Type: models.QuestionText, Text: "d"},
	}
	out := Aggregate(qs, nil)
	if len(out) != 4 {
		t.Fatalf("every question must be present, got %d", len(out))
	}
	if rt := out["rt"].(*RatingStats); rt.TotalResponses != 0 || rt.Average != 0 || rt.Median != 0 || len(rt.Distribution) != 0 {
		t.Fatalf("unexpected empty rating: %+v", rt)
	}
	if tx := out["tx"].(*TextStats); tx.ResponseCount != 0 || tx.AverageLength != 0 || tx.Samples == nil {
		t.Fatalf("unexpected empty text: %+v", tx)
	}
	if mc := out["mc"].(*ChoiceStats); mc.Counts == nil || mc.Percentages == nil || mc.TotalResponses != 0 {
		t.Fatalf("unexpected empty choice: %+v", mc)
	}
	for id, st := range out {
		if st.QuestionType() == "" {
			t.Fatalf("%s: missing type tag", id)
		}
	}
}

func TestAggregateSkipsUnknownQuestion(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionText, Text: "Say"}}
	rs := []*models.Response{{
		ID: "r1",
		Answers: []models.Answer{
			{QuestionID: "q1", Value: models.TextValue("hi")},
			{QuestionID: "ghost", Value: models.TextValue("boo")},
		},
	}}
	out := Aggregate(qs, rs)
	if _, ok := out["ghost"]; ok {
		t.Fatalf("unknown question must be skipped")
	}
	if out["q1"].(*TextStats).ResponseCount != 1 {
		t.Fatalf("expected one text answer")
	}
}

func TestAggregateTextSamplesAndLength(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionText, Text: "Say"}}
	rs := responsesWith("q1",
		models.TextValue("héllo"), models.TextValue("ab"), models.TextValue("c"),
		models.TextValue("dddd"), models.TextValue("e"), models.TextValue("ffffff"), models.NumberValue(42))

	st := Aggregate(qs, rs)["q1"].(*TextStats)
	if st.ResponseCount != 7 {
		t.Fatalf("expected 7 text answers, got %d", st.ResponseCount)
	}
	wantSamples := []string{"héllo", "ab", "c", "dddd", "e"}
	if len(st.Samples) != len(wantSamples) {
		t.Fatalf("expected %d samples, got %v", len(wantSamples), st.Samples)
	}
	for i := range wantSamples {
		if st.Samples[i] != wantSamples[i] {
			t.Fatalf("sample %d = %q want %q", i, st.Samples[i], wantSamples[i])
		}
	}
	// 5+2+1+4+1+6+2 runes
	if !approx(st.AverageLength, 21.0/7.0, 1e-9) {
		t.Fatalf("unexpected average length %v", st.AverageLength)
	}
}

func TestAggregateDuplicateAnswersAreCounted(t *testing.T) {
	qs := []models.Question{{ID: "q1", Type: models.QuestionMultipleChoice, Text: "Pick", Choices: []string{"A", "B"}}}
	rs := []*models.Response{{ID: "r1", Answers: []models.Answer{
		{QuestionID: "q1", Value: models.TextValue("A")},
		{QuestionID: "q1", Value: models.TextValue("B")},
	}}}
	st := Aggregate(qs, rs)["q1"].(*ChoiceStats)
	if st.TotalResponses != 2 || st.Counts["A"] != 1 || st.Counts["B"] != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestMultipleChoicePercentagesSumToHundred(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		choices := []string{"A", "B", "C", "D"}
		picks := rapid.SliceOfN(rapid.SampledFrom(choices), 1, 60).Draw(rt, "picks")
		values := make([]models.AnswerValue, 0, len(picks))
		for _, p := range picks {
			values = append(values, models.TextValue(p))
		}
		qs := []models.Question{{ID: "q", Type: models.QuestionMultipleChoice, Text: "t", Choices: choices}}
		st := Aggregate(qs, responsesWith("q", values...))["q"].(*ChoiceStats)

		sum := 0.0
		for _, p := range st.Percentages {
			sum += p
		}
		if !approx(sum, 100, 0.1) {
			rt.Fatalf("percentages sum to %v", sum)
		}
		if st.TotalResponses != len(picks) {
			rt.Fatalf("total %d want %d", st.TotalResponses, len(picks))
		}
	})
}

func TestCheckboxSelectionRates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		choices := []string{"red", "green", "blue"}
		n := rapid.IntRange(1, 40).Draw(rt, "respondents")
		values := make([]models.AnswerValue, 0, n)
		want := map[string]int{}
		for i := 0; i < n; i++ {
			sel := rapid.SliceOfNDistinct(rapid.SampledFrom(choices), 0, len(choices), rapid.ID[string]).Draw(rt, "selection")
			for _, c := range sel {
				want[c]++
			}
			values = append(values, models.ItemsValue(sel...))
		}
		qs := []models.Question{{ID: "q", Type: models.QuestionCheckbox, Text: "t", Choices: choices}}
		st := Aggregate(qs, responsesWith("q", values...))["q"].(*ChoiceStats)

		if st.TotalResponses != n {
			rt.Fatalf("total %d want %d", st.TotalResponses, n)
		}
		for c, cnt := range want {
			rate := float64(cnt) / float64(n) * 100
			if !approx(st.Percentages[c], rate, 0.1) {
				rt.Fatalf("percentage[%s]=%v want %v", c, st.Percentages[c], rate)
			}
			if !approx(st.SelectionRates[c], rate, 0.1) {
				rt.Fatalf("selection_rates[%s]=%v want %v", c, st.SelectionRates[c], rate)
			}
		}
	})
}

func TestRatingMedianAndDistribution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ratings := rapid.SliceOfN(rapid.IntRange(1, 5), 1, 50).Draw(rt, "ratings")
		values := make([]models.AnswerValue, 0, len(ratings))
		for _, r := range ratings {
			values = append(values, models.NumberValue(float64(r)))
		}
		qs := []models.Question{{ID: "q", Type: models.QuestionRating, Text: "t", Min: 1, Max: 5}}
		st := Aggregate(qs, responsesWith("q", values...))["q"].(*RatingStats)

		sorted := append([]int(nil), ratings...)
		sort.Ints(sorted)
		var want float64
		if m := len(sorted); m%2 == 1 {
			want = float64(sorted[m/2])
		} else {
			want = float64(sorted[m/2-1]+sorted[m/2]) / 2
		}
		if st.Median != want {
			rt.Fatalf("median %v want %v", st.Median, want)
		}
		for r := 1; r <= 5; r++ {
			exact := 0
			for _, v := range ratings {
				if v == r {
					exact++
				}
			}
			if st.Distribution[strconv.Itoa(r)] != exact {
				rt.Fatalf("distribution[%d]=%d want %d", r, st.Distribution[strconv.Itoa(r)], exact)
			}
		}
	})
}
