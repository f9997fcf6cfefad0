package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/surveyd/internal/models"
)

func seededExportStore(n int) *stubStore {
	store := newStubStore(demoSurvey())
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_ = store.AddResponse(ctx, &models.Response{
			ID:          "r" + string(rune('a'+i)),
			SurveyID:    "s1",
			SubmittedAt: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Answers:     []models.Answer{{QuestionID: "color", Value: models.TextValue("red")}},
		})
	}
	return store
}

func TestParseExportFormat(t *testing.T) {
	cases := map[string]ExportFormat{"": FormatCSV, "CSV": FormatCSV, "excel": FormatExcel, "xlsx": FormatExcel, "json": FormatJSON, "pdf": FormatCSV}
	for in, want := range cases {
		if got := ParseExportFormat(in); got != want {
			t.Fatalf("ParseExportFormat(%q)=%s want %s", in, got, want)
		}
	}
}

func TestExportFormats(t *testing.T) {
	svc := NewExportService(seededExportStore(3))
	cases := []struct {
		format      ExportFormat
		filename    string
		contentType string
	}{
		{FormatCSV, "survey_s1_responses.csv", "text/csv"},
		{FormatExcel, "survey_s1_responses.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{FormatJSON, "survey_s1_responses.json", "application/json"},
	}
	for _, tc := range cases {
		res, err := svc.Export(context.Background(), ExportParams{SurveyID: "s1", Format: tc.format})
		if err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if res.Filename != tc.filename {
			t.Fatalf("%s: filename %s", tc.format, res.Filename)
		}
		if !strings.HasPrefix(res.ContentType, tc.contentType) {
			t.Fatalf("%s: content type %s", tc.format, res.ContentType)
		}
		if res.Rows != 3 || len(res.Data) == 0 {
			t.Fatalf("%s: rows=%d bytes=%d", tc.format, res.Rows, len(res.Data))
		}
	}
}

func TestExportJSONRowsMatchResponses(t *testing.T) {
	res, err := NewExportService(seededExportStore(4)).Export(context.Background(), ExportParams{SurveyID: "s1", Format: FormatJSON})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(res.Data, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if _, ok := rows[0]["rate"]; !ok {
		t.Fatalf("every question gets a column: %v", rows[0])
	}
}

func TestExportWithoutResponsesIsNotFound(t *testing.T) {
	svc := NewExportService(seededExportStore(0))
	for _, f := range []ExportFormat{FormatCSV, FormatExcel, FormatJSON} {
		_, err := svc.Export(context.Background(), ExportParams{SurveyID: "s1", Format: f})
		if !IsNotFound(err) {
			t.Fatalf("%s: expected not found, got %v", f, err)
		}
	}
}

func TestExportMissingSurvey(t *testing.T) {
	_, err := NewExportService(newStubStore()).Export(context.Background(), ExportParams{SurveyID: "nope"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
