package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/surveyd/internal/models"
)

func exportFixture() *ExportTable {
	ts := time.Date(2025, 9, 17, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	rs := []*models.Response{
		{
			ID: "r2", RespondentID: "u2", SubmittedAt: ts,
			Answers: []models.Answer{
				{QuestionID: "colors", Value: models.ItemsValue("red", "blue")},
				{QuestionID: "rate", Value: models.NumberValue(4)},
			},
		},
		{
			ID: "r1", SubmittedAt: ts.Add(-time.Hour),
			Answers: []models.Answer{{QuestionID: "note", Value: models.TextValue("hello, world")}},
		},
	}
	return BuildExportTable([]string{"colors", "rate", "note"}, rs)
}

func TestBuildExportTable(t *testing.T) {
	table := exportFixture()
	wantCols := []string{"response_id", "respondent", "submitted_at", "colors", "rate", "note"}
	if strings.Join(table.Columns, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("columns %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	first := table.Rows[0]
	if first[2] != "2025-09-17T09:30:00Z" {
		t.Fatalf("submitted_at must be UTC RFC3339, got %s", first[2])
	}
	if first[3] != "red;blue" || first[4] != "4" || first[5] != "" {
		t.Fatalf("unexpected row %v", first)
	}
	if table.Rows[1][1] != "" || table.Rows[1][5] != "hello, world" {
		t.Fatalf("unexpected row %v", table.Rows[1])
	}
}

func TestEncodeCSV(t *testing.T) {
	b, err := EncodeCSV(exportFixture())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	recs, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(recs))
	}
	if recs[0][0] != "response_id" || recs[2][5] != "hello, world" {
		t.Fatalf("unexpected csv %v", recs)
	}
}

func TestEncodeExcel(t *testing.T) {
	b, err := EncodeExcel(exportFixture())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != ExcelSheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(ExcelSheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[1][3] != "red;blue" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestEncodeJSONKeepsColumnOrder(t *testing.T) {
	b, err := EncodeJSON(exportFixture())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(b, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 2 || rows[0]["colors"] != "red;blue" {
		t.Fatalf("unexpected rows %v", rows)
	}
	s := string(b)
	if strings.Index(s, `"response_id"`) > strings.Index(s, `"respondent"`) ||
		strings.Index(s, `"submitted_at"`) > strings.Index(s, `"colors"`) ||
		strings.Index(s, `"rate"`) > strings.Index(s, `"note"`) {
		t.Fatalf("keys out of column order: %s", s)
	}
}
