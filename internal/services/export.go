package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/surveyd/internal/models"
)

const ExcelSheetName = "Responses"

var fixedExportColumns = []string{"response_id", "respondent", "submitted_at"}

// ExportTable is the row-per-response view shared by every export format.
type ExportTable struct {
	Columns []string
	Rows    [][]string
}

// BuildExportTable lays out one row per response in the given order. Question
// columns follow questionIDs; a missing answer leaves an empty cell and a
// repeated answer keeps the last value.
func BuildExportTable(questionIDs []string, responses []*models.Response) *ExportTable {
	cols := make([]string, 0, len(fixedExportColumns)+len(questionIDs))
	cols = append(cols, fixedExportColumns...)
	cols = append(cols, questionIDs...)

	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		if r == nil {
			continue
		}
		byID := make(map[string]models.AnswerValue, len(r.Answers))
		for _, a := range r.Answers {
			byID[a.QuestionID] = a.Value
		}
		row := make([]string, 0, len(cols))
		row = append(row, r.ID, r.RespondentID, r.SubmittedAt.UTC().Format(time.RFC3339))
		for _, qid := range questionIDs {
			if v, ok := byID[qid]; ok {
				row = append(row, v.Cell())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return &ExportTable{Columns: cols, Rows: rows}
}

// EncodeCSV renders the table with a header row.
func EncodeCSV(t *ExportTable) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// EncodeExcel renders the table into a single-sheet workbook.
func EncodeExcel(t *ExportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExcelSheetName); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(ExcelSheetName)
	if err != nil {
		return nil, err
	}
	for i, row := range append([][]string{t.Columns}, t.Rows...) {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orderedRow marshals as a JSON object whose keys follow the column order.
type orderedRow struct {
	cols   []string
	values []string
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeJSON renders the table as an array of flat objects.
func EncodeJSON(t *ExportTable) ([]byte, error) {
	rows := make([]orderedRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, orderedRow{cols: t.Columns, values: r})
	}
	return json.Marshal(rows)
}
