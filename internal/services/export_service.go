package services

import (
	"context"
	"fmt"
	"strings"
)

type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
	FormatJSON  ExportFormat = "json"
)

// ParseExportFormat accepts csv, excel (or xlsx) and json. Anything else is csv.
func ParseExportFormat(s string) ExportFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excel", "xlsx":
		return FormatExcel
	case "json":
		return FormatJSON
	}
	return FormatCSV
}

func (f ExportFormat) extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatJSON:
		return "json"
	}
	return "csv"
}

func (f ExportFormat) contentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

type ExportParams struct {
	SurveyID string
	Format   ExportFormat
}

type ExportResult struct {
	Filename    string
	ContentType string
	Format      ExportFormat
	Rows        int
	Data        []byte
}

type ExportService struct {
	schema *SchemaReader
	store  ResponseLister
}

func NewExportService(store AnalyticsStore) *ExportService {
	return &ExportService{schema: NewSchemaReader(store), store: store}
}

func (s *ExportService) Export(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.SurveyID == "" {
		return nil, NewInvalidError("survey id required")
	}
	format := params.Format
	if format == "" {
		format = FormatCSV
	}
	schema, err := s.schema.Read(ctx, params.SurveyID)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListResponses(ctx, params.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if len(rs) == 0 {
		return nil, NewNotFoundError("No responses found for this survey.")
	}
	table := BuildExportTable(schema.QuestionIDs(), rs)

	var data []byte
	switch format {
	case FormatExcel:
		data, err = EncodeExcel(table)
	case FormatJSON:
		data, err = EncodeJSON(table)
	default:
		format = FormatCSV
		data, err = EncodeCSV(table)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s export: %w", format, err)
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("survey_%s_responses.%s", params.SurveyID, format.extension()),
		ContentType: format.contentType(),
		Format:      format,
		Rows:        len(table.Rows),
		Data:        data,
	}, nil
}
