package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/surveyd/internal/api"
	"github.com/soaringjerry/surveyd/internal/logging"
	"github.com/soaringjerry/surveyd/internal/models"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: logging.Component(logger, "sqlite_store")}, nil
}

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		s.log.Error().Err(err).Msg(prefix)
	}
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339Nano, v); err2 == nil {
			return t2.UTC()
		}
		return time.Time{}
	}
	return t
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func encodeChoices(choices []string) (sql.NullString, error) {
	if len(choices) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(choices)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (s *SQLiteStore) decodeChoices(ns sql.NullString) []string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		s.logErr("decode choices", err)
		return nil
	}
	return out
}

func (s *SQLiteStore) CreateSurvey(ctx context.Context, sv *models.Survey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM surveys WHERE id = ?`, sv.ID).Scan(&exists)
	if err == nil {
		return models.ErrSurveyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO surveys (id, owner_id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.OwnerID, sv.Title, sv.Description, formatTime(sv.CreatedAt), formatTime(sv.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	for i, q := range sv.Questions {
		if err := insertQuestion(ctx, tx, sv.ID, i, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertQuestion(ctx context.Context, tx *sql.Tx, surveyID string, seq int, q models.Question) error {
	choices, err := encodeChoices(q.Choices)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (survey_id, question_id, type, text, position, seq, choices_json, required, min_value, max_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		surveyID, q.ID, string(q.Type), q.Text, q.Order, seq, choices, boolToInt64(q.Required), q.Min, q.Max,
	)
	if err != nil {
		return fmt.Errorf("insert question %s: %w", q.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	var (
		sv               models.Survey
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, created_at, updated_at FROM surveys WHERE id = ?`, id,
	).Scan(&sv.ID, &sv.OwnerID, &sv.Title, &sv.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	sv.CreatedAt, sv.UpdatedAt = parseTime(created), parseTime(updated)
	qs, err := s.listQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	sv.Questions = qs
	return &sv, nil
}

func (s *SQLiteStore) listQuestions(ctx context.Context, surveyID string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, type, text, position, choices_json, required, min_value, max_value
		 FROM questions WHERE survey_id = ? ORDER BY seq`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer func() { s.logErr("close question rows", rows.Close()) }()
	out := []models.Question{}
	for rows.Next() {
		var (
			q        models.Question
			qType    string
			choices  sql.NullString
			required int64
		)
		if err := rows.Scan(&q.ID, &qType, &q.Text, &q.Order, &choices, &required, &q.Min, &q.Max); err != nil {
			return nil, err
		}
		q.Type = models.QuestionType(qType)
		q.Choices = s.decodeChoices(choices)
		q.Required = required != 0
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM surveys ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.logErr("close survey rows", rows.Close())
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		s.logErr("close survey rows", rows.Close())
		return nil, err
	}
	s.logErr("close survey rows", rows.Close())

	out := make([]*models.Survey, 0, len(ids))
	for _, id := range ids {
		sv, err := s.GetSurvey(ctx, id)
		if err != nil {
			return nil, err
		}
		if sv != nil {
			out = append(out, sv)
		}
	}
	return out, nil
}

func (s *SQLiteStore) DeleteSurvey(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddQuestion(ctx context.Context, surveyID string, q models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		exists int
		seq    int
	)
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM surveys WHERE id = ?`, surveyID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrSurveyNotFound
		}
		return err
	}
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE survey_id = ? AND question_id = ?`, surveyID, q.ID).Scan(&exists)
	if err == nil {
		return models.ErrQuestionExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM questions WHERE survey_id = ?`, surveyID).Scan(&seq); err != nil {
		return err
	}
	if err := insertQuestion(ctx, tx, surveyID, seq, q); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE surveys SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), surveyID); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateSurvey rewrites the survey's editable fields and replaces its
// question list. Owner and creation time are left untouched.
func (s *SQLiteStore) UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE surveys SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		sv.Title, sv.Description, formatTime(sv.UpdatedAt), sv.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = ?`, sv.ID); err != nil {
		return false, fmt.Errorf("clear questions: %w", err)
	}
	for i, q := range sv.Questions {
		if err := insertQuestion(ctx, tx, sv.ID, i, q); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, surveyID string, q models.Question) error {
	choices, err := encodeChoices(q.Choices)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE questions SET type = ?, text = ?, position = ?, choices_json = ?, required = ?, min_value = ?, max_value = ?
		 WHERE survey_id = ? AND question_id = ?`,
		string(q.Type), q.Text, q.Order, choices, boolToInt64(q.Required), q.Min, q.Max, surveyID, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update question %s: %w", q.ID, err)
	}
	if err := questionTouched(ctx, tx, res, surveyID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, surveyID, questionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = ? AND question_id = ?`, surveyID, questionID)
	if err != nil {
		return fmt.Errorf("delete question %s: %w", questionID, err)
	}
	if err := questionTouched(ctx, tx, res, surveyID); err != nil {
		return err
	}
	return tx.Commit()
}

// questionTouched bumps the survey's updated_at when a question row changed
// and otherwise reports which of survey or question is missing.
func questionTouched(ctx context.Context, tx *sql.Tx, res sql.Result, surveyID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		_, err := tx.ExecContext(ctx, `UPDATE surveys SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), surveyID)
		return err
	}
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM surveys WHERE id = ?`, surveyID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrSurveyNotFound
		}
		return err
	}
	return models.ErrQuestionNotFound
}

func (s *SQLiteStore) AddResponse(ctx context.Context, r *models.Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM surveys WHERE id = ?`, r.SurveyID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrSurveyNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO responses (id, survey_id, respondent_id, submitted_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.SurveyID, r.RespondentID, formatTime(r.SubmittedAt),
	); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	for i, a := range r.Answers {
		raw, err := a.Value.MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answers (response_id, seq, question_id, value_json) VALUES (?, ?, ?, ?)`,
			r.ID, i, a.QuestionID, string(raw),
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, respondent_id, submitted_at FROM responses
		 WHERE survey_id = ? ORDER BY submitted_at DESC, rowid DESC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := []*models.Response{}
	byID := map[string]*models.Response{}
	for rows.Next() {
		var (
			r         models.Response
			submitted string
		)
		if err := rows.Scan(&r.ID, &r.RespondentID, &submitted); err != nil {
			s.logErr("close response rows", rows.Close())
			return nil, err
		}
		r.SurveyID = surveyID
		r.SubmittedAt = parseTime(submitted)
		r.Answers = []models.Answer{}
		out = append(out, &r)
		byID[r.ID] = &r
	}
	if err := rows.Err(); err != nil {
		s.logErr("close response rows", rows.Close())
		return nil, err
	}
	s.logErr("close response rows", rows.Close())
	if len(out) == 0 {
		return out, nil
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT a.response_id, a.question_id, a.value_json FROM answers a
		 JOIN responses r ON r.id = a.response_id
		 WHERE r.survey_id = ? ORDER BY a.response_id, a.seq`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer func() { s.logErr("close answer rows", arows.Close()) }()
	for arows.Next() {
		var respID, qid, raw string
		if err := arows.Scan(&respID, &qid, &raw); err != nil {
			return nil, err
		}
		if r, ok := byID[respID]; ok {
			r.Answers = append(r.Answers, models.Answer{QuestionID: qid, Value: models.AnswerValue(raw)})
		}
	}
	return out, arows.Err()
}

func (s *SQLiteStore) GetResponse(ctx context.Context, surveyID, responseID string) (*models.Response, error) {
	var (
		r         models.Response
		submitted string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, survey_id, respondent_id, submitted_at FROM responses WHERE id = ? AND survey_id = ?`,
		responseID, surveyID,
	).Scan(&r.ID, &r.SurveyID, &r.RespondentID, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	r.SubmittedAt = parseTime(submitted)

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, value_json FROM answers WHERE response_id = ? ORDER BY seq`, responseID)
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	defer func() { s.logErr("close answer rows", rows.Close()) }()
	r.Answers = []models.Answer{}
	for rows.Next() {
		var qid, raw string
		if err := rows.Scan(&qid, &raw); err != nil {
			return nil, err
		}
		r.Answers = append(r.Answers, models.Answer{QuestionID: qid, Value: models.AnswerValue(raw)})
	}
	return &r, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
