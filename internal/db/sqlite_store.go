package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/pulse/internal/api"
	"github.com/soaringjerry/pulse/internal/models"
)

const memoryPath = ":memory:"

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (and creates when missing) the SQLite database at path.
// ":memory:" opens a private in-memory database on a single connection.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := memoryPath
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
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
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) PutSurvey(ctx context.Context, def *models.SurveyDefinition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return errors.New("survey id required")
	}
	questions, err := json.Marshal(nonNilQuestions(def.Questions))
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO surveys (id, workspace, title, description, questions_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace = excluded.workspace,
			title = excluded.title,
			description = excluded.description,
			questions_json = excluded.questions_json,
			updated_at = excluded.updated_at`,
		def.ID, def.Workspace, def.Title, def.Description, string(questions), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert survey %s: %w", def.ID, err)
	}
	return nil
}

func (s *SQLiteStore) AppendResponses(ctx context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error {
	if strings.TrimSpace(surveyID) == "" {
		return errors.New("survey id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO responses (survey_id, workspace, response_id, respondent_id, submitted_at, is_anonymous, answers_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rs {
		answers, err := json.Marshal(nonNilAnswers(r.Answers))
		if err != nil {
			return fmt.Errorf("encode answers of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, surveyID, workspace, r.ID, r.RespondentID,
			r.SubmittedAt.UTC().Format(time.RFC3339Nano), boolToInt64(r.IsAnonymous), string(answers)); err != nil {
			return fmt.Errorf("insert response %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetSurveyDefinition(ctx context.Context, surveyID string) (*models.SurveyDefinition, error) {
	var (
		def       models.SurveyDefinition
		questions string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace, title, description, questions_json FROM surveys WHERE id = ?`, surveyID,
	).Scan(&def.ID, &def.Workspace, &def.Title, &def.Description, &questions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query survey %s: %w", surveyID, err)
	}
	if err := json.Unmarshal([]byte(questions), &def.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of %s: %w", surveyID, err)
	}
	return &def, nil
}

// GetResponseSet reads the set in insertion order inside one read transaction.
func (s *SQLiteStore) GetResponseSet(ctx context.Context, surveyID string) (*models.SurveyResponseSet, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	set := &models.SurveyResponseSet{SurveyID: surveyID, Responses: []models.EmployeeResponse{}}
	var defined bool
	err = tx.QueryRowContext(ctx, `SELECT workspace FROM surveys WHERE id = ?`, surveyID).Scan(&set.Workspace)
	switch {
	case err == nil:
		defined = true
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("query survey %s: %w", surveyID, err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT workspace, response_id, respondent_id, submitted_at, is_anonymous, answers_json
		FROM responses WHERE survey_id = ? ORDER BY seq`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("query responses of %s: %w", surveyID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r           models.EmployeeResponse
			workspace   string
			submittedAt string
			anonymous   int64
			answers     string
		)
		if err := rows.Scan(&workspace, &r.ID, &r.RespondentID, &submittedAt, &anonymous, &answers); err != nil {
			return nil, err
		}
		if set.Workspace == "" {
			set.Workspace = workspace
		}
		if r.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
			return nil, fmt.Errorf("parse submitted_at of %s: %w", r.ID, err)
		}
		r.IsAnonymous = int64ToBool(anonymous)
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", r.ID, err)
		}
		set.Responses = append(set.Responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !defined && len(set.Responses) == 0 {
		return nil, models.ErrNotFound
	}
	return set, nil
}

func (s *SQLiteStore) ListSurveys(ctx context.Context) ([]*models.SurveyDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, workspace, title, description, questions_json FROM surveys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	out := []*models.SurveyDefinition{}
	for rows.Next() {
		var (
			def       models.SurveyDefinition
			questions string
		)
		if err := rows.Scan(&def.ID, &def.Workspace, &def.Title, &def.Description, &questions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questions), &def.Questions); err != nil {
			return nil, fmt.Errorf("decode questions of %s: %w", def.ID, err)
		}
		out = append(out, &def)
	}
	return out, rows.Err()
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func nonNilQuestions(qs []models.Question) []models.Question {
	if qs == nil {
		return []models.Question{}
	}
	return qs
}

func nonNilAnswers(as []models.AnswerRecord) []models.AnswerRecord {
	if as == nil {
		return []models.AnswerRecord{}
	}
	return as
}

var _ api.Store = (*SQLiteStore)(nil)
