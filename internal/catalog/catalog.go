// Package catalog is the ambient operational store for
// users/assessments/questions/assignments/attempts named in SPEC_FULL.md
// §3/§4.12. It is deliberately thin: spec.md §1 places CRUD, auth, and
// serialization out of core's scope, so this package implements exactly
// the query surface the Orchestrator and Scoring need and nothing more.
//
// Backed by modernc.org/sqlite (pure-Go, no cgo) through jmoiron/sqlx,
// matching the pack's usage of both. Grounded structurally on the
// teacher's config-loading helpers (server/config.go) for the DSN/env
// handling pattern, not on any teacher storage code — burrowctl has no
// catalog-shaped store of its own.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL,
    solution_sql TEXT NOT NULL,
    order_sensitive INTEGER NOT NULL DEFAULT 0,
    points INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS assignments (
    id TEXT PRIMARY KEY,
    assessment_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    due_at DATETIME
);

CREATE TABLE IF NOT EXISTS attempts (
    id TEXT PRIMARY KEY,
    assignment_id TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    submitted_at DATETIME
);

CREATE TABLE IF NOT EXISTS attempt_answers (
    attempt_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    participant_sql TEXT NOT NULL,
    status TEXT NOT NULL,
    feedback TEXT,
    duration_ms INTEGER,
    rows_returned INTEGER,
    PRIMARY KEY (attempt_id, question_id)
);
`

// Question is the catalog-owned record; core only ever reads
// SolutionSQL and OrderSensitive from it (spec.md §3).
type Question struct {
	ID             string `db:"id"`
	AssessmentID   string `db:"assessment_id"`
	SolutionSQL    string `db:"solution_sql"`
	OrderSensitive bool   `db:"order_sensitive"`
	Points         int    `db:"points"`
}

// AnswerRecord is one persisted evaluation outcome for an attempt.
type AnswerRecord struct {
	AttemptID      string `db:"attempt_id"`
	QuestionID     string `db:"question_id"`
	ParticipantSQL string `db:"participant_sql"`
	Status         string `db:"status"`
	Feedback       string `db:"feedback"`
	DurationMs     int64  `db:"duration_ms"`
	RowsReturned   int    `db:"rows_returned"`
}

// Catalog wraps a sqlx-backed SQLite connection.
type Catalog struct {
	db *sqlx.DB
}

// Open connects to dsn, applying the schema (idempotent, CREATE TABLE
// IF NOT EXISTS) so a fresh database is usable immediately.
func Open(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection.
func (c *Catalog) Close() error { return c.db.Close() }

// Question loads a single question by id. Returns sql.ErrNoRows if absent.
func (c *Catalog) Question(ctx context.Context, id string) (Question, error) {
	var q Question
	err := c.db.GetContext(ctx, &q,
		`SELECT id, assessment_id, solution_sql, order_sensitive, points FROM questions WHERE id = ?`, id)
	return q, err
}

// PutQuestion upserts a question record.
func (c *Catalog) PutQuestion(ctx context.Context, q Question) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO questions (id, assessment_id, solution_sql, order_sensitive, points)
		VALUES (:id, :assessment_id, :solution_sql, :order_sensitive, :points)
		ON CONFLICT(id) DO UPDATE SET
			assessment_id = excluded.assessment_id,
			solution_sql = excluded.solution_sql,
			order_sensitive = excluded.order_sensitive,
			points = excluded.points`, q)
	return err
}

// RecordAnswer stores or replaces the evaluation outcome for one
// attempt/question pair.
func (c *Catalog) RecordAnswer(ctx context.Context, a AnswerRecord) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO attempt_answers
			(attempt_id, question_id, participant_sql, status, feedback, duration_ms, rows_returned)
		VALUES
			(:attempt_id, :question_id, :participant_sql, :status, :feedback, :duration_ms, :rows_returned)
		ON CONFLICT(attempt_id, question_id) DO UPDATE SET
			participant_sql = excluded.participant_sql,
			status = excluded.status,
			feedback = excluded.feedback,
			duration_ms = excluded.duration_ms,
			rows_returned = excluded.rows_returned`, a)
	return err
}

// AnswersForAttempt loads every recorded answer for an attempt, for
// Scoring to consume.
func (c *Catalog) AnswersForAttempt(ctx context.Context, attemptID string) ([]AnswerRecord, error) {
	var out []AnswerRecord
	err := c.db.SelectContext(ctx, &out,
		`SELECT attempt_id, question_id, participant_sql, status, feedback, duration_ms, rows_returned
		 FROM attempt_answers WHERE attempt_id = ?`, attemptID)
	return out, err
}

// StartAttempt creates a fresh attempt against an assignment and
// returns its generated id. Attempt IDs are opaque to core (spec.md
// §1 places assignment/attempt CRUD out of scope); uuid.New gives a
// collision-safe id without the catalog owning any CRUD surface beyond
// this one creation path core's HTTP seam needs.
func (c *Catalog) StartAttempt(ctx context.Context, assignmentID string) (string, error) {
	id := uuid.NewString()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO attempts (id, assignment_id, started_at) VALUES (?, ?, ?)`,
		id, assignmentID, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}
