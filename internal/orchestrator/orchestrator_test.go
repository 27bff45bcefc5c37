package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/OmprakashShyamalan/querybench/internal/executor"
	"github.com/OmprakashShyamalan/querybench/internal/governor"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/normalize"
	"github.com/OmprakashShyamalan/querybench/internal/router"
)

// sqliteRewrite substitutes for rewriter.Rewrite here for the same
// reason it does in internal/executor's tests: the real rewriter's
// "TOP (N)" injection is SQL Server syntax that sqlite cannot parse.
func sqliteRewrite(query string, n int) string {
	return fmt.Sprintf("%s LIMIT %d", query, n)
}

func sqliteOpener(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func newTestOrchestrator(t *testing.T, rateLimit int) (*Orchestrator, models.TargetSelector) {
	t.Helper()
	primary := models.ConnectionSpec{Label: "primary", DSN: "file::memory:?cache=shared"}
	rtr := router.New(primary, nil, time.Minute, time.Second, sqliteOpener, nil, nil)
	gov := governor.New(10, rateLimit)
	exe := executor.New(gov, rtr, executor.Options{
		QueryTimeout:   5 * time.Second,
		MaxResultRows:  10,
		ConnectTimeout: time.Second,
		Normalize:      normalize.Options{DecimalPrecision: 4, StripStrings: true, CaseInsensitiveColumns: true},
		Rewrite:        sqliteRewrite,
	})

	db, err := sql.Open("sqlite", primary.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE t (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t (id, name) VALUES (1,'a'),(2,'b')`)
	require.NoError(t, err)

	return New(gov, exe, nil), models.RouterTarget(false)
}

func TestEvaluate_HappyPath(t *testing.T) {
	orch, target := newTestOrchestrator(t, 100)

	v := orch.Evaluate(context.Background(), "u1", "q1",
		"SELECT id, name FROM t ORDER BY id",
		"SELECT id, name FROM t ORDER BY id", target)

	require.Equal(t, models.StatusCorrect, v.Status)
	require.NotNil(t, v.Metadata)
	assert.Equal(t, 2, v.Metadata.RowsReturned)
}

func TestEvaluate_MissingOrderByIsIncorrect(t *testing.T) {
	orch, target := newTestOrchestrator(t, 100)

	v := orch.Evaluate(context.Background(), "u1", "q1",
		"SELECT id FROM t",
		"SELECT id, name FROM t ORDER BY id", target)

	assert.Equal(t, models.StatusIncorrect, v.Status)
	assert.Contains(t, v.Feedback, "ORDER BY")
}

func TestEvaluate_BannedTokenIsIncorrect(t *testing.T) {
	orch, target := newTestOrchestrator(t, 100)

	v := orch.Evaluate(context.Background(), "u1", "q1",
		"SELECT * FROM t; DROP TABLE t ORDER BY id",
		"SELECT id, name FROM t ORDER BY id", target)

	assert.Equal(t, models.StatusIncorrect, v.Status)
	assert.Contains(t, v.Feedback, "Multi-statement")
}

func TestEvaluate_RateLimitExceeded(t *testing.T) {
	orch, target := newTestOrchestrator(t, 2)

	query := "SELECT id, name FROM t ORDER BY id"
	v1 := orch.Evaluate(context.Background(), "u1", "q1", query, query, target)
	v2 := orch.Evaluate(context.Background(), "u1", "q1", query, query, target)
	v3 := orch.Evaluate(context.Background(), "u1", "q1", query, query, target)

	assert.Equal(t, models.StatusCorrect, v1.Status)
	assert.Equal(t, models.StatusCorrect, v2.Status)
	assert.Equal(t, models.StatusError, v3.Status)
	assert.Contains(t, v3.Feedback, "Rate limit")
}

func TestEvaluate_ColumnMismatchIsIncorrect(t *testing.T) {
	orch, target := newTestOrchestrator(t, 100)

	v := orch.Evaluate(context.Background(), "u1", "q1",
		"SELECT id FROM t ORDER BY id",
		"SELECT id, name FROM t ORDER BY id", target)

	assert.Equal(t, models.StatusIncorrect, v.Status)
	assert.Contains(t, v.Feedback, "Column count mismatch")
}
