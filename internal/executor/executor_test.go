package executor

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/OmprakashShyamalan/querybench/internal/governor"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/normalize"
	"github.com/OmprakashShyamalan/querybench/internal/router"
)

// sqliteRewrite stands in for rewriter.Rewrite in these tests: the real
// rewriter injects SQL Server's "TOP (N)" syntax, which sqlite's parser
// rejects. Appending LIMIT after the already-validated ORDER BY clause
// caps rows the same way against sqlite's dialect without touching the
// Executor pipeline under test.
func sqliteRewrite(query string, n int) string {
	return fmt.Sprintf("%s LIMIT %d", query, n)
}

// sqliteOpener stands in for the SQL Server opener in tests: same
// Opener seam the Router uses, pointed at an in-memory sqlite database
// so the Executor's pipeline (permit, rewrite, execute, normalize) runs
// against a real database/sql driver without a live SQL Server.
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

func newTestExecutor(t *testing.T) (*Executor, models.TargetSelector) {
	t.Helper()
	primary := models.ConnectionSpec{Label: "primary", DSN: "file::memory:?cache=shared"}
	rtr := router.New(primary, nil, time.Minute, time.Second, sqliteOpener, nil, nil)
	gov := governor.New(10, 100)

	exe := New(gov, rtr, Options{
		QueryTimeout:   5 * time.Second,
		MaxResultRows:  10,
		ConnectTimeout: time.Second,
		Normalize:      normalize.Options{DecimalPrecision: 4, StripStrings: true, CaseInsensitiveColumns: true},
		Rewrite:        sqliteRewrite,
	})

	seedDB, err := sql.Open("sqlite", primary.DSN)
	require.NoError(t, err)
	_, err = seedDB.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	_, err = seedDB.Exec(`DELETE FROM t`)
	require.NoError(t, err)
	_, err = seedDB.Exec(`INSERT INTO t (id, name) VALUES (1, 'a'), (2, 'b')`)
	require.NoError(t, err)
	t.Cleanup(func() { seedDB.Close() })

	return exe, models.RouterTarget(false)
}

func TestExecute_HappyPath(t *testing.T) {
	exe, target := newTestExecutor(t)

	res := exe.Execute(context.Background(), "SELECT id, name FROM t ORDER BY id", target)
	require.Empty(t, res.Err)
	assert.Equal(t, []string{"id", "name"}, res.ResultSet.Columns)
	assert.Len(t, res.ResultSet.Rows, 2)
}

func TestExecute_RowCapEnforced(t *testing.T) {
	exe, target := newTestExecutor(t)
	exe.opt.MaxResultRows = 1

	res := exe.Execute(context.Background(), "SELECT id, name FROM t ORDER BY id", target)
	require.Empty(t, res.Err)
	assert.Len(t, res.ResultSet.Rows, 1)
}

func TestExecute_SyntaxErrorSanitized(t *testing.T) {
	exe, target := newTestExecutor(t)

	res := exe.Execute(context.Background(), "SELEKT id FROM t ORDER BY id", target)
	assert.NotEmpty(t, res.Err)
}
