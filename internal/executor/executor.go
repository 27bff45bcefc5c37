// Package executor implements the Executor of spec.md §4.6: it acquires
// a concurrency permit, opens a connection, rewrites and runs a query,
// and returns a normalized ResultSet or a sanitized error message.
//
// Grounded on the teacher's handleSQL (server/server.go): same
// acquire-connection / set-timeout / execute / fetch-and-convert /
// release shape, retargeted from the teacher's MySQL-and-AMQP pairing
// to database/sql against a Router-selected *sql.DB, and from the
// teacher's ad-hoc error strings to spec.md §4.6's four fixed
// sanitized-message buckets.
package executor

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/OmprakashShyamalan/querybench/internal/governor"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/normalize"
	"github.com/OmprakashShyamalan/querybench/internal/rewriter"
	"github.com/OmprakashShyamalan/querybench/internal/router"
)

// Options carries every per-call configuration knob the Executor needs.
type Options struct {
	QueryTimeout   time.Duration
	MaxResultRows  int
	ConnectTimeout time.Duration
	Normalize      normalize.Options

	// Rewrite caps a validated SELECT's row count before execution.
	// Defaults to rewriter.Rewrite (spec.md §4.5's TOP-injecting
	// pattern, tied to the SQL Server dialect); tests against a
	// different dialect substitute their own.
	Rewrite func(query string, n int) string
}

// Executor composes a Governor and a Router into the execute(sql,
// userId, target) contract of spec.md §4.6.
type Executor struct {
	gov *governor.Governor
	rtr *router.Router
	opt Options
}

// New constructs an Executor bound to the given Governor and Router.
func New(gov *governor.Governor, rtr *router.Router, opt Options) *Executor {
	if opt.Rewrite == nil {
		opt.Rewrite = rewriter.Rewrite
	}
	return &Executor{gov: gov, rtr: rtr, opt: opt}
}

// Result is the Executor's outcome: exactly one of ResultSet or Err is
// meaningful, plus the elapsed duration measured per spec.md §4.6.
type Result struct {
	ResultSet  models.ResultSet
	Err        string
	DurationMs int64
}

// Execute runs query against target (participant or solution SQL,
// already Validator-approved by the caller), returning a sanitized
// Result. Execute performs no rate-limit admission of its own — that is
// the Orchestrator's job, run once per submission before either
// Execute call (spec.md §4.10 step 1), not per query.
func (e *Executor) Execute(ctx context.Context, query string, target models.TargetSelector) Result {
	permit := e.gov.Acquire()
	defer permit.Release()

	start := time.Now()

	db, _, err := e.openTarget(ctx, target)
	if err != nil {
		return Result{Err: sanitize(err), DurationMs: elapsedMs(start)}
	}
	defer closeIfOwned(db, target)

	rewritten := e.opt.Rewrite(query, e.opt.MaxResultRows)

	queryCtx := ctx
	var cancel context.CancelFunc
	if e.opt.QueryTimeout > 0 {
		queryCtx, cancel = context.WithTimeout(ctx, e.opt.QueryTimeout)
		defer cancel()
	}

	rows, err := db.QueryContext(queryCtx, rewritten)
	if err != nil {
		return Result{Err: sanitize(err), DurationMs: elapsedMs(start)}
	}
	defer rows.Close()

	resultSet, err := fetch(rows, e.opt)
	if err != nil {
		return Result{Err: sanitize(err), DurationMs: elapsedMs(start)}
	}

	return Result{ResultSet: resultSet, DurationMs: elapsedMs(start)}
}

// openTarget opens a connection via the Router, or against an explicit
// ConnectionSpec when target bypasses the Router entirely.
func (e *Executor) openTarget(ctx context.Context, target models.TargetSelector) (*sql.DB, models.ConnectionSpec, error) {
	if target.UseRouter {
		return e.rtr.Acquire(ctx, target.ForcePrimary)
	}
	db, err := router.DefaultOpener(ctx, target.Explicit.DSN, e.opt.ConnectTimeout)
	return db, target.Explicit, err
}

// closeIfOwned always closes the connection: §4.6 requires release on
// every exit path regardless of which path opened it.
func closeIfOwned(db *sql.DB, _ models.TargetSelector) {
	if db != nil {
		db.Close()
	}
}

func fetch(rows *sql.Rows, opt Options) (models.ResultSet, error) {
	rawCols, err := rows.Columns()
	if err != nil {
		return models.ResultSet{}, err
	}
	cols := normalize.Columns(opt.Normalize, rawCols)

	var result models.ResultSet
	result.Columns = cols

	scanTargets := make([]any, len(cols))
	scanValues := make([]any, len(cols))
	for i := range scanValues {
		scanTargets[i] = &scanValues[i]
	}

	for len(result.Rows) < opt.MaxResultRows && rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return models.ResultSet{}, err
		}
		row := models.Row{Values: make([]models.NormalizedValue, len(cols))}
		for i, v := range scanValues {
			row.Values[i] = normalize.Value(opt.Normalize, v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.ResultSet{}, err
	}
	return result, nil
}

// sanitize classifies a driver error per spec.md §4.6's four buckets,
// never leaking the raw message for the first three.
func sanitize(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "Query execution timed out. Limit your query's complexity or check for missing joins."
	case strings.Contains(msg, "invalid object name"), strings.Contains(msg, "does not exist"):
		return "Table or column not found. Check the Explorer tab to see available tables and columns."
	case strings.Contains(msg, "syntax error"):
		return "SQL Syntax Error. Check your SELECT statement and ORDER BY clause."
	default:
		raw := err.Error()
		if len(raw) > 100 {
			raw = raw[:100]
		}
		return "Database Error: " + raw
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
