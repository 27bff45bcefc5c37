// Package models holds the storage-agnostic value types shared across
// the evaluation pipeline: connection targets, result sets, normalized
// values, and the verdicts the orchestrator produces.
package models

import "time"

// ConnectionSpec names a single database target: a human-readable
// label plus the driver-specific connection string used to reach it.
type ConnectionSpec struct {
	Label string
	DSN   string
}

// TargetSelector chooses how the Executor obtains a connection: either
// through the Router's primary/replica pool, or against one explicit
// connection spec supplied by the caller.
type TargetSelector struct {
	UseRouter    bool
	ForcePrimary bool
	Explicit     ConnectionSpec
}

// RouterTarget builds a selector that asks the Router for a connection.
func RouterTarget(forcePrimary bool) TargetSelector {
	return TargetSelector{UseRouter: true, ForcePrimary: forcePrimary}
}

// ExplicitTarget builds a selector that bypasses the Router entirely.
func ExplicitTarget(spec ConnectionSpec) TargetSelector {
	return TargetSelector{UseRouter: false, Explicit: spec}
}

// ValueKind discriminates the NormalizedValue sum type.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindInteger
	KindText
	KindTimestamp
	KindBool
	KindBytes
)

// NormalizedValue is a single cell after §4.7 normalization has been
// applied. Exactly one field is meaningful, selected by Kind.
type NormalizedValue struct {
	Kind  ValueKind
	Num   float64
	Int   int64
	Text  string
	Time  time.Time
	Bool  bool
	Bytes []byte
}

// Equal reports whether two normalized values are identical cell-by-cell.
// Timestamp comparison is at second precision, matching the normalization
// contract (microseconds are zeroed before this is ever called).
func (v NormalizedValue) Equal(o NormalizedValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindNumber:
		return v.Num == o.Num
	case KindInteger:
		return v.Int == o.Int
	case KindText:
		return v.Text == o.Text
	case KindTimestamp:
		return v.Time.Equal(o.Time)
	case KindBool:
		return v.Bool == o.Bool
	case KindBytes:
		if len(v.Bytes) != len(o.Bytes) {
			return false
		}
		for i := range v.Bytes {
			if v.Bytes[i] != o.Bytes[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Row is an ordered column→value mapping. Column order mirrors the
// ResultSet's Columns slice; every Row sharing a ResultSet has the same
// length and column sequence (ResultSet invariant, spec §3).
type Row struct {
	Values []NormalizedValue
}

// ResultSet is the Executor's output: ordered column names (already
// case-folded if configured) plus an ordered sequence of rows.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// VerdictStatus enumerates the three outward evaluation outcomes.
type VerdictStatus string

const (
	StatusCorrect   VerdictStatus = "CORRECT"
	StatusIncorrect VerdictStatus = "INCORRECT"
	StatusError     VerdictStatus = "ERROR"
)

// ExecutionMetadata accompanies a Correct verdict.
type ExecutionMetadata struct {
	DurationMs   int64
	RowsReturned int
}

// Verdict is the Submission Orchestrator's final output (spec §3, §4.10).
type Verdict struct {
	Status   VerdictStatus
	Feedback string
	Metadata *ExecutionMetadata
}

// Correct builds a Correct verdict carrying execution metadata.
func Correct(durationMs int64, rowsReturned int) Verdict {
	return Verdict{
		Status:   StatusCorrect,
		Metadata: &ExecutionMetadata{DurationMs: durationMs, RowsReturned: rowsReturned},
	}
}

// Incorrect builds an Incorrect verdict with participant-facing feedback.
func Incorrect(feedback string) Verdict {
	return Verdict{Status: StatusIncorrect, Feedback: feedback}
}

// Error builds a system-attributable Error verdict.
func Error(feedback string) Verdict {
	return Verdict{Status: StatusError, Feedback: feedback}
}

// ValidationVerdict is the Validator's output (spec §3, §4.4).
type ValidationVerdict struct {
	Ok     bool
	Reason string
}

// Question is the slice of the catalog's question record that core
// reads; every other catalog field is invisible to the evaluation
// pipeline (spec §3).
type Question struct {
	ID             string
	SolutionSQL    string
	OrderSensitive bool
}

// SchemaColumn describes one introspected column (spec §3, §4.9).
type SchemaColumn struct {
	Name          string
	Type          string
	IsNullable    bool
	IsPrimaryKey  bool
	IsForeignKey  bool
	RefTable      string
	RefColumn     string
	HasReferences bool
}

// SchemaTable groups its columns in first-seen order.
type SchemaTable struct {
	Name    string
	Columns []SchemaColumn
}

// SchemaSnapshot is the Introspector's output.
type SchemaSnapshot struct {
	Tables []SchemaTable
	Error  string
}
