// Package comparator implements the Comparator of spec.md §4.8: a
// strict, ordered equality check between a solution ResultSet and a
// participant ResultSet, with a fixed decision procedure so that every
// mismatch reports the most specific reason available.
//
// Grounded on the teacher's handleSQL response assembly
// (server/server.go), which walks columns then rows in the same
// column-major order this package expects as its input shape; the
// decision procedure itself is spec.md §4.8's, not the teacher's (the
// teacher never compares two result sets against each other).
package comparator

import (
	"fmt"
	"strings"

	"github.com/OmprakashShyamalan/querybench/internal/models"
)

// Outcome is the Comparator's verdict: Match, or a single-reason
// mismatch suitable for direct inclusion in Incorrect feedback.
type Outcome struct {
	Match  bool
	Reason string
}

// Compare applies spec.md §4.8's ordered procedure against the
// participant (u) and solution (s) result sets: column count, then
// column names/order (case-insensitive), then exact ordered row
// equality, then row count, then a generic values-mismatch. Every
// comparison is ordered — there is no unordered/multiset fallback,
// regardless of any per-question setting (spec.md §4.8, §9).
func Compare(participant, solution models.ResultSet) Outcome {
	if len(participant.Columns) != len(solution.Columns) {
		return Outcome{Reason: fmt.Sprintf(
			"Column count mismatch: got %d, expected %d.", len(participant.Columns), len(solution.Columns))}
	}

	for i := range participant.Columns {
		if !strings.EqualFold(participant.Columns[i], solution.Columns[i]) {
			return Outcome{Reason: fmt.Sprintf(
				"Column names or order mismatch. You have: %s | Expected: %s",
				strings.Join(participant.Columns, ", "), strings.Join(solution.Columns, ", "))}
		}
	}

	if resultSetsEqual(participant, solution) {
		return Outcome{Match: true}
	}

	if len(participant.Rows) != len(solution.Rows) {
		return Outcome{Reason: fmt.Sprintf(
			"Row count mismatch: got %d, expected %d.", len(participant.Rows), len(solution.Rows))}
	}

	return Outcome{Reason: "Row count matches but values or order are incorrect."}
}

func resultSetsEqual(u, s models.ResultSet) bool {
	if len(u.Rows) != len(s.Rows) {
		return false
	}
	for i := range u.Rows {
		if !rowsEqual(u.Rows[i], s.Rows[i]) {
			return false
		}
	}
	return true
}

func rowsEqual(a, b models.Row) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !a.Values[i].Equal(b.Values[i]) {
			return false
		}
	}
	return true
}
