// Package scoring implements the thin verdict-aggregation consumer
// named once in spec.md §1: a score is nothing more than the fraction
// of an attempt's answers that evaluated Correct.
package scoring

import "github.com/OmprakashShyamalan/querybench/internal/models"

// Answer is the slice of an attempt's per-question answer that scoring
// reads: the outcome of its evaluation.
type Answer struct {
	Verdict models.Verdict
}

// Score is an attempt's aggregate result.
type Score struct {
	Correct int
	Total   int
	Percent float64
}

// Summarize counts Correct verdicts among answers and computes a
// percentage, 0 when there are no answers.
func Summarize(answers []Answer) Score {
	s := Score{Total: len(answers)}
	for _, a := range answers {
		if a.Verdict.Status == models.StatusCorrect {
			s.Correct++
		}
	}
	if s.Total == 0 {
		return s
	}
	s.Percent = 100 * float64(s.Correct) / float64(s.Total)
	return s
}
