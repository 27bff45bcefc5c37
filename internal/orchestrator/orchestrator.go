// Package orchestrator implements the Submission Orchestrator of
// spec.md §4.10: the single fixed five-step pipeline that turns a
// participant/solution query pair into one outward EvaluationVerdict.
//
// Grounded on the teacher's handleMessage dispatch (server/server.go),
// whose type-switch-then-respond shape is echoed here as a fixed,
// linear step sequence rather than a dispatch table — spec.md §4.10
// pins the pipeline to exactly five steps, so there is nothing to
// dispatch over.
package orchestrator

import (
	"context"

	"github.com/OmprakashShyamalan/querybench/internal/comparator"
	"github.com/OmprakashShyamalan/querybench/internal/executor"
	"github.com/OmprakashShyamalan/querybench/internal/governor"
	"github.com/OmprakashShyamalan/querybench/internal/metrics"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/sqlsafety"
)

// Orchestrator composes a Governor and Executor into evaluate(userId,
// questionId, participantSQL, solutionSQL, target) -> EvaluationVerdict.
// questionId is accepted for caller bookkeeping/logging only; core never
// inspects it (spec.md §3: Question is catalog-owned).
type Orchestrator struct {
	gov *governor.Governor
	exe *executor.Executor
	met *metrics.Metrics
}

// New constructs an Orchestrator bound to the given Governor and
// Executor. met may be nil, in which case no metrics are recorded.
func New(gov *governor.Governor, exe *executor.Executor, met *metrics.Metrics) *Orchestrator {
	return &Orchestrator{gov: gov, exe: exe, met: met}
}

// Evaluate runs the fixed five-step pipeline of spec.md §4.10.
func (o *Orchestrator) Evaluate(ctx context.Context, userID, questionID, participantSQL, solutionSQL string, target models.TargetSelector) models.Verdict {
	_ = questionID

	// 1. Rate-limit admission.
	admitted := o.gov.Admit(userID)
	if o.met != nil {
		o.met.ObserveAdmission(admitted)
	}
	if !admitted {
		return models.Error("Rate limit exceeded. Please wait a moment before submitting again.")
	}

	// 2. Validate the participant query only; the solution is trusted
	// (authored and validated once by a curator).
	verdict := sqlsafety.Validate(participantSQL, false)
	if !verdict.Ok {
		return models.Incorrect(verdict.Reason)
	}

	// 3. Execute the solution query as the system, producing the gold
	// standard. A failure here is a system error, never the
	// participant's fault.
	solutionResult := o.exe.Execute(ctx, solutionSQL, target)
	if solutionResult.Err != "" {
		return models.Error("System Error: Failed to generate expected results. Please contact an admin.")
	}

	// 4. Execute the participant query.
	participantResult := o.exe.Execute(ctx, participantSQL, target)
	if o.met != nil {
		o.met.ObserveExecutorDuration(participantResult.DurationMs)
	}
	if participantResult.Err != "" {
		return models.Incorrect(participantResult.Err)
	}

	// 5. Compare.
	outcome := comparator.Compare(participantResult.ResultSet, solutionResult.ResultSet)
	if !outcome.Match {
		return models.Incorrect(outcome.Reason)
	}
	return models.Correct(participantResult.DurationMs, len(participantResult.ResultSet.Rows))
}
