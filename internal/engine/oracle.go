package engine

import (
	"log/slog"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/planner"
	"github.com/lberthe/atelier/internal/session"
)

// Failure-analysis thresholds: at least this many capabilities, each with at
// least this many failures, trigger an analysis task.
const (
	failureAnalysisMinCapabilities = 2
	failureAnalysisPerCapability   = 5
)

// shouldContinue is the completion oracle consulted when no task is ready.
// It stops on a completed main goal or complete output; otherwise it keeps
// the loop alive, injecting a failure-analysis task when the failure
// thresholds are crossed and a replan task when no planning work is pending.
func (e *Engine) shouldContinue(s *session.Session) bool {
	if main := s.MainGoal(); main != nil && main.Status == session.GoalCompleted {
		return false
	}
	if s.Output.Complete() {
		return false
	}

	e.maybeInjectFailureAnalysis(s)

	// Pending-but-blocked work never becomes ready again on its own (stuck
	// work is dropped, not auto-retried), so either way the planner decides
	// what happens next.
	if !s.HasPendingCapability(capability.NamePlan) {
		s.AddTask(session.TaskSpec{
			Description: "Update the plan from current progress",
			Capability:  capability.NamePlan,
			Params:      map[string]any{"plan_type": planner.PlanReplan},
			Priority:    MaxPriority - 1,
			Reasoning:   "no ready tasks but the output is incomplete",
		})
	}
	return true
}

// maybeInjectFailureAnalysis adds a failure-analysis task at maximum
// priority once per threshold crossing: re-injection requires the total
// failure count to have grown since the last injection.
func (e *Engine) maybeInjectFailureAnalysis(s *session.Session) {
	critical := s.Failures.CriticalCapabilities(failureAnalysisPerCapability)
	if len(critical) < failureAnalysisMinCapabilities {
		return
	}
	total := s.Failures.Total()
	if total <= s.Counters.FailureAnalysisMark {
		return
	}

	s.Counters.FailureAnalysisMark = total
	slog.Warn("failure thresholds crossed, injecting analysis", "critical", critical, "total_failures", total)
	s.AddTask(session.TaskSpec{
		Description: "Analyze repeated capability failures and suggest substitutions",
		Capability:  capability.NamePlan,
		Params:      map[string]any{"plan_type": planner.PlanFailureAnalysis},
		Priority:    MaxPriority,
		Reasoning:   "multiple capabilities are failing repeatedly",
	})
}
