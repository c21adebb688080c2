package engine

import (
	"testing"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/planner"
	"github.com/lberthe/atelier/internal/session"
)

func failureAnalysisTasks(s *session.Session) []*session.Task {
	var out []*session.Task
	for _, t := range s.Tasks {
		if t.Capability == capability.NamePlan && t.Params["plan_type"] == planner.PlanFailureAnalysis {
			out = append(out, t)
		}
	}
	return out
}

func recordFailures(s *session.Session, capName string, n int) {
	for i := 0; i < n; i++ {
		s.Failures.Record(session.FailureRecord{Capability: capName, Error: "boom"})
	}
}

func TestOracleStopsOnCompletedMainGoal(t *testing.T) {
	e := New(nil, capability.NewRegistry(), nil, nil, noInput, Options{})
	s := newSession()
	g := s.AddGoal(session.GoalSpec{Description: "main", Kind: session.GoalMain})
	if err := s.UpdateGoal(g.ID, session.GoalCompleted); err != nil {
		t.Fatal(err)
	}

	if e.shouldContinue(s) {
		t.Error("completed main goal must stop the loop")
	}
}

func TestOracleStopsOnCompleteOutput(t *testing.T) {
	e := New(nil, capability.NewRegistry(), nil, nil, noInput, Options{})
	s := newSession("profile")
	s.Output.Set("profile", "done")

	if e.shouldContinue(s) {
		t.Error("complete output must stop the loop")
	}
}

func TestOracleInjectsReplanWhenWorkIsStuck(t *testing.T) {
	e := New(nil, capability.NewRegistry(), nil, nil, noInput, Options{})
	s := newSession()
	// A pending task blocked on a dependency that will never complete.
	s.AddTask(session.TaskSpec{Description: "blocked", Capability: capability.NameGenerate, DependsOn: []string{"task_gone"}})

	if !e.shouldContinue(s) {
		t.Fatal("incomplete output must keep the loop alive")
	}
	if !s.HasPendingCapability(capability.NamePlan) {
		t.Error("expected an injected replan task")
	}

	// The stuck task stays blocked; nothing resolves its dependency.
	if len(s.ReadyTasks()) != 1 {
		t.Errorf("ready: %d", len(s.ReadyTasks()))
	}
}

func TestFailureAnalysisInjectedOncePerThresholdCrossing(t *testing.T) {
	e := New(nil, capability.NewRegistry(), nil, nil, noInput, Options{})
	s := newSession()
	recordFailures(s, "search", 5)
	recordFailures(s, "generate", 5)

	e.shouldContinue(s)
	tasks := failureAnalysisTasks(s)
	if len(tasks) != 1 {
		t.Fatalf("injected: %d, want 1", len(tasks))
	}
	if tasks[0].Priority != MaxPriority {
		t.Errorf("priority: got %d, want %d", tasks[0].Priority, MaxPriority)
	}

	// No new failures: the same crossing must not re-inject.
	e.shouldContinue(s)
	if got := len(failureAnalysisTasks(s)); got != 1 {
		t.Errorf("after repeat: %d, want 1", got)
	}

	// A further failure is a new crossing.
	recordFailures(s, "search", 1)
	e.shouldContinue(s)
	if got := len(failureAnalysisTasks(s)); got != 2 {
		t.Errorf("after new failure: %d, want 2", got)
	}
}

func TestFailureAnalysisRequiresTwoCriticalCapabilities(t *testing.T) {
	e := New(nil, capability.NewRegistry(), nil, nil, noInput, Options{})
	s := newSession()
	recordFailures(s, "search", 9)
	recordFailures(s, "generate", 4)

	e.shouldContinue(s)
	if got := len(failureAnalysisTasks(s)); got != 0 {
		t.Errorf("injected: %d, want 0", got)
	}
}
