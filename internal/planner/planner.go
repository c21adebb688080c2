// Package planner implements the planning capability: it produces and
// updates the goal tree and task queue, using the language model as an
// oracle and the tool registry for the capability catalog.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/thinking"
)

// Plan types carried on the planner task's plan_type parameter.
const (
	PlanInitial         = "initial"
	PlanReplan          = "replan"
	PlanComplete        = "complete_replan"
	PlanFailureAnalysis = "failure_analysis"
)

// CriticalFailureThreshold is the per-capability failure count past which
// the planner stops scheduling that capability.
const CriticalFailureThreshold = 3

// Planner is the plan capability.
type Planner struct{}

// New creates the planner capability.
func New() *Planner { return &Planner{} }

func (p *Planner) Name() string { return capability.NamePlan }

func (p *Planner) Description() string {
	return "Builds or updates the goal tree and task queue from the session requirement and progress so far."
}

func (p *Planner) Params() map[string]string {
	return map[string]string{
		"plan_type":          "initial | replan | complete_replan | failure_analysis",
		"requirement_update": "new user input driving a complete replan",
	}
}

func (p *Planner) CanExecute(t *session.Task) bool { return capability.NameMatches(p, t) }

func (p *Planner) Execute(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	planType := stringParam(task, "plan_type", PlanInitial)
	switch planType {
	case PlanInitial:
		return p.plan(ctx, cctx, planType, initialPrompt(cctx.Session, cctx.Registry.Describe()))
	case PlanReplan:
		return p.plan(ctx, cctx, planType, replanPrompt(cctx.Session, cctx.Registry.Describe()))
	case PlanComplete:
		return p.completeReplan(ctx, task, cctx)
	case PlanFailureAnalysis:
		return p.analyzeFailures(ctx, cctx)
	default:
		return nil, fmt.Errorf("unknown plan type %q", planType)
	}
}

// plan runs the model against a planning prompt and applies the parsed plan,
// or the fixed safety plan when the response is unparsable. A model
// transport error is a capability failure, not a planning failure.
func (p *Planner) plan(ctx context.Context, cctx *capability.Context, planType, prompt string) (*capability.Result, error) {
	raw, err := thinking.Complete(ctx, cctx.Model, plannerSystem, prompt)
	if err != nil {
		return nil, err
	}

	fallback := false
	doc, err := parsePlan(raw)
	if err != nil {
		slog.Warn("plan response unparsable, applying safety plan", "plan_type", planType, "error", err)
		doc = safetyPlan(cctx.Session)
		fallback = true
	}

	goals, tasks := p.applyPlan(cctx, doc)
	p.publish(cctx, planType, goals, tasks, fallback)
	return &capability.Result{
		Success: true,
		Payload: map[string]any{
			"plan_type":   planType,
			"goals_added": goals,
			"tasks_added": tasks,
			"fallback":    fallback,
		},
	}, nil
}

// completeReplan archives pending work made obsolete by a changed
// requirement, re-flags active goals, folds the new input into the
// requirement, then runs the initial-mode logic against it.
func (p *Planner) completeReplan(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	s := cctx.Session
	update := stringParam(task, "requirement_update", "")

	reason := "superseded by changed requirements"
	raw, err := thinking.Complete(ctx, cctx.Model, removalSystem, removalPrompt(s, update))
	if err != nil {
		return nil, err
	}
	if analysis, perr := thinking.ParseJSON[removalAnalysis](raw); perr == nil && analysis.Reason != "" {
		reason = analysis.Reason
	} else if perr != nil {
		slog.Warn("removal analysis unparsable, using generic reason", "error", perr)
	}

	removed := s.RemoveTasksByCriteria(func(t *session.Task) bool {
		return t.Status == session.TaskPending
	}, reason)
	for _, g := range s.Goals {
		if g.Status == session.GoalPending || g.Status == session.GoalInProgress {
			g.Status = session.GoalFailed
		}
	}
	if update != "" {
		s.Requirement = s.Requirement + "\n\nUpdated requirement: " + update
	}
	slog.Info("complete replan", "removed_tasks", removed, "reason", reason)

	res, err := p.plan(ctx, cctx, PlanComplete, initialPrompt(s, cctx.Registry.Describe()))
	if err != nil {
		return nil, err
	}
	res.Payload["tasks_removed"] = removed
	return res, nil
}

// analyzeFailures summarizes critically failing capabilities and emits
// substitution suggestions. It never mutates the task pool; an unparsable
// response degrades to a locally built summary instead of the safety plan.
func (p *Planner) analyzeFailures(ctx context.Context, cctx *capability.Context) (*capability.Result, error) {
	s := cctx.Session
	critical := s.Failures.CriticalCapabilities(CriticalFailureThreshold)
	if len(critical) == 0 {
		return &capability.Result{
			Success: true,
			Payload: map[string]any{"summary": "no critically failing capabilities"},
		}, nil
	}

	analysis := &failureAnalysis{
		Summary: fmt.Sprintf("capabilities failing repeatedly: %s", strings.Join(critical, ", ")),
	}
	raw, err := thinking.Complete(ctx, cctx.Model, failureSystem, failurePrompt(s, critical))
	if err != nil {
		return nil, err
	}
	if parsed, perr := thinking.ParseJSON[failureAnalysis](raw); perr == nil && parsed.Summary != "" {
		analysis = parsed
	} else if perr != nil {
		slog.Warn("failure analysis unparsable, using local summary", "error", perr)
	}

	suggestions := make([]map[string]any, 0, len(analysis.Suggestions))
	for _, sug := range analysis.Suggestions {
		suggestions = append(suggestions, map[string]any{
			"capability": sug.Capability,
			"suggestion": sug.Suggestion,
		})
	}
	s.AppendMessage(session.Message{
		Role:       session.RoleAgent,
		Type:       "failure_analysis",
		Content:    analysis.Summary,
		Capability: capability.NamePlan,
	})

	return &capability.Result{
		Success: true,
		Payload: map[string]any{
			"summary":     analysis.Summary,
			"critical":    critical,
			"suggestions": suggestions,
		},
	}, nil
}

// applyPlan turns a plan document into pool mutations. Tasks naming an
// unregistered capability, a critically failing capability, or depending on
// a task that was itself skipped are dropped.
func (p *Planner) applyPlan(cctx *capability.Context, doc *planDoc) (goals, tasks int) {
	s := cctx.Session

	for _, g := range doc.Goals {
		kind := session.GoalSub
		if g.Kind == string(session.GoalMain) {
			kind = session.GoalMain
		}
		spec := session.GoalSpec{Description: g.Description, Kind: kind}
		if kind == session.GoalSub {
			if main := s.MainGoal(); main != nil {
				spec.ParentID = main.ID
			}
		}
		s.AddGoal(spec)
		goals++
	}

	registered := make(map[string]bool)
	for _, name := range cctx.Registry.Names() {
		registered[name] = true
	}

	ids := make(map[int]string, len(doc.Tasks))
	for i, pt := range doc.Tasks {
		if !registered[pt.Capability] {
			slog.Warn("dropping planned task with unknown capability", "capability", pt.Capability, "description", pt.Description)
			continue
		}
		if s.Failures.Count(pt.Capability) >= CriticalFailureThreshold {
			slog.Info("dropping planned task for critically failing capability", "capability", pt.Capability)
			continue
		}

		deps := make([]string, 0, len(pt.DependsOn))
		ok := true
		for _, dep := range pt.DependsOn {
			id, exists := ids[dep]
			if !exists {
				ok = false
				break
			}
			deps = append(deps, id)
		}
		if !ok {
			slog.Info("dropping planned task with skipped dependency", "description", pt.Description)
			continue
		}

		added := s.AddTask(session.TaskSpec{
			Description: pt.Description,
			Capability:  pt.Capability,
			Params:      pt.Params,
			DependsOn:   deps,
			Priority:    pt.Priority,
			Reasoning:   pt.Reasoning,
		})
		ids[i] = added.ID
		tasks++
	}

	if doc.Context != "" {
		s.AppendMessage(session.Message{
			Role:       session.RoleSystem,
			Type:       "plan_context",
			Content:    doc.Context,
			Capability: capability.NamePlan,
		})
	}
	return goals, tasks
}

func (p *Planner) publish(cctx *capability.Context, planType string, goals, tasks int, fallback bool) {
	if cctx.Bus == nil {
		return
	}
	cctx.Bus.Publish(events.NewTypedEventWithSession(events.SourcePlanner, events.PlanCreatedPayload{
		PlanType:  planType,
		GoalCount: goals,
		TaskCount: tasks,
		Fallback:  fallback,
	}, cctx.Session.ID))
}

func stringParam(t *session.Task, key, def string) string {
	if v, ok := t.Params[key].(string); ok && v != "" {
		return v
	}
	return def
}
