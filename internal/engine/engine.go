// Package engine drives the iterate-select-execute-observe loop of one
// generation session: ready-task selection, tool invocation, user-input
// suspension, replanning, and termination.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/planner"
	"github.com/lberthe/atelier/internal/session"
)

// State is the engine's position in its lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateThinking    State = "thinking"
	StateExecuting   State = "executing"
	StateWaitingUser State = "waiting_user"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal failure reasons callers can branch on, e.g. to offer a resume.
const (
	ReasonBudgetExhausted = "iteration budget exhausted"
	ReasonCancelled       = "cancelled"
)

// MaxPriority is the priority used for injected replan and failure-analysis
// tasks so they always run first.
const MaxPriority = 10

// DefaultMaxIterations bounds the loop when no budget is configured.
const DefaultMaxIterations = 50

// UserInputFunc blocks until the user (or a scripted driver in tests)
// supplies a reply. The engine imposes no timeout on it.
type UserInputFunc func(prompt string, choices []string) (string, error)

// Options tunes one engine instance.
type Options struct {
	MaxIterations     int
	MaxRefineAttempts int
}

// RunResult is the outcome of a session run.
type RunResult struct {
	Success    bool
	Reason     string
	Output     session.Output
	Iterations int
}

// Engine executes sessions one task at a time. A single engine instance
// drives a single session flow; separate sessions get separate instances.
type Engine struct {
	store    session.Store
	registry *capability.Registry
	model    model.ToolCallingChatModel
	bus      *events.Bus
	input    UserInputFunc
	opts     Options
	state    State
}

// New assembles an engine. The registry is passed in explicitly so parallel
// sessions can carry different tool sets; store and bus may be nil when
// persistence or eventing is not wanted.
func New(store session.Store, registry *capability.Registry, m model.ToolCallingChatModel, bus *events.Bus, input UserInputFunc, opts Options) *Engine {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Engine{
		store:    store,
		registry: registry,
		model:    m,
		bus:      bus,
		input:    input,
		opts:     opts,
		state:    StateIdle,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// Run drives the session until completion, failure, stop, cancellation, or
// iteration exhaustion. The session record is persisted after every
// mutation; an unexpected store failure is session-fatal.
func (e *Engine) Run(ctx context.Context, s *session.Session) (*RunResult, error) {
	e.state = StateIdle
	e.publish(s, events.SessionStartedPayload{Requirement: s.Requirement})

	cctx := &capability.Context{
		Session:           s,
		Registry:          e.registry,
		Model:             e.model,
		Bus:               e.bus,
		MaxRefineAttempts: e.opts.MaxRefineAttempts,
	}

	e.bootstrap(s)

	reason := ReasonBudgetExhausted
loop:
	for {
		if ctx.Err() != nil {
			reason = ReasonCancelled
			break
		}
		if s.Counters.Iterations >= e.opts.MaxIterations {
			break
		}

		e.state = StateThinking
		ready := s.ReadyTasks()
		if len(ready) == 0 {
			if !e.shouldContinue(s) {
				reason = "no further work available"
				break
			}
			s.Counters.Iterations++
			if err := e.persist(s); err != nil {
				return e.fatal(s, err)
			}
			continue
		}

		task := ready[0]
		executing := session.TaskExecuting
		if err := s.UpdateTask(task.ID, session.TaskPatch{Status: &executing}); err != nil {
			return e.fatal(s, err)
		}
		e.state = StateExecuting

		res := e.invoke(ctx, task, cctx)

		if res.UserInputRequired {
			if err := e.suspend(s, task, res, cctx); err != nil {
				return e.fatal(s, err)
			}
			// A user-input round trip does not consume iteration budget.
			continue
		}

		if res.Replan {
			e.enqueueReplan(s)
		}

		s.Counters.Iterations++
		if err := e.persist(s); err != nil {
			return e.fatal(s, err)
		}

		if res.Stop {
			reason = "stopped by capability"
			break loop
		}
	}

	return e.finish(s, reason)
}

// bootstrap seeds an empty session with the initial planning task.
func (e *Engine) bootstrap(s *session.Session) {
	if s.MainGoal() != nil || len(s.Tasks) > 0 || len(s.Archived) > 0 || s.Output.Complete() {
		return
	}
	s.AddTask(session.TaskSpec{
		Description: "Plan the session from the user requirement",
		Capability:  capability.NamePlan,
		Params:      map[string]any{"plan_type": planner.PlanInitial},
		Priority:    MaxPriority,
		Reasoning:   "no goals or tasks exist yet",
	})
}

// invoke resolves the task's tool and runs it through the cross-cutting
// wrapper. An unresolvable capability is an ordinary capability failure.
func (e *Engine) invoke(ctx context.Context, task *session.Task, cctx *capability.Context) *capability.Result {
	tool, err := e.registry.Resolve(task.Capability)
	if err != nil {
		slog.Warn("unresolvable capability", "task_id", task.ID, "capability", task.Capability)
		status := session.TaskFailed
		errText := err.Error()
		attempts := task.Attempts + 1
		if uerr := cctx.Session.UpdateTask(task.ID, session.TaskPatch{Status: &status, Error: &errText, Attempts: &attempts}); uerr != nil {
			slog.Error("fail unresolvable task", "task_id", task.ID, "error", uerr)
		}
		cctx.Session.Counters.Errors++
		return &capability.Result{Success: false, Error: errText}
	}
	return capability.Invoke(ctx, tool, task, cctx)
}

// suspend blocks on the input callback, records the reply, completes the
// suspended task, and enqueues a complete replan when the reply reads as a
// major requirement change.
func (e *Engine) suspend(s *session.Session, task *session.Task, res *capability.Result, cctx *capability.Context) error {
	e.state = StateWaitingUser
	e.publish(s, events.PromptRequestPayload{Prompt: res.Prompt, Choices: res.Choices, TaskID: task.ID})

	prior := s.RecentUserMessages(similarityWindow)
	reply, err := e.input(res.Prompt, res.Choices)
	if err != nil {
		return fmt.Errorf("user input: %w", err)
	}

	msg := session.Message{Role: session.RoleUser, Type: "reply", Content: reply, TaskID: task.ID}
	s.AppendMessage(msg)
	if e.store != nil {
		if err := e.store.AppendMessage(s.ID, msg); err != nil {
			return err
		}
	}
	capability.CompleteSuspended(cctx, task, reply)

	major := IsMajorChange(reply, prior)
	e.publish(s, events.PromptResponsePayload{Reply: reply, MajorChange: major})
	if major {
		slog.Info("major requirement change detected", "session_id", s.ID)
		s.AddTask(session.TaskSpec{
			Description: "Re-plan the session around the changed requirements",
			Capability:  capability.NamePlan,
			Params:      map[string]any{"plan_type": planner.PlanComplete, "requirement_update": reply},
			Priority:    MaxPriority,
			Reasoning:   "user input indicates a major requirement change",
		})
	}
	return e.persist(s)
}

// enqueueReplan adds an incremental replan task unless planning work is
// already pending.
func (e *Engine) enqueueReplan(s *session.Session) {
	if s.HasPendingCapability(capability.NamePlan) {
		return
	}
	s.AddTask(session.TaskSpec{
		Description: "Update the plan from current progress",
		Capability:  capability.NamePlan,
		Params:      map[string]any{"plan_type": planner.PlanReplan},
		Priority:    MaxPriority - 1,
		Reasoning:   "a capability requested a replan",
	})
}

// finish runs the terminal check: the output-completion predicate decides
// between Completed and Failed regardless of how the loop exited.
func (e *Engine) finish(s *session.Session, reason string) (*RunResult, error) {
	if s.Output.Complete() {
		s.Status = session.StatusCompleted
		e.state = StateCompleted
		if e.store != nil {
			if err := e.store.WriteOutput(s.ID, s.Output.Render()); err != nil {
				slog.Warn("write output artifact", "session_id", s.ID, "error", err)
			}
		}
		e.publish(s, events.SessionCompletedPayload{Iterations: s.Counters.Iterations})
		if err := e.persist(s); err != nil {
			return e.fatal(s, err)
		}
		return &RunResult{Success: true, Output: s.Output, Iterations: s.Counters.Iterations}, nil
	}

	s.Status = session.StatusFailed
	e.state = StateFailed
	e.publish(s, events.SessionFailedPayload{Reason: reason, Iterations: s.Counters.Iterations})
	if err := e.persist(s); err != nil {
		return e.fatal(s, err)
	}
	return &RunResult{Success: false, Reason: reason, Output: s.Output, Iterations: s.Counters.Iterations}, nil
}

// fatal marks the session failed after an unexpected error escaping the
// loop, e.g. a store conflict.
func (e *Engine) fatal(s *session.Session, err error) (*RunResult, error) {
	s.Status = session.StatusFailed
	e.state = StateFailed
	slog.Error("session-fatal error", "session_id", s.ID, "error", err)
	e.publish(s, events.SessionFailedPayload{Reason: err.Error(), Iterations: s.Counters.Iterations})
	return &RunResult{Success: false, Reason: err.Error(), Iterations: s.Counters.Iterations}, err
}

func (e *Engine) persist(s *session.Session) error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(s)
}

func (e *Engine) publish(s *session.Session, payload events.EventPayload) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.NewTypedEventWithSession(events.SourceEngine, payload, s.ID))
}
