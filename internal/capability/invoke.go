package capability

import (
	"context"
	"log/slog"

	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/session"
)

// Invoke runs one task through its tool with the mandatory cross-cutting
// behavior: a reasoning trace before invocation, and on any error a
// reflection trace, failed-task bookkeeping, and a non-fatal failure result.
// Capabilities never handle their own top-level logging or status updates.
//
// A result that requires user input leaves the task executing; the engine
// completes it once the reply arrives.
func Invoke(ctx context.Context, t Tool, task *session.Task, cctx *Context) *Result {
	slog.Info("executing task",
		"task_id", task.ID,
		"capability", task.Capability,
		"reasoning", task.Reasoning,
	)
	publish(cctx, events.TaskStartedPayload{
		TaskID:      task.ID,
		Capability:  task.Capability,
		Description: task.Description,
		Reasoning:   task.Reasoning,
	})

	if !t.CanExecute(task) {
		return failTask(cctx, task, "capability mismatch: "+task.Capability)
	}

	res, err := t.Execute(ctx, task, cctx)
	if err != nil {
		slog.Warn("task failed, continuing loop",
			"task_id", task.ID,
			"capability", task.Capability,
			"error", err,
		)
		return failTask(cctx, task, err.Error())
	}
	if res == nil {
		res = &Result{Success: true}
	}

	if res.UserInputRequired {
		return res
	}

	if !res.Success {
		errText := res.Error
		if errText == "" {
			errText = "capability reported failure"
		}
		out := failTask(cctx, task, errText)
		out.Replan = res.Replan
		out.Stop = res.Stop
		return out
	}

	completeTask(cctx, task, res.Payload)
	return res
}

// CompleteSuspended archives a task that was waiting on user input, storing
// the reply as its result payload.
func CompleteSuspended(cctx *Context, task *session.Task, reply string) {
	completeTask(cctx, task, map[string]any{"reply": reply})
}

func completeTask(cctx *Context, task *session.Task, payload map[string]any) {
	status := session.TaskCompleted
	if err := cctx.Session.UpdateTask(task.ID, session.TaskPatch{Status: &status, Result: payload}); err != nil {
		slog.Error("complete task", "task_id", task.ID, "error", err)
		return
	}
	publish(cctx, events.TaskCompletedPayload{TaskID: task.ID, Capability: task.Capability})
}

func failTask(cctx *Context, task *session.Task, errText string) *Result {
	status := session.TaskFailed
	attempts := task.Attempts + 1
	patch := session.TaskPatch{Status: &status, Error: &errText, Attempts: &attempts}
	if err := cctx.Session.UpdateTask(task.ID, patch); err != nil {
		slog.Error("fail task", "task_id", task.ID, "error", err)
	}
	cctx.Session.Counters.Errors++

	publish(cctx, events.TaskFailedPayload{
		TaskID:       task.ID,
		Capability:   task.Capability,
		Error:        errText,
		FailureCount: cctx.Session.Failures.Count(task.Capability),
	})
	return &Result{Success: false, Error: errText}
}

func publish(cctx *Context, payload events.EventPayload) {
	if cctx.Bus == nil {
		return
	}
	cctx.Bus.Publish(events.NewTypedEventWithSession(events.SourceTool, payload, cctx.Session.ID))
}
