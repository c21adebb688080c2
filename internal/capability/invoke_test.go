package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/lberthe/atelier/internal/session"
)

func newInvokeContext() *Context {
	return &Context{
		Session: &session.Session{
			ID:     "sess_test",
			Status: session.StatusActive,
			Output: session.NewOutput([]string{"profile"}),
		},
	}
}

func TestInvokeSuccessArchivesTask(t *testing.T) {
	cctx := newInvokeContext()
	task := cctx.Session.AddTask(session.TaskSpec{Description: "d", Capability: "search"})

	tool := &stubTool{name: "search", execute: func(context.Context, *session.Task, *Context) (*Result, error) {
		return &Result{Success: true, Payload: map[string]any{"hits": 3}}, nil
	}}

	res := Invoke(context.Background(), tool, task, cctx)
	if !res.Success {
		t.Fatalf("result: %+v", res)
	}

	archived := cctx.Session.Task(task.ID)
	if archived.Status != session.TaskCompleted {
		t.Errorf("status: got %q", archived.Status)
	}
	if len(cctx.Session.Tasks) != 0 {
		t.Errorf("live set: got %d tasks", len(cctx.Session.Tasks))
	}
}

func TestInvokeErrorIsRecoverable(t *testing.T) {
	cctx := newInvokeContext()
	task := cctx.Session.AddTask(session.TaskSpec{Description: "d", Capability: "search"})

	tool := &stubTool{name: "search", execute: func(context.Context, *session.Task, *Context) (*Result, error) {
		return nil, errors.New("network down")
	}}

	res := Invoke(context.Background(), tool, task, cctx)
	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Stop {
		t.Error("failure must not stop the loop")
	}
	if res.Error != "network down" {
		t.Errorf("error: got %q", res.Error)
	}

	archived := cctx.Session.Task(task.ID)
	if archived.Status != session.TaskFailed {
		t.Errorf("status: got %q", archived.Status)
	}
	if got := cctx.Session.Failures.Count("search"); got != 1 {
		t.Errorf("failure count: got %d, want 1", got)
	}
}

func TestInvokeStructuredFailureSurfacedVerbatim(t *testing.T) {
	cctx := newInvokeContext()
	task := cctx.Session.AddTask(session.TaskSpec{Description: "d", Capability: "generate"})

	tool := &stubTool{name: "generate", execute: func(context.Context, *session.Task, *Context) (*Result, error) {
		return &Result{Success: false, Error: "evaluation rejected draft"}, nil
	}}

	res := Invoke(context.Background(), tool, task, cctx)
	if res.Success || res.Error != "evaluation rejected draft" {
		t.Errorf("result: %+v", res)
	}
	if cctx.Session.Task(task.ID).Status != session.TaskFailed {
		t.Error("expected task failed")
	}
}

func TestInvokeUserInputLeavesTaskExecuting(t *testing.T) {
	cctx := newInvokeContext()
	task := cctx.Session.AddTask(session.TaskSpec{Description: "d", Capability: "ask_user"})
	task.Status = session.TaskExecuting

	tool := &stubTool{name: "ask_user", execute: func(context.Context, *session.Task, *Context) (*Result, error) {
		return &Result{Success: true, UserInputRequired: true, Prompt: "what tone?"}, nil
	}}

	res := Invoke(context.Background(), tool, task, cctx)
	if !res.UserInputRequired {
		t.Fatal("expected user input request")
	}
	if got := cctx.Session.Task(task.ID).Status; got != session.TaskExecuting {
		t.Errorf("status: got %q, want executing until reply", got)
	}

	CompleteSuspended(cctx, task, "gritty")
	archived := cctx.Session.Task(task.ID)
	if archived.Status != session.TaskCompleted {
		t.Errorf("status after reply: got %q", archived.Status)
	}
	if archived.Result["reply"] != "gritty" {
		t.Errorf("result: got %+v", archived.Result)
	}
}

func TestInvokeCapabilityMismatch(t *testing.T) {
	cctx := newInvokeContext()
	task := cctx.Session.AddTask(session.TaskSpec{Description: "d", Capability: "generate"})

	tool := &stubTool{name: "search"}
	res := Invoke(context.Background(), tool, task, cctx)
	if res.Success {
		t.Fatal("expected failure on capability mismatch")
	}
	if cctx.Session.Task(task.ID).Status != session.TaskFailed {
		t.Error("expected task failed")
	}
}
