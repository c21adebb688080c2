package capability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lberthe/atelier/internal/session"
)

type stubTool struct {
	name    string
	desc    string
	params  map[string]string
	execute func(ctx context.Context, task *session.Task, cctx *Context) (*Result, error)
}

func (s *stubTool) Name() string                           { return s.name }
func (s *stubTool) Description() string                    { return s.desc }
func (s *stubTool) Params() map[string]string              { return s.params }
func (s *stubTool) CanExecute(t *session.Task) bool        { return NameMatches(s, t) }
func (s *stubTool) Execute(ctx context.Context, task *session.Task, cctx *Context) (*Result, error) {
	if s.execute != nil {
		return s.execute(ctx, task, cctx)
	}
	return &Result{Success: true}, nil
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "search", desc: "web search"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tool, err := r.Resolve("search")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tool.Name() != "search" {
		t.Errorf("name: got %q", tool.Name())
	}
}

func TestRegistryUnknownCapability(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("telepathy")
	if !errors.Is(err, ErrUnknownCapability) {
		t.Errorf("expected ErrUnknownCapability, got %v", err)
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "plan"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubTool{name: "plan"}); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "custom"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.Unregister("custom")
	if _, err := r.Resolve("custom"); !errors.Is(err, ErrUnknownCapability) {
		t.Errorf("expected ErrUnknownCapability after Unregister, got %v", err)
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{
		name:   "search",
		desc:   "search the web",
		params: map[string]string{"query": "what to search for"},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := r.Describe()
	if !strings.Contains(got, "search: search the web") {
		t.Errorf("Describe: %q", got)
	}
	if !strings.Contains(got, "query: what to search for") {
		t.Errorf("Describe params: %q", got)
	}
}

func TestKnownCapabilities(t *testing.T) {
	for _, name := range []string{NamePlan, NameSearch, NameAskUser, NameGenerate, NameReflect} {
		if !Known(name) {
			t.Errorf("Known(%q): got false", name)
		}
	}
	if Known("telepathy") {
		t.Error("Known(telepathy): got true")
	}
}
