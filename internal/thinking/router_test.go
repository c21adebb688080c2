package thinking

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRouteToSubToolValidSelection(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"selected": "clarify_scope", "reasoning": "requirement is vague", "confidence": 0.9}`,
	}}

	route, err := RouteToSubTool(context.Background(), m, "pick one", []string{"clarify_scope", "confirm_direction"})
	if err != nil {
		t.Fatal(err)
	}
	if route.Selected != "clarify_scope" || route.Confidence != 0.9 {
		t.Errorf("got %+v", route)
	}
}

func TestRouteToSubToolUnknownSelectionFallsBack(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"selected": "invent_things", "reasoning": "sounds fun", "confidence": 0.8}`,
	}}

	route, err := RouteToSubTool(context.Background(), m, "pick one", []string{"clarify_scope", "confirm_direction"})
	if err != nil {
		t.Fatal(err)
	}
	if route.Selected != "clarify_scope" {
		t.Errorf("selected: got %q, want first available", route.Selected)
	}
	if !strings.Contains(route.Reasoning, "fallback") {
		t.Errorf("reasoning should record the substitution: %q", route.Reasoning)
	}
}

func TestRouteToSubToolGarbageFailsLoud(t *testing.T) {
	m := &fakeModel{responses: []string{"the second one, probably"}}
	if _, err := RouteToSubTool(context.Background(), m, "pick", []string{"a", "b"}); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}

func TestRouteToSubToolNoOptions(t *testing.T) {
	m := &fakeModel{}
	if _, err := RouteToSubTool(context.Background(), m, "pick", nil); err == nil {
		t.Fatal("expected error")
	}
	if m.calls != 0 {
		t.Error("model should not be called without options")
	}
}
