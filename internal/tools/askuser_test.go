package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/thinking"
)

func TestAskUserExplicitQuestionSkipsModel(t *testing.T) {
	a := NewAskUser()
	cctx := newToolContext(t)
	task := cctx.Session.AddTask(session.TaskSpec{
		Description: "ask",
		Capability:  "ask_user",
		Params:      map[string]any{"question": "What tone should the profile have?"},
	})

	res, err := a.Execute(context.Background(), task, cctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.UserInputRequired || res.Prompt != "What tone should the profile have?" {
		t.Errorf("result: %+v", res)
	}
}

func TestAskUserClarifyScopeGeneratesQuestion(t *testing.T) {
	a := NewAskUser()
	cctx := newToolContext(t,
		`{"selected": "clarify_scope", "reasoning": "requirement is thin", "confidence": 0.8}`,
		"Which era should the setting evoke?",
	)
	task := cctx.Session.AddTask(session.TaskSpec{Description: "clarify requirements", Capability: "ask_user"})

	res, err := a.Execute(context.Background(), task, cctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.UserInputRequired || res.Prompt != "Which era should the setting evoke?" {
		t.Errorf("result: %+v", res)
	}
	if len(res.Choices) != 0 {
		t.Errorf("clarify questions are free-text: %v", res.Choices)
	}
}

func TestAskUserConfirmDirectionOffersChoices(t *testing.T) {
	a := NewAskUser()
	cctx := newToolContext(t,
		`{"selected": "confirm_direction", "reasoning": "plan is set", "confidence": 0.9}`,
	)
	task := cctx.Session.AddTask(session.TaskSpec{Description: "confirm", Capability: "ask_user"})

	res, err := a.Execute(context.Background(), task, cctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.UserInputRequired || len(res.Choices) != 2 {
		t.Errorf("result: %+v", res)
	}
}

func TestAskUserUnparsableRoutingFailsLoud(t *testing.T) {
	a := NewAskUser()
	cctx := newToolContext(t, "hmm, hard to say")
	task := cctx.Session.AddTask(session.TaskSpec{Description: "ask", Capability: "ask_user"})

	if _, err := a.Execute(context.Background(), task, cctx); !errors.Is(err, thinking.ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}
