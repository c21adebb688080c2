package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/thinking"
)

// Sub-behaviors the ask-user capability routes among.
const (
	subClarifyScope     = "clarify_scope"
	subConfirmDirection = "confirm_direction"
)

const askUserSystem = `You write one focused question for the user of a creative-generation session. Ask only for what is genuinely missing or ambiguous. Respond with the question text only, no preamble.`

// AskUser suspends the session on the caller's input callback with a
// contextual question. The engine resumes the task when the reply arrives.
type AskUser struct{}

// NewAskUser creates the ask-user capability.
func NewAskUser() *AskUser { return &AskUser{} }

func (a *AskUser) Name() string { return capability.NameAskUser }

func (a *AskUser) Description() string {
	return "Asks the user a question and waits for the reply. Use when the requirement is ambiguous or a decision is needed."
}

func (a *AskUser) Params() map[string]string {
	return map[string]string{
		"question": "exact question to ask; generated from context when absent",
	}
}

func (a *AskUser) CanExecute(t *session.Task) bool { return capability.NameMatches(a, t) }

func (a *AskUser) Execute(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	if q := stringParam(task, "question", ""); q != "" {
		return &capability.Result{Success: true, UserInputRequired: true, Prompt: q}, nil
	}

	route, err := thinking.RouteToSubTool(ctx, cctx.Model,
		routePrompt(cctx.Session, task),
		[]string{subClarifyScope, subConfirmDirection})
	if err != nil {
		return nil, err
	}

	switch route.Selected {
	case subConfirmDirection:
		return &capability.Result{
			Success:           true,
			UserInputRequired: true,
			Prompt:            confirmPrompt(cctx.Session),
			Choices:           []string{"continue as planned", "change direction"},
		}, nil
	default:
		question, err := thinking.Complete(ctx, cctx.Model, askUserSystem, questionPrompt(cctx.Session, task))
		if err != nil {
			return nil, err
		}
		question = strings.TrimSpace(question)
		if question == "" {
			return nil, fmt.Errorf("ask_user: model produced an empty question")
		}
		return &capability.Result{Success: true, UserInputRequired: true, Prompt: question}, nil
	}
}

func routePrompt(s *session.Session, task *session.Task) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nTask: ")
	sb.WriteString(task.Description)
	if missing := s.Output.MissingFields(); len(missing) > 0 {
		sb.WriteString("\nMissing output fields: ")
		sb.WriteString(strings.Join(missing, ", "))
	} else {
		sb.WriteString("\nAll required output fields are already filled.")
	}
	sb.WriteString("\n\nDecide whether the user needs a clarifying question or a direction confirmation.")
	return sb.String()
}

func questionPrompt(s *session.Session, task *session.Task) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nTask: ")
	sb.WriteString(task.Description)
	sb.WriteString("\n\nRecent conversation:\n")
	for _, m := range s.RecentUserMessages(3) {
		sb.WriteString("- ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func confirmPrompt(s *session.Session) string {
	var sb strings.Builder
	sb.WriteString("Current direction: ")
	sb.WriteString(s.Requirement)
	if main := s.MainGoal(); main != nil {
		sb.WriteString("\nMain goal: ")
		sb.WriteString(main.Description)
	}
	sb.WriteString("\nShould I continue in this direction?")
	return sb.String()
}
