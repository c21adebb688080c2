package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/thinking"
)

const generateSystem = `You are a creative writer producing one section of a structured artifact (character profile, worldbook). Write rich, concrete content for the requested field. Respond with the content only, no preamble and no JSON.`

// Generate produces one required output field, refining the draft through
// the bounded evaluate/improve cycle before committing it.
type Generate struct{}

// NewGenerate creates the generation capability.
func NewGenerate() *Generate { return &Generate{} }

func (g *Generate) Name() string { return capability.NameGenerate }

func (g *Generate) Description() string {
	return "Produces content for one required output field (profile, worldbook) and refines it until satisfying."
}

func (g *Generate) Params() map[string]string {
	return map[string]string{
		"field": "output field to produce (required)",
		"style": "optional style guidance",
	}
}

func (g *Generate) CanExecute(t *session.Task) bool { return capability.NameMatches(g, t) }

func (g *Generate) Execute(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	field := stringParam(task, "field", "")
	if field == "" {
		return nil, fmt.Errorf("generate: missing field parameter")
	}

	draft, err := thinking.Complete(ctx, cctx.Model, generateSystem, draftPrompt(cctx.Session, task, field))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft) == "" {
		return nil, fmt.Errorf("generate: model produced empty content for %q", field)
	}

	initial := &capability.Result{
		Success: true,
		Payload: map[string]any{"field": field, "content": draft},
	}
	refiner := &generateRefiner{field: field, task: task}
	refined, eval, err := thinking.Refine(ctx, refiner, initial, cctx, cctx.MaxRefineAttempts)
	if err != nil {
		return nil, err
	}

	content, _ := refined.Payload["content"].(string)
	s := cctx.Session
	s.Output.Set(field, content)
	s.Output.Quality = eval.QualityScore
	s.Output.Progress = progress(s.Output)

	s.AppendMessage(session.Message{
		Role:       session.RoleAgent,
		Type:       "output",
		Content:    fmt.Sprintf("produced %s (quality %d)", field, eval.QualityScore),
		TaskID:     task.ID,
		Capability: capability.NameGenerate,
	})
	if cctx.Bus != nil {
		cctx.Bus.Publish(events.NewTypedEventWithSession(events.SourceTool, events.OutputUpdatedPayload{
			Field:    field,
			Quality:  eval.QualityScore,
			Complete: s.Output.Complete(),
		}, s.ID))
	}

	refined.Payload["quality"] = eval.QualityScore
	return refined, nil
}

// generateRefiner adapts field generation to the refine cycle.
type generateRefiner struct {
	field string
	task  *session.Task
}

func (r *generateRefiner) Evaluate(ctx context.Context, res *capability.Result, cctx *capability.Context, attempt int) (*thinking.Evaluation, error) {
	content, _ := res.Payload["content"].(string)
	prompt := fmt.Sprintf("Requirement:\n%s\n\nField: %s (attempt %d)\nContent:\n%s\n\nJudge whether this content satisfies the requirement for this field.",
		cctx.Session.Requirement, r.field, attempt, content)
	return thinking.Evaluate(ctx, cctx.Model, prompt)
}

func (r *generateRefiner) GenerateImprovement(ctx context.Context, res *capability.Result, eval *thinking.Evaluation, cctx *capability.Context) (*thinking.Improvement, error) {
	prompt := fmt.Sprintf("The %s content scored %d/100. Evaluation: %s\nNeeded: %s",
		r.field, eval.QualityScore, eval.Reasoning, strings.Join(eval.ImprovementNeeded, "; "))
	return thinking.GenerateImprovement(ctx, cctx.Model, prompt)
}

func (r *generateRefiner) Improve(ctx context.Context, res *capability.Result, instr *thinking.Improvement, cctx *capability.Context) (*capability.Result, error) {
	content, _ := res.Payload["content"].(string)
	prompt := fmt.Sprintf("Requirement:\n%s\n\nCurrent %s content:\n%s\n\nRewrite it. Focus on: %s. Specifically: %s",
		cctx.Session.Requirement, r.field, content,
		strings.Join(instr.FocusAreas, ", "),
		strings.Join(instr.SpecificRequests, "; "))

	improved, err := thinking.Complete(ctx, cctx.Model, generateSystem, prompt)
	if err != nil {
		return nil, err
	}
	return &capability.Result{
		Success: true,
		Payload: map[string]any{"field": r.field, "content": improved},
	}, nil
}

func draftPrompt(s *session.Session, task *session.Task, field string) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nField to produce: ")
	sb.WriteString(field)
	sb.WriteString("\nTask: ")
	sb.WriteString(task.Description)
	if style := stringParam(task, "style", ""); style != "" {
		sb.WriteString("\nStyle: ")
		sb.WriteString(style)
	}

	// Reference material and decisions accumulated so far.
	for _, m := range s.Conversation {
		if m.Type == "search_results" || m.Role == session.RoleUser {
			sb.WriteString("\n\nContext (")
			sb.WriteString(string(m.Role))
			sb.WriteString("):\n")
			sb.WriteString(m.Content)
		}
	}
	for name, content := range s.Output.Fields {
		if name != field && strings.TrimSpace(content) != "" {
			sb.WriteString("\n\nAlready produced ")
			sb.WriteString(name)
			sb.WriteString(":\n")
			sb.WriteString(content)
		}
	}
	return sb.String()
}

func progress(o session.Output) int {
	if len(o.Required) == 0 {
		return 100
	}
	filled := len(o.Required) - len(o.MissingFields())
	return filled * 100 / len(o.Required)
}
