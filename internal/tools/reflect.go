package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/thinking"
)

const reflectSystem = `You review the progress of an autonomous creative-generation session. Respond with a single JSON object:
{"on_track": bool, "summary": "...", "replan": bool}
Set replan when the remaining plan will not produce the missing output.`

// reflectVerdict is the model's judgment on session progress.
type reflectVerdict struct {
	OnTrack bool   `json:"on_track"`
	Summary string `json:"summary"`
	Replan  bool   `json:"replan"`
}

// Reflect summarizes session progress and decides whether the remaining
// plan still leads to completion.
type Reflect struct{}

// NewReflect creates the reflection capability.
func NewReflect() *Reflect { return &Reflect{} }

func (r *Reflect) Name() string { return capability.NameReflect }

func (r *Reflect) Description() string {
	return "Reviews progress against the requirement and requests a replan when the current plan falls short."
}

func (r *Reflect) Params() map[string]string { return nil }

func (r *Reflect) CanExecute(t *session.Task) bool { return capability.NameMatches(r, t) }

func (r *Reflect) Execute(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	s := cctx.Session

	raw, err := thinking.Complete(ctx, cctx.Model, reflectSystem, reflectPrompt(s))
	if err != nil {
		return nil, err
	}
	verdict, err := thinking.ParseJSON[reflectVerdict](raw)
	if err != nil {
		return nil, fmt.Errorf("reflect: %w", err)
	}

	replan := verdict.Replan
	// Missing output with nothing planned to produce it always warrants a
	// replan, whatever the model says.
	if len(s.Output.MissingFields()) > 0 && !s.HasPendingCapability(capability.NameGenerate) {
		replan = true
	}

	s.AppendMessage(session.Message{
		Role:       session.RoleAgent,
		Type:       "reflection",
		Content:    verdict.Summary,
		TaskID:     task.ID,
		Capability: capability.NameReflect,
	})

	return &capability.Result{
		Success: true,
		Replan:  replan,
		Payload: map[string]any{
			"on_track": verdict.OnTrack,
			"summary":  verdict.Summary,
		},
	}, nil
}

func reflectPrompt(s *session.Session) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString(fmt.Sprintf("\n\nIterations: %d, errors: %d\n", s.Counters.Iterations, s.Counters.Errors))

	if missing := s.Output.MissingFields(); len(missing) > 0 {
		sb.WriteString("Missing output fields: ")
		sb.WriteString(strings.Join(missing, ", "))
		sb.WriteString("\n")
	} else {
		sb.WriteString("All required output fields are filled.\n")
	}

	sb.WriteString(fmt.Sprintf("Live tasks (%d):\n", len(s.Tasks)))
	for _, t := range s.Tasks {
		sb.WriteString(fmt.Sprintf("- [%s/%s] %s\n", t.Capability, t.Status, t.Description))
	}
	if s.Failures.Total() > 0 {
		sb.WriteString(fmt.Sprintf("Total failures: %d\n", s.Failures.Total()))
	}
	return sb.String()
}
