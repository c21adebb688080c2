// Package capability defines the uniform contract every executable
// capability implements, the registry that resolves capability names to
// concrete tools, and the cross-cutting invocation wrapper.
package capability

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/session"
)

// Known capability names. The set is closed for everything the planner can
// schedule out of the box; the registry still accepts runtime registrations
// for genuinely dynamic tools.
const (
	NamePlan     = "plan"
	NameSearch   = "search"
	NameAskUser  = "ask_user"
	NameGenerate = "generate"
	NameReflect  = "reflect"
)

// Known reports whether a capability name belongs to the built-in set.
func Known(name string) bool {
	switch name {
	case NamePlan, NameSearch, NameAskUser, NameGenerate, NameReflect:
		return true
	}
	return false
}

// Result is the outcome of one tool invocation. Failure is recoverable by
// default: a Result with Success=false keeps the loop running unless Stop
// is set.
type Result struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`

	// UserInputRequired suspends the engine on the input callback. Prompt
	// and Choices describe what to ask.
	UserInputRequired bool     `json:"user_input_required,omitempty"`
	Prompt            string   `json:"prompt,omitempty"`
	Choices           []string `json:"choices,omitempty"`

	// Replan asks the engine to enqueue a replan task.
	Replan bool `json:"replan,omitempty"`
	// Stop ends the loop after this task.
	Stop bool `json:"stop,omitempty"`
}

// Context is the snapshot handed to every tool invocation. The engine never
// inspects these fields itself; it only forwards them.
type Context struct {
	Session           *session.Session
	Registry          *Registry
	Model             model.ToolCallingChatModel
	Bus               *events.Bus
	MaxRefineAttempts int
}

// Tool is the uniform contract every capability implements.
type Tool interface {
	// Name returns the capability name tasks declare.
	Name() string
	// Description is shown to the planner model when listing tools.
	Description() string
	// Params documents the free-form parameters the tool understands,
	// name to description.
	Params() map[string]string
	// CanExecute reports whether this tool handles the task. Exact
	// capability-name match.
	CanExecute(t *session.Task) bool
	// Execute runs the task. A returned error means the capability failed;
	// the invocation wrapper records it and the loop continues.
	Execute(ctx context.Context, task *session.Task, cctx *Context) (*Result, error)
}

// NameMatches is the standard CanExecute implementation.
func NameMatches(t Tool, task *session.Task) bool {
	return task.Capability == t.Name()
}
