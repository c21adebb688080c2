package planner

import (
	"fmt"

	"github.com/lberthe/atelier/internal/thinking"
)

// planDoc is the structured plan the model is asked to produce. Task
// dependencies reference other tasks in the same document by index, since the
// model cannot know the ids the pool will assign.
type planDoc struct {
	Goals   []planGoal `json:"goals"`
	Tasks   []planTask `json:"tasks"`
	Context string     `json:"context,omitempty"`
}

type planGoal struct {
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type planTask struct {
	Description string         `json:"description"`
	Capability  string         `json:"capability"`
	Params      map[string]any `json:"params,omitempty"`
	DependsOn   []int          `json:"depends_on,omitempty"`
	Priority    int            `json:"priority"`
	Reasoning   string         `json:"reasoning,omitempty"`
}

// removalAnalysis is the model's judgment on what a changed requirement
// makes obsolete.
type removalAnalysis struct {
	Reason       string `json:"reason"`
	KeepFinished bool   `json:"keep_finished_output"`
}

// failureAnalysis summarizes critically failing capabilities with
// substitution suggestions. It never becomes pool mutations.
type failureAnalysis struct {
	Summary     string              `json:"summary"`
	Suggestions []failureSuggestion `json:"suggestions"`
}

type failureSuggestion struct {
	Capability string `json:"capability"`
	Suggestion string `json:"suggestion"`
}

// parsePlan extracts and validates a plan document from a model response.
func parsePlan(raw string) (*planDoc, error) {
	doc, err := thinking.ParseJSON[planDoc](raw)
	if err != nil {
		return nil, err
	}
	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("%w: plan contains no tasks", thinking.ErrUnparsable)
	}
	for i, t := range doc.Tasks {
		if t.Description == "" || t.Capability == "" {
			return nil, fmt.Errorf("%w: task %d missing description or capability", thinking.ErrUnparsable, i)
		}
		for _, dep := range t.DependsOn {
			if dep < 0 || dep >= len(doc.Tasks) || dep == i {
				return nil, fmt.Errorf("%w: task %d has invalid dependency index %d", thinking.ErrUnparsable, i, dep)
			}
		}
	}
	for i, g := range doc.Goals {
		if g.Description == "" {
			return nil, fmt.Errorf("%w: goal %d missing description", thinking.ErrUnparsable, i)
		}
	}
	return doc, nil
}
