package planner

import (
	"fmt"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/session"
)

// safetyPlan is the fixed fallback applied when no structured plan can be
// parsed from a model response: gather requirements, gather inspiration,
// then produce every required output field. The session never stalls on a
// single bad model response.
func safetyPlan(s *session.Session) *planDoc {
	doc := &planDoc{
		Context: "fallback plan: structured plan could not be parsed from the model response",
	}
	if s.MainGoal() == nil {
		doc.Goals = []planGoal{{Description: s.Requirement, Kind: string(session.GoalMain)}}
	}

	doc.Tasks = []planTask{
		{
			Description: "Clarify the requirements with the user",
			Capability:  capability.NameAskUser,
			Priority:    5,
			Reasoning:   "fallback plan: confirm direction before producing output",
		},
		{
			Description: "Gather inspiration material for the requirement",
			Capability:  capability.NameSearch,
			Params:      map[string]any{"query": s.Requirement},
			DependsOn:   []int{0},
			Priority:    4,
			Reasoning:   "fallback plan: collect reference material",
		},
	}
	for i, field := range s.Output.Required {
		doc.Tasks = append(doc.Tasks, planTask{
			Description: fmt.Sprintf("Produce the %s output", field),
			Capability:  capability.NameGenerate,
			Params:      map[string]any{"field": field},
			DependsOn:   []int{1},
			Priority:    3 - i,
			Reasoning:   "fallback plan: required output field",
		})
	}
	return doc
}
