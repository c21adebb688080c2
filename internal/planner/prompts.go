package planner

import (
	"fmt"
	"strings"

	"github.com/lberthe/atelier/internal/session"
)

const plannerSystem = `You are the planning component of an autonomous creative-generation agent. You decompose a user requirement into goals and executable tasks.

Respond with a single JSON object:
{
  "goals": [{"description": "...", "kind": "main|sub"}],
  "tasks": [{"description": "...", "capability": "name", "params": {}, "depends_on": [task indexes], "priority": 1-10, "reasoning": "..."}],
  "context": "optional note about the plan"
}
Dependencies reference tasks in this response by zero-based index. Higher priority runs first.`

const removalSystem = `The user changed the requirements mid-session. Judge what previously planned work is now obsolete. Respond with a single JSON object:
{"reason": "one-line reason the pending work is obsolete", "keep_finished_output": bool}`

const failureSystem = `Several capabilities of an autonomous agent are failing repeatedly. Suggest how to work around them. Respond with a single JSON object:
{"summary": "...", "suggestions": [{"capability": "name", "suggestion": "what to do instead"}]}`

func initialPrompt(s *session.Session, toolCatalog string) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nAvailable capabilities:\n")
	sb.WriteString(toolCatalog)
	sb.WriteString("\nRequired output fields: ")
	sb.WriteString(strings.Join(s.Output.Required, ", "))
	sb.WriteString("\n\nProduce a goal tree (exactly one main goal) and a starter task list that leads to every required output field being produced.")
	return sb.String()
}

func replanPrompt(s *session.Session, toolCatalog string) string {
	var sb strings.Builder
	sb.WriteString("Requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nAvailable capabilities:\n")
	sb.WriteString(toolCatalog)
	sb.WriteString("\nCurrent state:\n")
	sb.WriteString(poolSummary(s))
	sb.WriteString(failureSummary(s))
	sb.WriteString(outputSummary(s))
	sb.WriteString("\nProduce incremental new tasks that close the remaining gaps. Do not repeat completed work. Goals are optional; add them only when the intent tree is missing a branch.")
	return sb.String()
}

func removalPrompt(s *session.Session, update string) string {
	var sb strings.Builder
	sb.WriteString("Original requirement:\n")
	sb.WriteString(s.Requirement)
	sb.WriteString("\n\nNew user input:\n")
	sb.WriteString(update)
	sb.WriteString("\n\nPending work:\n")
	for _, t := range s.Tasks {
		if t.Status == session.TaskPending {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", t.Capability, t.Description))
		}
	}
	return sb.String()
}

func failurePrompt(s *session.Session, critical []string) string {
	var sb strings.Builder
	sb.WriteString("Critically failing capabilities: ")
	sb.WriteString(strings.Join(critical, ", "))
	sb.WriteString("\n\nRecent failures:\n")
	for _, rec := range s.Failures.Recent {
		sb.WriteString(fmt.Sprintf("- %s: %s (%s)\n", rec.Capability, rec.TaskDescription, rec.Error))
	}
	sb.WriteString(outputSummary(s))
	return sb.String()
}

func poolSummary(s *session.Session) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Live tasks (%d):\n", len(s.Tasks)))
	for _, t := range s.Tasks {
		sb.WriteString(fmt.Sprintf("- [%s/%s] %s\n", t.Capability, t.Status, t.Description))
	}
	completed, failed := 0, 0
	for _, t := range s.Archived {
		switch t.Status {
		case session.TaskCompleted:
			completed++
		case session.TaskFailed:
			failed++
		}
	}
	sb.WriteString(fmt.Sprintf("Archived: %d completed, %d failed, %d total.\n", completed, failed, len(s.Archived)))
	return sb.String()
}

func failureSummary(s *session.Session) string {
	if s.Failures.Total() == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Failure counts:\n")
	for _, name := range s.Failures.CriticalCapabilities(1) {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", name, s.Failures.Count(name)))
	}
	return sb.String()
}

func outputSummary(s *session.Session) string {
	missing := s.Output.MissingFields()
	if len(missing) == 0 {
		return "All required output fields are filled.\n"
	}
	return fmt.Sprintf("Missing output fields: %s\n", strings.Join(missing, ", "))
}
