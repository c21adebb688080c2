package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lberthe/atelier/internal/session"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show the detailed state of a session",
		ArgsUsage: "<session_id>",
		Action:    runStatus,
	}
}

func runStatus(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: atelier status <session_id>")
	}

	s, err := newStore().Get(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	fmt.Printf("Session %s (%s)\n", s.ID, s.Status)
	fmt.Printf("Title:       %s\n", s.Title)
	fmt.Printf("Iterations:  %d (errors: %d)\n", s.Counters.Iterations, s.Counters.Errors)
	fmt.Printf("Progress:    %d%%, quality %d\n", s.Output.Progress, s.Output.Quality)
	if missing := s.Output.MissingFields(); len(missing) > 0 {
		fmt.Printf("Missing:     %s\n", strings.Join(missing, ", "))
	}

	if main := s.MainGoal(); main != nil {
		fmt.Printf("\nMain goal: [%s] %s\n", main.Status, main.Description)
	}
	for _, g := range s.Goals {
		if g.Kind == session.GoalSub {
			fmt.Printf("  sub: [%s] %s\n", g.Status, g.Description)
		}
	}

	if len(s.Tasks) > 0 {
		fmt.Printf("\nLive tasks (%d):\n", len(s.Tasks))
		for _, t := range s.Tasks {
			fmt.Printf("  [%s/%s] p%d %s\n", t.Capability, t.Status, t.Priority, t.Description)
		}
	}

	completed, failed, obsolete := 0, 0, 0
	for _, t := range s.Archived {
		switch t.Status {
		case session.TaskCompleted:
			completed++
		case session.TaskFailed:
			failed++
		case session.TaskObsolete:
			obsolete++
		}
	}
	fmt.Printf("\nArchived: %d completed, %d failed, %d obsolete\n", completed, failed, obsolete)

	if s.Failures.Total() > 0 {
		fmt.Printf("Failures:\n")
		for _, name := range s.Failures.CriticalCapabilities(1) {
			fmt.Printf("  %s: %d\n", name, s.Failures.Count(name))
		}
	}
	return nil
}
