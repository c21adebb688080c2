package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/lberthe/atelier/internal/config"
	"github.com/lberthe/atelier/internal/session"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage generation sessions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all sessions",
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show the conversation of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
			{
				Name:      "output",
				Usage:     "Print the output artifact of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsOutput,
			},
		},
		DefaultCommand: "list",
	}
}

func newStore() *session.FileStore {
	return session.NewFileStore(config.SessionsDir())
}

func runSessionsList(_ context.Context, _ *cli.Command) error {
	list, err := newStore().List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tITER\tPROGRESS\tUPDATED\tTITLE")
	for _, s := range list {
		title := s.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d%%\t%s\t%s\n",
			s.ID,
			s.Status,
			s.Counters.Iterations,
			s.Output.Progress,
			s.UpdatedAt.Format("2006-01-02 15:04"),
			title,
		)
	}
	return w.Flush()
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: atelier sessions show <session_id>")
	}

	s, err := newStore().Get(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(s.Conversation) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}

	for _, m := range s.Conversation {
		tag := string(m.Role)
		if m.Type != "" {
			tag += "/" + m.Type
		}
		fmt.Printf("[%s] %s %s\n", m.Ts.Format("15:04:05"), tag, m.Content)
	}
	return nil
}

func runSessionsOutput(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: atelier sessions output <session_id>")
	}

	out, err := newStore().ReadOutput(sessionID)
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	fmt.Print(out)
	return nil
}
