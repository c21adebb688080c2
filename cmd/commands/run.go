package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/config"
	"github.com/lberthe/atelier/internal/engine"
	"github.com/lberthe/atelier/internal/events"
	"github.com/lberthe/atelier/internal/models"
	"github.com/lberthe/atelier/internal/planner"
	"github.com/lberthe/atelier/internal/session"
	"github.com/lberthe/atelier/internal/tools"
)

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a generation session to completion",
		ArgsUsage: "<requirement>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Model provider name from the config (default: models.default)",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Session title (default: derived from the requirement)",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session ID to resume",
			},
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "Override the engine iteration budget",
			},
		},
		Action: runRun,
	}
}

func runRun(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}
	if cmd.IsSet("max-iterations") {
		cfg.Engine.MaxIterations = cmd.Int("max-iterations")
	}

	providerName := cmd.String("provider")
	if providerName == "" {
		providerName = cfg.Models.Default
	}
	providerCfg, ok := cfg.Models.Providers[providerName]
	if !ok {
		return fmt.Errorf("provider %q not configured", providerName)
	}
	chatModel, err := models.CreateModel(ctx, providerCfg)
	if err != nil {
		return fmt.Errorf("init model %q: %w", providerName, err)
	}

	store := session.NewFileStore(config.SessionsDir())

	var s *session.Session
	if id := cmd.String("session"); id != "" {
		s, err = store.Get(id)
		if err != nil {
			return fmt.Errorf("load session %s: %w", id, err)
		}
		if n := session.Recover(s); n > 0 {
			fmt.Fprintf(os.Stderr, "recovered %d stranded task(s)\n", n)
		}
		s.Status = session.StatusActive
	} else {
		requirement := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
		if requirement == "" {
			return fmt.Errorf("usage: atelier run <requirement>")
		}
		title := cmd.String("title")
		if title == "" {
			title = deriveTitle(requirement)
		}
		s, err = store.Create(title, requirement, cfg.Output.RequiredFields, providerName)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "session: %s\n", s.ID)
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()
	unsubscribe := bus.Subscribe(printProgress,
		events.EventTaskStarted, events.EventTaskFailed,
		events.EventPlanCreated, events.EventOutputUpdated,
	)
	defer unsubscribe()

	registry := capability.NewRegistry()
	for _, tool := range []capability.Tool{
		planner.New(),
		tools.NewSearch(cfg.Search),
		tools.NewAskUser(),
		tools.NewGenerate(),
		tools.NewReflect(),
	} {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("register capability: %w", err)
		}
	}

	eng := engine.New(store, registry, chatModel, bus, promptUser, engine.Options{
		MaxIterations:     cfg.Engine.MaxIterations,
		MaxRefineAttempts: cfg.Engine.MaxRefineAttempts,
	})

	res, err := eng.Run(ctx, s)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}

	if !res.Success {
		fmt.Fprintf(os.Stderr, "\nsession %s failed after %d iteration(s): %s\n", s.ID, res.Iterations, res.Reason)
		if res.Reason == engine.ReasonBudgetExhausted {
			fmt.Fprintf(os.Stderr, "resume with: atelier run --session %s\n", s.ID)
		}
		return fmt.Errorf("session failed: %s", res.Reason)
	}

	fmt.Printf("\n%s\n", res.Output.Render())
	fmt.Fprintf(os.Stderr, "completed in %d iteration(s); artifact saved to the session directory\n", res.Iterations)
	return nil
}

// promptUser blocks on stdin until the user supplies a non-empty reply.
// Numbered choices accept either the number or free text.
func promptUser(prompt string, choices []string) (string, error) {
	fmt.Printf("\n%s\n", prompt)
	for i, c := range choices {
		fmt.Printf("  %d) %s\n", i+1, c)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for i, c := range choices {
			if line == fmt.Sprintf("%d", i+1) {
				return c, nil
			}
		}
		return line, nil
	}
}

func printProgress(e events.Event) {
	switch e.Type {
	case events.EventTaskStarted:
		if p, ok := events.ExtractPayload[events.TaskStartedPayload](e); ok {
			fmt.Fprintf(os.Stderr, "» [%s] %s\n", p.Capability, p.Description)
		}
	case events.EventTaskFailed:
		if p, ok := events.ExtractPayload[events.TaskFailedPayload](e); ok {
			fmt.Fprintf(os.Stderr, "✗ [%s] %s (failure #%d)\n", p.Capability, p.Error, p.FailureCount)
		}
	case events.EventPlanCreated:
		if p, ok := events.ExtractPayload[events.PlanCreatedPayload](e); ok {
			note := ""
			if p.Fallback {
				note = " (fallback)"
			}
			fmt.Fprintf(os.Stderr, "∴ plan %s%s: %d goal(s), %d task(s)\n", p.PlanType, note, p.GoalCount, p.TaskCount)
		}
	case events.EventOutputUpdated:
		if p, ok := events.ExtractPayload[events.OutputUpdatedPayload](e); ok {
			fmt.Fprintf(os.Stderr, "✓ %s written (quality %d)\n", p.Field, p.Quality)
		}
	}
}

func deriveTitle(requirement string) string {
	title := requirement
	if len(title) > 60 {
		title = title[:60] + "…"
	}
	return title
}
