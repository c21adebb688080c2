// Package commands holds the atelier CLI commands.
package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/lberthe/atelier/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "atelier",
		Usage: "Autonomous creative-generation sessions (character profiles, worldbooks)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewSessionsCommand(),
			NewStatusCommand(),
		},
	}
}
