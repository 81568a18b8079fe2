// Package main provides the kalc CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "kalc",
		Version: version,
		Usage:   "Kal completion engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: nearest .kalc.yaml)",
				Sources: cli.EnvVars("KALC_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (overrides config)",
				Sources: cli.EnvVars("KALC_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			completeCommand(),
			checkCommand(),
			playCommand(),
			lspCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
