package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/render"
)

var errNoFiles = errors.New("no files given")

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Compile files and print diagnostics",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{
				Name:  "no-lint",
				Usage: "report compiler diagnostics only",
			},
		},
		Action: runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errNoFiles
	}

	ws, err := openWorkspace(cmd, sourceDir(args[0]))
	if err != nil {
		return err
	}

	defer func() {
		_ = ws.logger.Sync()
	}()

	c := compiler.New(ws.library)
	analyzer := analysis.NewAnalyzer()
	s := styles(os.Stdout)
	failed := 0

	for _, path := range args {
		source, err := readSource(path)
		if err != nil {
			return err
		}

		unit, err := c.PartialCompile(ctx, path, source, ws.isScript(cmd, path))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		diags := unit.Diagnostics()
		if !cmd.Bool("no-lint") {
			diags = slices.Concat(diags, analyzer.Analyze(unit))
		}

		ws.logger.Debug("Checked", zap.String("path", path), zap.Int("diagnostics", len(diags)))

		err = render.Diagnostics(os.Stdout, path, source, diags, s)
		if err != nil {
			return err
		}

		if unit.Err() != nil {
			failed++
		}
	}

	if failed > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "%d of %d files have errors\n", failed, len(args))

		return cli.Exit("", 1)
	}

	return nil
}
