package main

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/complete"
	"github.com/rlch/kalc/render"
)

var errNotTerminal = errors.New("play needs an interactive terminal")

func playCommand() *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Type a script and watch completions",
		Action: runPlay,
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return errNotTerminal
	}

	ws, err := openWorkspace(cmd, ".")
	if err != nil {
		return err
	}

	defer func() {
		_ = ws.logger.Sync()
	}()

	bridge := compiler.NewBridge(compiler.New(ws.library), ws.logger)
	completer := complete.New(bridge, ws.logger)

	return render.RunPlayground(ctx, os.Stdin, os.Stdout, completer, render.DefaultStyles())
}
