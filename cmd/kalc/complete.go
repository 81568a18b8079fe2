package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/complete"
	"github.com/rlch/kalc/render"
)

var errCompleteUsage = errors.New("usage: kalc complete FILE OFFSET")

func completeCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "List completions at a position",
		ArgsUsage: "FILE OFFSET",
		Description: "OFFSET is a byte offset or LINE:COLUMN (1-based, columns in characters).\n" +
			"Use - as FILE to read from stdin.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output items as JSON",
			},
			modeFlag(),
		},
		Action: runComplete,
	}
}

func runComplete(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return errCompleteUsage
	}

	path := args[0]

	source, err := readSource(path)
	if err != nil {
		return err
	}

	caret, err := parseOffset(source, args[1])
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, sourceDir(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = ws.logger.Sync()
	}()

	completer := complete.New(compiler.New(ws.library), ws.logger)
	items := completer.Complete(ctx, path, source, ws.isScript(cmd, path), caret)

	if cmd.Bool("json") {
		return render.ItemsJSON(os.Stdout, source, items)
	}

	return render.Items(os.Stdout, items, styles(os.Stdout))
}

// parseOffset accepts a byte offset or a 1-based LINE:COLUMN.
func parseOffset(source, arg string) (int, error) {
	line, col, ok := strings.Cut(arg, ":")
	if !ok {
		offset, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("offset %q: %w", arg, err)
		}

		return offset, nil
	}

	l, err := strconv.Atoi(line)
	if err != nil || l < 1 {
		return 0, fmt.Errorf("line %q: must be a positive integer", line)
	}

	c, err := strconv.Atoi(col)
	if err != nil || c < 1 {
		return 0, fmt.Errorf("column %q: must be a positive integer", col)
	}

	offset := 0

	for range l - 1 {
		next := strings.IndexByte(source[offset:], '\n')
		if next < 0 {
			return 0, fmt.Errorf("line %d: past end of file", l)
		}

		offset += next + 1
	}

	for range c - 1 {
		if offset >= len(source) || source[offset] == '\n' {
			return 0, fmt.Errorf("column %d: past end of line %d", c, l)
		}

		_, size := utf8.DecodeRuneInString(source[offset:])
		offset += size
	}

	return offset, nil
}
