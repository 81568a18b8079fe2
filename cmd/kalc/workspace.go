package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/lsp"
	"github.com/rlch/kalc/render"
	"github.com/rlch/kalc/types"
)

// workspace is the configuration, logger and class library a command runs with.
type workspace struct {
	config  *kalc.Config
	logger  *zap.Logger
	library *types.Library
}

// openWorkspace resolves the config for dir, honoring --config, and loads
// the libraries it lists.
func openWorkspace(cmd *cli.Command, dir string) (*workspace, error) {
	cfg, err := loadConfig(cmd.String("config"), dir)
	if err != nil {
		return nil, err
	}

	level := cmd.String("log-level")
	if level == "" {
		level = cfg.LogLevel
	}

	logger, err := newLogger(level)
	if err != nil {
		return nil, err
	}

	lib := types.Builtins()

	if paths := cfg.LibraryPaths(); len(paths) > 0 {
		lib, err = lsp.NewLibraryLoader(logger).Load(paths)
		if err != nil {
			return nil, err
		}
	}

	return &workspace{config: cfg, logger: logger, library: lib}, nil
}

func loadConfig(path, dir string) (*kalc.Config, error) {
	if path != "" {
		return kalc.LoadConfigFile(path)
	}

	cfg, err := kalc.LoadConfig(dir)
	if errors.Is(err, kalc.ErrConfigNotFound) {
		return kalc.DefaultConfig(), nil
	}

	return cfg, err
}

// newLogger builds a development logger on stderr. Stdout carries command
// output.
func newLogger(level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	if level != "" {
		l, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}

		config.Level = zap.NewAtomicLevelAt(l)
	}

	return config.Build()
}

// readSource reads path, or stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)

		return string(data), err
	}

	data, err := os.ReadFile(filepath.Clean(path))

	return string(data), err
}

// sourceDir is the directory config discovery starts from.
func sourceDir(path string) string {
	if path == "-" {
		return "."
	}

	return filepath.Dir(path)
}

// styles picks colored output for terminals.
func styles(f *os.File) *render.Styles {
	if isatty.IsTerminal(f.Fd()) {
		return render.DefaultStyles()
	}

	return render.PlainStyles()
}

// modeFlag selects script or class mode, defaulting to the config's patterns.
func modeFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "compile mode: auto, script or class",
		Value: "auto",
		Validator: func(s string) error {
			switch s {
			case "auto", "script", "class":
				return nil
			default:
				return fmt.Errorf("unknown mode %q", s)
			}
		},
	}
}

func (w *workspace) isScript(cmd *cli.Command, path string) bool {
	switch cmd.String("mode") {
	case "script":
		return true
	case "class":
		return false
	default:
		return w.config.IsScript(path)
	}
}
