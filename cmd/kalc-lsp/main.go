// Command kalc-lsp is a Language Server Protocol server for Kal.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/kalc/lsp"
)

func main() {
	// Log to stderr; stdout carries the protocol.
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if level := os.Getenv("KALC_LOG_LEVEL"); level != "" {
		if l, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(l)
		}
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting kalc-lsp server")

	err = lsp.Serve(context.Background(), logger, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
