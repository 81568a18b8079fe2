package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/kalc/complete"
	"github.com/rlch/kalc/lsp"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Run the language server over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on this address (e.g. :9464)",
				Sources: cli.EnvVars("KALC_METRICS_ADDR"),
			},
		},
		Action: runLSP,
	}
}

func runLSP(ctx context.Context, cmd *cli.Command) error {
	ws, err := openWorkspace(cmd, ".")
	if err != nil {
		return err
	}

	defer func() {
		_ = ws.logger.Sync()
	}()

	var opts []lsp.Option

	if addr := cmd.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())

		opts = append(opts, lsp.WithMetrics(complete.NewMetrics(reg)))

		srv := serveMetrics(ws.logger, addr, reg)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ws.logger.Info("Starting kalc language server")

	return lsp.Serve(ctx, ws.logger, os.Stdin, os.Stdout, opts...)
}

// serveMetrics starts an HTTP server exposing reg on /metrics.
func serveMetrics(logger *zap.Logger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Metrics server starting", zap.String("addr", addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
