package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/telemetry"
)

var (
	logLevel   string
	metricsAddr string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signia",
		Short: "Deterministic, content-addressed artifact compiler",
		Long: `signia compiles an artifact (a repo, an OpenAPI document, a dataset,
a workflow, a config file, or a spec document) into a content-addressed
bundle — schema.json, manifest.json, proof.json — and verifies previously
compiled bundles byte-for-byte, with no dependence on wall-clock time,
locale, or network access.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address before running (e.g. :9090)")

	cmd.AddCommand(versionCmd())
	cmd.AddCommand(compileCmd())
	cmd.AddCommand(verifyCmd())
	cmd.AddCommand(inspectCmd())
	cmd.AddCommand(hashCmd())
	cmd.AddCommand(doctorCmd())

	return cmd
}

func configureLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// newRecorder builds the telemetry.Recorder for a single CLI invocation. If
// --metrics-addr was set it also starts a best-effort /metrics server.
// cmd/signia is the only package that constructs a telemetry registry and
// serves prometheus's HTTP handler; the compile package sees only the
// telemetry.Recorder it is handed.
func newRecorder() telemetry.Recorder {
	if metricsAddr == "" {
		return telemetry.Noop()
	}
	reg := telemetry.NewRegistry()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	return reg
}
