package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/feather"
	"github.com/jward/feather/internal/metrics"
	"github.com/jward/feather/scripts/lint"
)

var flagScriptRoot string

var scriptCmd = &cobra.Command{
	Use:   "script <file.risor>",
	Short: "Run a Risor script against an indexed project",
	Long:  "Indexes the project and runs the script with the registry, session index and tree-sitter host functions in scope.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFilePath(args[0])
		if err != nil {
			return err
		}
		p, err := openProject(cmd.Context(), []string{flagScriptRoot})
		if err != nil {
			return err
		}
		defer p.engine.Close()
		return p.engine.RunScript(cmd.Context(), path, map[string]any{"project_root": p.root})
	},
}

var flagLintRules []string

var lintCmd = &cobra.Command{
	Use:   "lint [path]",
	Short: "Run the built-in lint rules",
	Long:  "Indexes the project and runs the built-in Risor lint rules. Exits non-zero when anything is reported.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd.Context(), args)
		if err != nil {
			return outputError("lint", err)
		}
		defer p.engine.Close()

		findings, err := lint.Run(cmd.Context(), p.engine, flagLintRules...)
		if err != nil {
			return outputError("lint", err)
		}
		if findings == nil {
			findings = []lint.Finding{}
		}
		total := len(findings)
		if err := outputResult(CLIResult{Command: "lint", Results: CLIFindings(findings), TotalCount: &total}); err != nil {
			return err
		}
		if total > 0 {
			errorHandled = true
			return fmt.Errorf("%d lint finding(s)", total)
		}
		return nil
	},
}

var flagMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a project and keep it current as files change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	scriptCmd.Flags().StringVar(&flagScriptRoot, "root", ".", "project directory")
	lintCmd.Flags().StringSliceVar(&flagLintRules, "rule", nil, fmt.Sprintf("rules to run (default: all of %v)", lint.Rules()))
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p, err := newProject(args, feather.WithMetrics(m))
	if err != nil {
		return err
	}
	defer p.engine.Close()

	addr := flagMetricsAddr
	if addr == "" {
		addr = p.cfg.Metrics.Addr
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				p.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer shutdown(srv)
		p.logger.Info("serving metrics", "addr", addr)
	}

	if err := p.engine.IndexDirectory(ctx, p.root); err != nil {
		p.logger.Warn("initial index incomplete", "error", err)
	}
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", p.root)
	return p.engine.Watch(ctx, p.root)
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
