package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/feather"
	"github.com/jward/feather/internal/config"
)

var (
	flagConfig   string
	flagSpec     string
	flagFormat   string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "feather",
	Short:         "Semantic analysis for GameMaker Language projects",
	Long:          "Feather indexes the global declarations of a GML project with tree-sitter and answers queries about its symbols and types.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: feather.toml in the project root)")
	rootCmd.PersistentFlags().StringVar(&flagSpec, "spec", "", "GmlSpec.xml overriding the built-in catalog")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default: from config)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(watchCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project and report its summary and diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	p, err := openProject(ctx, args)
	if err != nil {
		return outputError("index", err)
	}
	defer p.engine.Close()

	sum, err := p.engine.Query().Summary()
	if err != nil {
		return outputError("index", err)
	}
	diags, err := p.engine.Query().Diagnostics("")
	if err != nil {
		return outputError("index", err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", p.root, time.Since(start).Round(time.Millisecond))
	return outputResult(CLIResult{
		Command: "index",
		Results: CLIIndex{Summary: sum, Diagnostics: diags},
	})
}

// project is an indexed GML project.
type project struct {
	root   string
	cfg    *config.Config
	engine *feather.Engine
	logger *slog.Logger
}

// openProject loads the configuration for the project containing the
// target directory and indexes it.
func openProject(ctx context.Context, args []string) (*project, error) {
	p, err := newProject(args)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.engine.IndexDirectory(ctx, p.root); err != nil {
		p.engine.Close()
		return nil, fmt.Errorf("indexing: %w", err)
	}
	return p, nil
}

// newProject builds the engine for a project without indexing it.
func newProject(args []string, extra ...feather.Option) (*project, error) {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return nil, err
	}
	root := findProjectRoot(targetDir)

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := newLogger(level)
	if err != nil {
		return nil, err
	}

	opts := feather.ConfigOptions(root, cfg)
	if flagSpec != "" {
		opts = append(opts, feather.WithSpecFile(flagSpec))
	}
	opts = append(opts, feather.WithLogger(logger))
	opts = append(opts, extra...)

	engine, err := feather.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return &project{root: root, cfg: cfg, engine: engine, logger: logger}, nil
}

func loadConfig(root string) (*config.Config, error) {
	if flagConfig == "" {
		cfg, err := config.LoadDir(root)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", flagConfig, err)
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr at level.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findProjectRoot walks up from startDir looking for feather.toml or a
// GameMaker .yyp project file. Returns startDir if neither is found.
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if isProjectRoot(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding a project.
			return startDir
		}
		dir = parent
	}
}

func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".yyp") {
			return true
		}
	}
	return false
}
