package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/debugmcp/jdwp-mcp/internal/config"
	"github.com/debugmcp/jdwp-mcp/internal/mcp"
	"github.com/debugmcp/jdwp-mcp/internal/version"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

var (
	configPath string
	mode       string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jdwp-mcp",
		Short: "MCP server for JDWP debug-agent recovery and diagnostics",
		Long: `jdwp-mcp is a Model Context Protocol server that helps AI assistants
recover from failed debugger attaches: it validates JDWP agents, scans the
common debug ports, analyzes project layouts, and runs a prioritized chain
of recovery strategies when an attach fails.

Running without a subcommand starts the stdio server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (JSON)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "capability mode: 'readonly' or 'full'")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDiagnoseCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newDiagnoseCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "diagnose <workspace-root>",
		Short: "Run the comprehensive diagnostics sweep and print the findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(args[0], output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var checkUpdate bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "jdwp-mcp version %s\n", version.Version)
			if checkUpdate {
				info := version.NewChecker().CheckForUpdates(context.Background())
				switch {
				case info.Error != "":
					fmt.Fprintf(cmd.OutOrStdout(), "update check failed: %s\n", info.Error)
				case info.UpdateAvailable:
					fmt.Fprintln(cmd.OutOrStdout(), info.UpdateMessage())
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "jdwp-mcp is up to date")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkUpdate, "check-update", false, "check GitHub for a newer release")
	return cmd
}

// newLogger builds a zap logger writing to stderr. Stdout carries the MCP
// stdio transport and must stay clean.
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	switch mode {
	case "":
	case "readonly":
		cfg.Mode = config.ModeReadOnly
	case "full":
		cfg.Mode = config.ModeFull
	default:
		return nil, fmt.Errorf("invalid mode %q: use 'readonly' or 'full'", mode)
	}
	return cfg, nil
}

func runServe() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(cfg, logger)

	version.NewChecker().CheckForUpdatesAsync(func(info *version.UpdateInfo) {
		if msg := info.UpdateMessage(); msg != "" {
			logger.Info(msg)
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		srv.Close()
		os.Exit(0)
	}()

	logger.Info("jdwp-mcp server starting",
		zap.String("version", version.Version),
		zap.String("mode", string(cfg.Mode)))

	if err := srv.ServeStdio(); err != nil {
		srv.Close()
		return fmt.Errorf("server error: %w", err)
	}
	srv.Close()
	return nil
}

func runDiagnose(workspaceRoot, output string, w io.Writer) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(cfg, logger)
	defer srv.Close()

	findings := srv.GetEngine().RunComprehensiveDiagnostics(context.Background(), workspaceRoot)

	switch strings.ToLower(output) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	case "table":
		printFindings(findings, w)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func printFindings(findings []types.DiagnosticResult, w io.Writer) {
	fmt.Fprintf(w, "Diagnostics sweep: %d finding(s)\n\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(w, "[%s] %s (%s)\n", strings.ToUpper(string(f.Severity)), f.Title, f.Category)
		fmt.Fprintf(w, "  %s\n", f.Description)
		if f.Impact != "" {
			fmt.Fprintf(w, "  Impact:   %s\n", f.Impact)
		}
		if f.Solution != "" {
			fmt.Fprintf(w, "  Solution: %s\n", f.Solution)
		}
		fmt.Fprintln(w)
	}
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues detected.")
	}
}
