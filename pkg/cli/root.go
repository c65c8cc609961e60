// Package cli wires the taskpilot commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/config"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	logLevel   string
	logJSON    bool
	logSource  bool
	configPath string
	server     string
	csrfToken  string
	timeout    time.Duration
}

// app is the state shared by every command of one invocation.
type app struct {
	flags   globalFlags
	cfgPath string
	cfg     *config.Config
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "taskpilot",
		Short: "Collect tasks and ask the analysis service what to work on next",
		Long: `taskpilot gathers tasks from JSON files, Taskwarrior, Org-mode files or
Google Tasks, sends them to the task analysis service and shows the
prioritized, blocked and needs-attention lists, or the top suggestions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&a.flags.logJSON, "log-json", false, "Write logs as JSON")
	pf.BoolVar(&a.flags.logSource, "log-source", false, "Include source locations in logs")
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (default ~/.config/taskpilot/config.json)")
	pf.StringVar(&a.flags.server, "server", "", "Analysis service base URL (overrides config)")
	pf.StringVar(&a.flags.csrfToken, "csrf-token", "", "Anti-forgery token to send instead of reading the service page")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "Per-command timeout for remote calls (overrides config)")

	cmd.AddCommand(
		newAnalyzeCommand(a),
		newSuggestCommand(a),
		newListCommand(a),
		newSessionCommand(a),
		newAuthCommand(a),
		newConfigCommand(a),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error: "+UserMessage(err))
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	logger.SetupLogger(a.flags.logLevel, a.flags.logJSON, a.flags.logSource)

	a.cfgPath = a.flags.configPath
	if a.cfgPath == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return fmt.Errorf("could not find path to configuration file: %w", err)
		}
		a.cfgPath = path
	}

	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = a.flags.server
	}
	if flags.Changed("csrf-token") {
		cfg.CSRFToken = a.flags.csrfToken
	}
	if flags.Changed("timeout") && a.flags.timeout > 0 {
		cfg.Timeout = a.flags.timeout
	}
	a.cfg = cfg
	logger.Debug("configuration loaded", "path", a.cfgPath, "server", cfg.ServerURL)
	return nil
}

// orchestrator builds the service client for the configured server.
func (a *app) orchestrator() (*analyzer.Orchestrator, error) {
	client, err := analyzer.NewClient(analyzer.Options{
		BaseURL:   a.cfg.ServerURL,
		Timeout:   a.cfg.Timeout,
		CSRFToken: a.cfg.CSRFToken,
	})
	if err != nil {
		return nil, err
	}
	return analyzer.NewOrchestrator(client, client, logger.GetDefault()), nil
}

// remoteContext bounds one remote exchange by the configured timeout.
func (a *app) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Timeout)
}
