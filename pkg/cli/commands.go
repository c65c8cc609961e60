package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/auth"
	"github.com/harrisonrobin/taskpilot/pkg/config"
	"github.com/harrisonrobin/taskpilot/pkg/google"
	"github.com/harrisonrobin/taskpilot/pkg/index"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/render"
	"github.com/harrisonrobin/taskpilot/pkg/strategy"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		sources      sourceFlags
		strategyName string
		asJSON       bool
		calendarName string
		export       bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the loaded tasks with a scoring strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strategyName == "" {
				strategyName = a.cfg.Strategy
			}
			if !strategy.Known(strategyName) {
				return unknownStrategyError(strategyName)
			}
			col, err := sources.build(cmd.Context(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			ctx, cancel := a.remoteContext(cmd.Context())
			defer cancel()
			view, err := orch.Analyze(ctx, col.Records(), strategyName)
			if err != nil {
				return err
			}
			if err := writeResult(cmd.OutOrStdout(), asJSON, view, render.Analysis(view)); err != nil {
				return err
			}

			if calendarName == "" && export {
				calendarName = a.cfg.Calendar
			}
			if calendarName != "" {
				return exportCalendar(cmd, view, calendarName)
			}
			return nil
		},
	}
	sources.register(cmd)
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "Scoring strategy (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Export the priority list to this Google Calendar")
	cmd.Flags().BoolVar(&export, "export", false, "Export the priority list to the configured calendar")
	_ = cmd.RegisterFlagCompletionFunc("strategy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return strategy.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func exportCalendar(cmd *cobra.Command, view *analyzer.AnalysisView, calendarName string) error {
	ctx := cmd.Context()
	idx, err := index.NewEventIndex()
	if err != nil {
		logger.Warn("failed to initialize event index", "error", err)
		idx = nil
	}
	client, err := google.NewClient(ctx, calendarName, idx)
	if err != nil {
		return fmt.Errorf("error creating Google Calendar client: %w", err)
	}
	summary, err := client.Export(ctx, view)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nCalendar %q: %d created, %d updated, %d unchanged, %d removed, %d failed\n",
		calendarName, summary.Created, summary.Updated, summary.Unchanged, summary.Removed, summary.Failed)
	return nil
}

func newSuggestCommand(a *app) *cobra.Command {
	var (
		sources sourceFlags
		topN    int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask the suggestion service for the top tasks to do next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("top-n") {
				topN = a.cfg.TopN
			}
			col, err := sources.build(cmd.Context(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			ctx, cancel := a.remoteContext(cmd.Context())
			defer cancel()
			suggestions, err := orch.Suggest(ctx, col.Records(), topN)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), asJSON, suggestions, render.Suggestions(suggestions))
		},
	}
	sources.register(cmd)
	cmd.Flags().IntVarP(&topN, "top-n", "n", analyzer.DefaultTopN, "Number of suggestions (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the suggestions as JSON")
	return cmd
}

func newListCommand(_ *app) *cobra.Command {
	var (
		sources sourceFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the tasks the sources produce, without contacting the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			col, err := sources.build(cmd.Context(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			records := col.Records()
			return writeResult(cmd.OutOrStdout(), asJSON, records, render.Tasks(records))
		},
	}
	sources.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tasks as a JSON array")
	return cmd
}

func newAuthCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Tasks and Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			xdgConfigBase, err := auth.GetXdgHome()
			if err != nil {
				return fmt.Errorf("could not find path to configuration file: %w", err)
			}

			tokenFile := filepath.Join(xdgConfigBase, auth.TokenFile)
			if _, err := os.Stat(tokenFile); err == nil {
				logger.Info("removing existing token file", "path", tokenFile)
				if err := os.Remove(tokenFile); err != nil {
					return fmt.Errorf("could not delete token file '%s': %w. Please delete it manually", tokenFile, err)
				}
			} else if !os.IsNotExist(err) {
				logger.Warn("could not check token file", "path", tokenFile, "error", err)
			}

			if _, err := auth.GetClient(cmd.Context(), auth.GoogleScopes); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", tokenFile)
			return nil
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := a.cfg.Map()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", a.cfgPath)
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := values[k]
				if k == "csrf_token" && v != "" {
					v = "********"
				}
				fmt.Fprintf(out, "%s = %v\n", k, v)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Persist one configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "strategy" && !strategy.Known(args[1]) {
				return unknownStrategyError(args[1])
			}
			if _, err := config.Set(a.cfgPath, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to: %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func unknownStrategyError(name string) error {
	return fmt.Errorf("unknown strategy %q (known: %v)", name, strategy.Names())
}

// writeResult prints v as indented JSON, or the rendered text.
func writeResult(w io.Writer, asJSON bool, v any, text string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
