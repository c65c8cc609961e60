package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/collection"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/render"
	"github.com/harrisonrobin/taskpilot/pkg/strategy"
	"github.com/spf13/cobra"
)

const sessionPrompt = "taskpilot> "

const sessionHelp = `Commands:
  add <title> <due> <hours> <importance> [deps]   add one task (deps: a,b)
  load <file>                                     replace all tasks with a JSON array
  import taskwarrior [filter...]                  append tasks from Taskwarrior
  import org <file>...                            append TODO entries from Org files
  import google [list]                            append open Google Tasks
  remove <id>                                     remove every task with this id
  clear                                           remove all tasks
  list                                            show the tasks
  analyze [strategy]                              analyze the tasks
  suggest [n]                                     show the top n suggestions
  strategy [name]                                 show or change the strategy
  help                                            show this help
  quit                                            leave the session`

var errQuit = errors.New("quit")

// Planner is what a session needs from the analysis orchestrator.
type Planner interface {
	Analyze(ctx context.Context, tasks []model.Record, strategyName string) (*analyzer.AnalysisView, error)
	Suggest(ctx context.Context, tasks []model.Record, topN int) ([]analyzer.RankedSuggestion, error)
}

// Session is an interactive, line-oriented task collection. Commands run one
// at a time, so each result shown belongs to the latest command.
type Session struct {
	Tasks      *collection.Collection
	Strategy   string
	TopN       int
	GoogleList string

	planner  Planner
	out      io.Writer
	bound    func(context.Context) (context.Context, context.CancelFunc)
	importer func(ctx context.Context, source string, args []string) ([]map[string]any, error)
}

// NewSession starts an empty session with the smart_balance strategy.
func NewSession(planner Planner, out io.Writer) *Session {
	return &Session{
		Tasks:    collection.New(),
		Strategy: strategy.Default,
		TopN:     analyzer.DefaultTopN,
		planner:  planner,
		out:      out,
		bound: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		},
	}
}

func newSessionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Build a task list interactively and analyze it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			s := NewSession(orch, cmd.OutOrStdout())
			if strategy.Known(a.cfg.Strategy) {
				s.Strategy = a.cfg.Strategy
			}
			s.TopN = a.cfg.TopN
			s.GoogleList = a.cfg.GoogleList
			s.bound = a.remoteContext
			s.importer = s.importSource
			return s.Run(cmd.Context(), cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
		},
	}
}

// Run reads commands until quit or end of input. Command errors are shown
// and the session goes on.
func (s *Session) Run(ctx context.Context, in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(s.out, sessionPrompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, UserMessage(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line.
func (s *Session) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("could not read command: %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "add":
		return s.add(args)
	case "load":
		return s.load(args)
	case "import":
		return s.importTasks(ctx, args)
	case "remove", "rm":
		if len(args) != 1 {
			return errors.New("usage: remove <id>")
		}
		fmt.Fprintf(s.out, "Removed %d task(s).\n", s.Tasks.Remove(args[0]))
	case "clear":
		s.Tasks.Clear()
		fmt.Fprintln(s.out, "Cleared all tasks.")
	case "list", "ls":
		fmt.Fprintln(s.out, render.Tasks(s.Tasks.Records()))
	case "analyze":
		return s.analyze(ctx, args)
	case "suggest":
		return s.suggest(ctx, args)
	case "strategy":
		return s.strategy(args)
	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type help for a list", cmd)
	}
	return nil
}

func (s *Session) add(args []string) error {
	if len(args) > 5 {
		return errors.New("usage: add <title> <due> <hours> <importance> [deps] (quote titles with spaces)")
	}
	fields := make([]string, 5)
	copy(fields, args)
	rec, err := s.Tasks.AddFromForm(model.FormFields{
		Title:        fields[0],
		DueDate:      fields[1],
		Hours:        fields[2],
		Importance:   fields[3],
		Dependencies: fields[4],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added %s.\n", rec.ID)
	return nil
}

func (s *Session) load(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read %s: %w", args[0], err)
	}
	n, err := s.Tasks.LoadJSON(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded %d task(s).\n", n)
	return nil
}

func (s *Session) importTasks(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: import <taskwarrior|org|google> [args]")
	}
	if s.importer == nil {
		return errors.New("importing is not available in this session")
	}
	raws, err := s.importer(ctx, strings.ToLower(args[0]), args[1:])
	if err != nil {
		return err
	}
	records := s.Tasks.Append(raws)
	fmt.Fprintf(s.out, "Imported %d task(s).\n", len(records))
	return nil
}

func (s *Session) importSource(ctx context.Context, source string, args []string) ([]map[string]any, error) {
	switch source {
	case "taskwarrior", "tw":
		filter := defaultTaskwarriorFilter
		if len(args) > 0 {
			filter = strings.Join(quoteAll(args), " ")
		}
		return loadTaskwarrior(ctx, filter)
	case "org":
		if len(args) == 0 {
			return nil, errors.New("usage: import org <file>...")
		}
		return loadOrg(args, "")
	case "google":
		list := s.GoogleList
		if len(args) > 0 {
			list = strings.Join(args, " ")
		}
		if list == "" {
			return nil, errors.New("usage: import google <list> (or set google_list in the config)")
		}
		return loadGoogle(ctx, list)
	default:
		return nil, fmt.Errorf("unknown import source %q", source)
	}
}

func (s *Session) analyze(ctx context.Context, args []string) error {
	name := s.Strategy
	if len(args) > 0 {
		name = args[0]
		if !strategy.Known(name) {
			return unknownStrategyError(name)
		}
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	view, err := s.planner.Analyze(ctx, s.Tasks.Records(), name)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, render.Analysis(view))
	return nil
}

func (s *Session) suggest(ctx context.Context, args []string) error {
	n := s.TopN
	if len(args) > 0 {
		n = analyzer.ParseTopN(args[0])
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	suggestions, err := s.planner.Suggest(ctx, s.Tasks.Records(), n)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, render.Suggestions(suggestions))
	return nil
}

func (s *Session) strategy(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Strategy: %s (known: %s)\n", s.Strategy, strings.Join(strategy.Names(), ", "))
		return nil
	}
	if !strategy.Known(args[0]) {
		return unknownStrategyError(args[0])
	}
	s.Strategy = args[0]
	fmt.Fprintf(s.out, "Strategy set to %s.\n", s.Strategy)
	return nil
}

// quoteAll re-quotes split words so a filter can be split again.
func quoteAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t'\"") {
			out[i] = strconv.Quote(a)
		} else {
			out[i] = a
		}
	}
	return out
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
