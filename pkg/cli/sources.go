package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/harrisonrobin/taskpilot/pkg/collection"
	"github.com/harrisonrobin/taskpilot/pkg/google"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/orgmode"
	"github.com/harrisonrobin/taskpilot/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

// defaultTaskwarriorFilter is used when --taskwarrior is given without a value.
const defaultTaskwarriorFilter = "status:pending"

// sourceFlags selects where a one-shot command takes its tasks from.
type sourceFlags struct {
	files       []string
	taskwarrior string
	org         []string
	orgTag      string
	googleList  string
	stdin       bool
	adds        []string
	removes     []string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&s.files, "file", nil, "Load a JSON array of tasks (repeatable)")
	f.StringVar(&s.taskwarrior, "taskwarrior", "", "Import from Taskwarrior with the given filter")
	f.Lookup("taskwarrior").NoOptDefVal = defaultTaskwarriorFilter
	f.StringArrayVar(&s.org, "org", nil, "Import TODO entries from an Org-mode file (repeatable)")
	f.StringVar(&s.orgTag, "org-tag", "", "Only import Org-mode entries with this tag")
	f.StringVar(&s.googleList, "google-list", "", "Import open tasks from the named Google Tasks list")
	f.BoolVar(&s.stdin, "stdin", false, "Read Taskwarrior hook JSON from stdin")
	f.StringArrayVar(&s.adds, "add", nil, `Add a task as "title|due|hours|importance|deps" (repeatable)`)
	f.StringArrayVar(&s.removes, "remove", nil, "Remove tasks with this id after loading (repeatable)")
}

// build fills a fresh collection. Imported sources are concatenated and
// numbered as one list, then --add and --remove are applied in order.
func (s *sourceFlags) build(ctx context.Context, stdin io.Reader) (*collection.Collection, error) {
	var raws []map[string]any

	for _, path := range s.files {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}
	if s.taskwarrior != "" {
		loaded, err := loadTaskwarrior(ctx, s.taskwarrior)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}
	if len(s.org) > 0 {
		loaded, err := loadOrg(s.org, s.orgTag)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}
	if s.googleList != "" {
		loaded, err := loadGoogle(ctx, s.googleList)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}
	if s.stdin {
		loaded, err := loadHookStream(stdin)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}

	col := collection.New()
	col.Append(raws)

	for _, value := range s.adds {
		fields, err := parseAddFlag(value)
		if err != nil {
			return nil, err
		}
		if _, err := col.AddFromForm(fields); err != nil {
			return nil, err
		}
	}
	for _, id := range s.removes {
		if col.Remove(id) == 0 {
			logger.Warn("no task to remove", "id", id)
		}
	}
	return col, nil
}

// parseAddFlag splits "title|due|hours|importance|deps". The dependency part
// is optional and holds comma-separated ids.
func parseAddFlag(value string) (model.FormFields, error) {
	parts := strings.Split(value, "|")
	if len(parts) < 4 || len(parts) > 5 {
		return model.FormFields{}, fmt.Errorf("invalid --add value %q: want title|due|hours|importance[|deps]", value)
	}
	fields := model.FormFields{
		Title:      parts[0],
		DueDate:    parts[1],
		Hours:      parts[2],
		Importance: parts[3],
	}
	if len(parts) == 5 {
		fields.Dependencies = parts[4]
	}
	return fields, nil
}

func loadFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return model.ParseBulkRaw(data)
}

func loadTaskwarrior(ctx context.Context, filter string) ([]map[string]any, error) {
	args, err := shlex.Split(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid taskwarrior filter %q: %w", filter, err)
	}
	tasks, err := taskwarrior.NewClient().GetTasks(ctx, args)
	if err != nil {
		return nil, err
	}
	logger.Debug("imported taskwarrior tasks", "count", len(tasks))
	return taskwarrior.Raws(tasks), nil
}

func loadHookStream(r io.Reader) ([]map[string]any, error) {
	tasks, err := taskwarrior.NewClient().ParseTasks(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing tasks from stdin: %w", err)
	}
	return taskwarrior.Raws(tasks), nil
}

func loadOrg(paths []string, tag string) ([]map[string]any, error) {
	entries, err := orgmode.ParseFiles(paths)
	if err != nil {
		return nil, err
	}
	if tag != "" {
		entries = orgmode.FilterEntries(entries, tag)
	}
	return orgmode.Raws(entries), nil
}

func loadGoogle(ctx context.Context, list string) ([]map[string]any, error) {
	importer, err := google.NewTasksImporter(ctx)
	if err != nil {
		return nil, err
	}
	return importer.Raws(ctx, list)
}
