package google

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/model"
	"google.golang.org/api/tasks/v1"
)

// TasksImporter reads open tasks from a Google Tasks list.
type TasksImporter struct {
	srv *tasks.Service
}

func NewTasksImporterWithService(srv *tasks.Service) *TasksImporter {
	return &TasksImporter{srv: srv}
}

// FindListID resolves a task list title to its id.
func (t *TasksImporter) FindListID(ctx context.Context, title string) (string, error) {
	var listID string
	err := t.srv.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, list := range page.Items {
			if list.Title == title {
				listID = list.Id
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to retrieve task lists: %w", err)
	}
	if listID == "" {
		return "", fmt.Errorf("task list '%s' not found", title)
	}
	return listID, nil
}

// Raws returns the open tasks of the named list in the external record shape.
func (t *TasksImporter) Raws(ctx context.Context, listTitle string) ([]map[string]any, error) {
	listID, err := t.FindListID(ctx, listTitle)
	if err != nil {
		return nil, err
	}

	raws := []map[string]any{}
	err = t.srv.Tasks.List(listID).
		ShowCompleted(false).
		ShowHidden(false).
		MaxResults(100).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, task := range page.Items {
				if task.Status == "completed" || task.Deleted {
					continue
				}
				raws = append(raws, TaskRaw(task))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve tasks: %w", err)
	}
	return raws, nil
}

// TaskRaw maps a Google task onto the external record shape. The notes may
// carry "hours:", "importance:" and "depends:" lines.
func TaskRaw(task *tasks.Task) map[string]any {
	raw := map[string]any{"id": task.Id, "title": task.Title}
	if due, err := time.Parse(time.RFC3339, task.Due); err == nil {
		// Google Tasks stores only the date, at midnight UTC.
		raw["due_date"] = due.UTC().Format(model.DateLayout)
	}

	deps := []any{}
	scanner := bufio.NewScanner(strings.NewReader(task.Notes))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "hours":
			raw["estimated_hours"] = value
		case "importance":
			raw["importance"] = value
		case "depends":
			for _, dep := range model.SplitDependencies(value) {
				deps = append(deps, dep)
			}
		}
	}
	raw["dependencies"] = deps
	return raw
}
