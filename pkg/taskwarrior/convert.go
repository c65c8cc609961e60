package taskwarrior

import (
	"strings"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/util"
)

var priorityImportance = map[string]float64{"H": 8, "M": 5, "L": 2}

// Raw maps a task onto the external record shape. Fields taskwarrior leaves
// empty are omitted so normalization applies its defaults.
func (t Task) Raw() map[string]any {
	raw := map[string]any{}
	if t.UUID != "" {
		raw["id"] = t.UUID
	}
	if t.Description != "" {
		raw["title"] = t.Description
	}
	if t.Due != nil && !t.Due.IsZero() {
		raw["due_date"] = t.Due.In(time.Local).Format(model.DateLayout)
	}
	if est, err := util.ParseDuration(t.Est); err == nil && est > 0 {
		raw["estimated_hours"] = est.Hours()
	}
	if imp, ok := priorityImportance[strings.ToUpper(t.Priority)]; ok {
		raw["importance"] = imp
	}
	deps := make([]any, 0, len(t.Depends))
	for _, d := range t.Depends {
		deps = append(deps, d)
	}
	raw["dependencies"] = deps
	return raw
}

// Raws maps the open tasks onto the external record shape.
func Raws(tasks []Task) []map[string]any {
	raws := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		if t.Open() {
			raws = append(raws, t.Raw())
		}
	}
	return raws
}
