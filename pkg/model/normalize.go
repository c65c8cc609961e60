package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Messages surfaced for rejected bulk documents.
const (
	EmptyBulkMessage   = "Paste JSON before loading."
	InvalidJSONMessage = "Bulk input is not valid JSON."
	NotAnArrayMessage  = "JSON must be an array of task objects."
)

// NormalizeFromExternal turns an untrusted mapping into a Record. It never
// fails: every missing or unusable field falls back to its default, and the
// id falls back to task-<fallbackOrdinal>.
func NormalizeFromExternal(raw map[string]any, fallbackOrdinal int) Record {
	id, ok := truthyText(raw["id"])
	if !ok {
		id, ok = truthyText(raw["task_id"])
	}
	if !ok {
		id = SequenceID(fallbackOrdinal)
	}

	title, ok := truthyText(raw["title"])
	if !ok {
		title = DefaultTitle
	}

	due, ok := truthyText(raw["due_date"])
	if !ok {
		due = Today()
	}

	return Record{
		ID:             id,
		Title:          title,
		DueDate:        due,
		EstimatedHours: positiveNumber(raw["estimated_hours"], DefaultHours),
		Importance:     positiveNumber(raw["importance"], DefaultImportance),
		Dependencies:   dependencyList(raw["dependencies"]),
	}
}

// ParseBulk parses a bulk-load document. The document must be a JSON array;
// each element is normalized with its 1-based position as fallback ordinal.
func ParseBulk(data []byte) ([]Record, error) {
	raws, err := ParseBulkRaw(data)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		records = append(records, NormalizeFromExternal(raw, i+1))
	}
	return records, nil
}

// ParseBulkRaw checks a bulk-load document and returns its elements without
// normalizing them. Elements that are not objects come back as nil maps.
func ParseBulkRaw(data []byte) ([]map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &MalformedBulkInputError{Message: EmptyBulkMessage}
	}
	if !gjson.ValidBytes(data) {
		return nil, &MalformedBulkInputError{Message: InvalidJSONMessage}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, &MalformedBulkInputError{Message: NotAnArrayMessage}
	}

	raws := []map[string]any{}
	doc.ForEach(func(_, value gjson.Result) bool {
		raw, _ := value.Value().(map[string]any)
		raws = append(raws, raw)
		return true
	})
	return raws, nil
}

// truthyText returns the textual form of v when v counts as present:
// a non-empty string, a non-zero number or true.
func truthyText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case map[string]any, []any:
		return "", false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f == 0 || math.IsNaN(f) {
		return "", false
	}
	return cast.ToString(v), true
}

func positiveNumber(v any, fallback float64) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return fallback
	}
	return f
}

func dependencyList(v any) []string {
	deps := []string{}
	switch items := v.(type) {
	case []string:
		return append(deps, items...)
	case []any:
		for _, item := range items {
			switch t := item.(type) {
			case nil:
			case string:
				deps = append(deps, t)
			case map[string]any, []any:
				if b, err := json.Marshal(t); err == nil {
					deps = append(deps, string(b))
				}
			default:
				deps = append(deps, cast.ToString(t))
			}
		}
	}
	return deps
}
