package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/model"
)

// Entry is one TODO or DONE heading.
type Entry struct {
	ID       string
	Title    string
	Priority string
	Deadline time.Time
	Effort   time.Duration
	Depends  []string
	Tags     []string
	Done     bool
	Source   string
}

var (
	headingRegex  = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:(\w+(:\w+)*):))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	idRegex       = regexp.MustCompile(`^:ID:\s+(\S+)`)
	effortRegex   = regexp.MustCompile(`^:EFFORT:\s+(\d+):(\d{2})`)
	dependsRegex  = regexp.MustCompile(`^:DEPENDS:\s+(.+)$`)
)

var priorityImportance = map[string]float64{"A": 8, "B": 5, "C": 2}

// parseFile parses an Org-mode file and returns its entries.
func parseFile(filePath string) ([]Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath)
}

// ParseFiles parses multiple Org-mode files and returns their entries in order.
func ParseFiles(filePaths []string) ([]Entry, error) {
	var all []Entry
	for _, filePath := range filePaths {
		entries, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Parse reads TODO and DONE headings with their planning line and
// properties drawer. An entry ends at the next heading or end of input.
func Parse(r io.Reader, source string) ([]Entry, error) {
	logger.Debug("parsing org file", "source", source)
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil && current.Title != "" {
			entries = append(entries, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			matches := headingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &Entry{
				Source:   source,
				Done:     matches[1] == "DONE",
				Priority: matches[2],
				Title:    strings.TrimSpace(matches[3]),
			}
			if matches[4] != "" {
				current.Tags = strings.Split(strings.Trim(matches[4], ":"), ":")
			}
			continue
		}
		if current == nil {
			continue
		}

		if matches := deadlineRegex.FindStringSubmatch(line); matches != nil {
			value, layout := matches[1], model.DateLayout
			if matches[2] != "" {
				value, layout = value+" "+matches[2], model.DateLayout+" 15:04"
			}
			if deadline, err := time.ParseInLocation(layout, value, time.Local); err == nil {
				current.Deadline = deadline
			}
		} else if matches := idRegex.FindStringSubmatch(line); matches != nil {
			current.ID = matches[1]
		} else if matches := effortRegex.FindStringSubmatch(line); matches != nil {
			h, _ := strconv.Atoi(matches[1])
			m, _ := strconv.Atoi(matches[2])
			current.Effort = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
		} else if matches := dependsRegex.FindStringSubmatch(line); matches != nil {
			current.Depends = strings.FieldsFunc(matches[1], func(r rune) bool {
				return r == ',' || r == ' ' || r == '\t'
			})
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// FilterEntries keeps the entries carrying the given tag.
func FilterEntries(entries []Entry, tag string) []Entry {
	var filtered []Entry
	for _, entry := range entries {
		for _, t := range entry.Tags {
			if t == tag {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}

// Raw maps an entry onto the external record shape.
func (e Entry) Raw() map[string]any {
	raw := map[string]any{"title": e.Title}
	if e.ID != "" {
		raw["id"] = e.ID
	}
	if !e.Deadline.IsZero() {
		raw["due_date"] = e.Deadline.Format(model.DateLayout)
	}
	if e.Effort > 0 {
		raw["estimated_hours"] = e.Effort.Hours()
	}
	if imp, ok := priorityImportance[e.Priority]; ok {
		raw["importance"] = imp
	}
	deps := make([]any, 0, len(e.Depends))
	for _, d := range e.Depends {
		deps = append(deps, d)
	}
	raw["dependencies"] = deps
	return raw
}

// Raws maps the open entries onto the external record shape.
func Raws(entries []Entry) []map[string]any {
	raws := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		if e.Done {
			continue
		}
		raws = append(raws, e.Raw())
	}
	return raws
}
