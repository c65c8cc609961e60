// Package render formats tasks and analysis results for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/model"
)

const (
	EmptyTasksText       = "No tasks yet."
	EmptyPriorityText    = "No prioritized tasks."
	EmptyBlockedText     = "No blocked tasks."
	EmptyAttentionText   = "Nothing needs attention."
	EmptySuggestionsText = "No suggestions available."
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	tierStyles = map[classify.Tier]lipgloss.Style{
		classify.High:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555")),
		classify.Medium: lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C")),
		classify.Low:    lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
	}
)

// TierStyle returns the style for a tier, the medium style for unknown tiers.
func TierStyle(t classify.Tier) lipgloss.Style {
	if s, ok := tierStyles[t]; ok {
		return s
	}
	return tierStyles[classify.Medium]
}

// Tasks renders the collection as a table.
func Tasks(records []model.Record) string {
	if len(records) == 0 {
		return mutedStyle.Render(EmptyTasksText)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "TITLE", "DUE", "HOURS", "IMPORTANCE", "DEPENDS ON")
	for _, r := range records {
		t.Row(r.ID, r.Title, r.DueDate, number(r.EstimatedHours), number(r.Importance), strings.Join(r.Dependencies, ", "))
	}
	return t.Render()
}

// Analysis renders the three result lists, then any warnings.
func Analysis(view *analyzer.AnalysisView) string {
	if view == nil {
		return ""
	}
	var b strings.Builder

	section(&b, fmt.Sprintf("Priority (%s)", strategyLabel(view.Strategy)))
	if len(view.Priority) == 0 {
		b.WriteString(mutedStyle.Render(EmptyPriorityText) + "\n")
	}
	for i, item := range view.Priority {
		style := TierStyle(item.Tier)
		line := fmt.Sprintf("%d. [%s] %s  score %s  due %s", i+1, strings.ToUpper(string(item.Tier)),
			item.DisplayTitle(), scoreText(item.Score), dueText(item.DueDate))
		b.WriteString(style.Render(line) + "\n")
		if item.Explanation != "" {
			b.WriteString("   " + mutedStyle.Render(item.Explanation) + "\n")
		}
	}

	b.WriteString("\n")
	section(&b, "Blocked")
	if len(view.Blocked) == 0 {
		b.WriteString(mutedStyle.Render(EmptyBlockedText) + "\n")
	}
	for _, item := range view.Blocked {
		line := "- " + item.DisplayTitle()
		if len(item.Dependencies) > 0 {
			line += " (waiting on " + strings.Join(item.Dependencies, ", ") + ")"
		}
		b.WriteString(blockedStyle.Render(line) + "\n")
		if item.Explanation != "" {
			b.WriteString("  " + mutedStyle.Render(item.Explanation) + "\n")
		}
	}

	b.WriteString("\n")
	section(&b, "Needs attention")
	if len(view.NeedsAttention) == 0 {
		b.WriteString(mutedStyle.Render(EmptyAttentionText) + "\n")
	}
	for _, item := range view.NeedsAttention {
		line := "- " + item.DisplayTitle()
		if item.Explanation != "" {
			line += ": " + item.Explanation
		}
		b.WriteString(warnStyle.Render(line) + "\n")
	}

	if len(view.Warnings) > 0 {
		b.WriteString("\n")
		section(&b, "Warnings")
		for _, w := range view.Warnings {
			for _, issue := range w.Issues {
				b.WriteString(warnStyle.Render(fmt.Sprintf("! %s %s: %s", w.ID, issue.Field, issue.Message)) + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Suggestions renders ranked suggestions, tiered by score.
func Suggestions(items []analyzer.RankedSuggestion) string {
	if len(items) == 0 {
		return mutedStyle.Render(EmptySuggestionsText)
	}
	var b strings.Builder
	section(&b, "Suggested next")
	for i, s := range items {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		line := fmt.Sprintf("%d. %s  score %s", i+1, title, scoreText(s.Score))
		b.WriteString(TierStyle(classify.Classify(s.Score)).Render(line) + "\n")
		if s.Reason != "" {
			b.WriteString("   " + mutedStyle.Render(s.Reason) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string) {
	b.WriteString(headingStyle.Render(title) + "\n")
}

func strategyLabel(name string) string {
	if name == "" {
		return "smart_balance"
	}
	return name
}

func scoreText(s classify.Score) string {
	if !s.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

func dueText(d string) string {
	if d == "" {
		return "-"
	}
	return d
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
