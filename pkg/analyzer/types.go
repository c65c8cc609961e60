package analyzer

import (
	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/strategy"
)

// AnalyzeRequest is the body posted to the analysis service.
type AnalyzeRequest struct {
	Tasks  []model.Record     `json:"tasks"`
	Config strategy.Overrides `json:"config"`
}

// SyncRequest seeds the suggestion service with the current tasks.
type SyncRequest struct {
	Tasks []model.Record `json:"tasks"`
}

// ResultItem is one scored task as returned by the services. Treat it as
// read-only view data.
type ResultItem struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	DueDate        string         `json:"due_date"`
	EstimatedHours *float64       `json:"estimated_hours"`
	Importance     *float64       `json:"importance"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	Score          classify.Score `json:"score"`
	Explanation    string         `json:"explanation,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Blocked        bool           `json:"blocked,omitempty"`
	Status         string         `json:"status,omitempty"`
}

// DisplayTitle falls back to the id when the service sent no title.
func (r ResultItem) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// Issue is one validation problem the analysis service found on a task.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Warning groups the issues reported for one task.
type Warning struct {
	ID     string  `json:"id"`
	Issues []Issue `json:"issues"`
}

// AnalysisResults mirrors the "results" object of an analyze response.
type AnalysisResults struct {
	PriorityList   []ResultItem   `json:"priority_list"`
	BlockedTasks   []ResultItem   `json:"blocked_tasks"`
	NeedsAttention []ResultItem   `json:"needs_attention"`
	Warnings       []Warning      `json:"warnings"`
	ConfigUsed     map[string]any `json:"config_used"`
}

type analyzeResponse struct {
	Results AnalysisResults `json:"results"`
}

// RankedSuggestion is one entry of a suggest response.
type RankedSuggestion struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	DueDate        string         `json:"due_date"`
	EstimatedHours *float64       `json:"estimated_hours"`
	Importance     *float64       `json:"importance"`
	Score          classify.Score `json:"score"`
	Reason         string         `json:"reason"`
	Status         string         `json:"status"`
}

// Suggestions is a suggest response. Message is set by the service when it
// had no tasks to rank.
type Suggestions struct {
	Results []RankedSuggestion `json:"results"`
	Message string             `json:"message,omitempty"`
}

// TieredItem pairs a priority entry with its display tier.
type TieredItem struct {
	ResultItem
	Tier classify.Tier `json:"tier"`
}

// AnalysisView is what one analyze call renders.
type AnalysisView struct {
	Strategy       string         `json:"strategy"`
	Priority       []TieredItem   `json:"priority_list"`
	Blocked        []ResultItem   `json:"blocked_tasks"`
	NeedsAttention []ResultItem   `json:"needs_attention"`
	Warnings       []Warning      `json:"warnings,omitempty"`
	ConfigUsed     map[string]any `json:"config_used"`
}
