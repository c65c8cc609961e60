package analyzer

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/strategy"
)

// DefaultTopN is used when no usable suggestion count is given.
const DefaultTopN = 3

type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResults, error)
}

type SuggestionService interface {
	SyncSnapshot(ctx context.Context, tasks []model.Record) error
	Suggest(ctx context.Context, topN int) (*Suggestions, error)
}

// Orchestrator sequences the remote calls and shapes their results. It keeps
// no state between calls, so overlapping calls each get their own view and
// the caller decides which one to show.
type Orchestrator struct {
	analysis    AnalysisService
	suggestions SuggestionService
	log         logger.Logger
}

func NewOrchestrator(analysis AnalysisService, suggestions SuggestionService, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Orchestrator{analysis: analysis, suggestions: suggestions, log: log}
}

// Analyze submits tasks with the overrides of the named strategy and builds
// the view. Only the priority list is tiered; blocked and needs-attention
// entries keep the service's own verdict.
func (o *Orchestrator) Analyze(ctx context.Context, tasks []model.Record, strategyName string) (*AnalysisView, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyCollection
	}

	req := AnalyzeRequest{Tasks: tasks, Config: strategy.For(strategyName)}
	o.log.Info("analyzing tasks", "count", len(tasks), "strategy", strategyName)

	results, err := o.analysis.Analyze(ctx, req)
	if err != nil {
		var reqErr *AnalysisRequestError
		if errors.As(err, &reqErr) {
			return nil, err
		}
		return nil, &AnalysisRequestError{Err: err}
	}

	view := &AnalysisView{
		Strategy:       strategyName,
		Priority:       make([]TieredItem, 0, len(results.PriorityList)),
		Blocked:        nonNil(results.BlockedTasks),
		NeedsAttention: nonNil(results.NeedsAttention),
		Warnings:       results.Warnings,
		ConfigUsed:     results.ConfigUsed,
	}
	for _, item := range results.PriorityList {
		view.Priority = append(view.Priority, TieredItem{ResultItem: item, Tier: classify.Classify(item.Score)})
	}
	return view, nil
}

// Suggest runs the two-phase suggestion protocol. The snapshot sync is best
// effort: it is sent before the fetch, and its failure is logged and
// otherwise ignored, so rankings may come from stale server-side state.
func (o *Orchestrator) Suggest(ctx context.Context, tasks []model.Record, topN int) ([]RankedSuggestion, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	if len(tasks) > 0 {
		if err := o.suggestions.SyncSnapshot(ctx, tasks); err != nil {
			o.log.Warn("suggestion sync failed, continuing with server state", "error", err)
		}
	}

	out, err := o.suggestions.Suggest(ctx, topN)
	if err != nil {
		var reqErr *SuggestionRequestError
		if errors.As(err, &reqErr) {
			return nil, err
		}
		return nil, &SuggestionRequestError{Err: err}
	}
	if out.Message != "" {
		o.log.Info("suggestion service replied", "message", out.Message)
	}
	if out.Results == nil {
		return []RankedSuggestion{}, nil
	}
	return out.Results, nil
}

// ParseTopN reads a user-supplied count, falling back to DefaultTopN for
// empty, non-numeric or non-positive input.
func ParseTopN(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return DefaultTopN
	}
	return int(f)
}

func nonNil(items []ResultItem) []ResultItem {
	if items == nil {
		return []ResultItem{}
	}
	return items
}
