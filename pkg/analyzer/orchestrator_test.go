package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/harrisonrobin/taskpilot/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalysis struct {
	mock.Mock
}

func (m *MockAnalysis) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResults, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*AnalysisResults)
	return res, args.Error(1)
}

type MockSuggestions struct {
	mock.Mock
}

func (m *MockSuggestions) SyncSnapshot(ctx context.Context, tasks []model.Record) error {
	return m.Called(ctx, tasks).Error(0)
}

func (m *MockSuggestions) Suggest(ctx context.Context, topN int) (*Suggestions, error) {
	args := m.Called(ctx, topN)
	res, _ := args.Get(0).(*Suggestions)
	return res, args.Error(1)
}

func score(v float64) classify.Score { return classify.Score{Value: v, Valid: true} }

func TestOrchestrator_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse an empty collection without calling the service", func(t *testing.T) {
		analysis := &MockAnalysis{}
		o := NewOrchestrator(analysis, &MockSuggestions{}, logger.Discard())
		_, err := o.Analyze(ctx, nil, strategy.HighImpact)
		assert.ErrorIs(t, err, ErrEmptyCollection)
		analysis.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	})

	t.Run("Should send the strategy overrides and tier only the priority list", func(t *testing.T) {
		analysis := &MockAnalysis{}
		tasks := sampleTasks()
		analysis.On("Analyze", ctx, AnalyzeRequest{Tasks: tasks, Config: strategy.For(strategy.FastestWins)}).
			Return(&AnalysisResults{
				PriorityList: []ResultItem{
					{ID: "a", Score: score(8)},
					{ID: "b", Score: score(4)},
					{ID: "c", Score: score(3.99)},
					{ID: "d"},
				},
				BlockedTasks: []ResultItem{{ID: "e", Score: score(9), Blocked: true}},
				ConfigUsed:   map[string]any{"weight_effort": 2.5},
			}, nil)

		o := NewOrchestrator(analysis, &MockSuggestions{}, logger.Discard())
		view, err := o.Analyze(ctx, tasks, strategy.FastestWins)
		require.NoError(t, err)
		analysis.AssertExpectations(t)

		var tiers []classify.Tier
		for _, item := range view.Priority {
			tiers = append(tiers, item.Tier)
		}
		assert.Equal(t, []classify.Tier{classify.High, classify.Medium, classify.Low, classify.Medium}, tiers)
		assert.Equal(t, "e", view.Blocked[0].ID)
		assert.NotNil(t, view.NeedsAttention)
		assert.Equal(t, strategy.FastestWins, view.Strategy)
		assert.Equal(t, 2.5, view.ConfigUsed["weight_effort"])
	})

	t.Run("Should pass through request errors", func(t *testing.T) {
		analysis := &MockAnalysis{}
		analysis.On("Analyze", mock.Anything, mock.Anything).Return(nil, &AnalysisRequestError{Status: 500})
		o := NewOrchestrator(analysis, &MockSuggestions{}, logger.Discard())
		_, err := o.Analyze(ctx, sampleTasks(), "")
		var reqErr *AnalysisRequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, 500, reqErr.Status)
	})

	t.Run("Should wrap untyped service errors", func(t *testing.T) {
		analysis := &MockAnalysis{}
		analysis.On("Analyze", mock.Anything, mock.Anything).Return(nil, assert.AnError)
		o := NewOrchestrator(analysis, &MockSuggestions{}, logger.Discard())
		_, err := o.Analyze(ctx, sampleTasks(), "")
		var reqErr *AnalysisRequestError
		require.True(t, errors.As(err, &reqErr))
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestOrchestrator_Suggest(t *testing.T) {
	ctx := context.Background()

	t.Run("Should sync then fetch", func(t *testing.T) {
		svc := &MockSuggestions{}
		tasks := sampleTasks()
		var order []string
		svc.On("SyncSnapshot", ctx, tasks).Run(func(mock.Arguments) { order = append(order, "sync") }).Return(nil)
		svc.On("Suggest", ctx, 2).Run(func(mock.Arguments) { order = append(order, "fetch") }).
			Return(&Suggestions{Results: []RankedSuggestion{{ID: "task-1"}}}, nil)

		o := NewOrchestrator(&MockAnalysis{}, svc, logger.Discard())
		out, err := o.Suggest(ctx, tasks, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"sync", "fetch"}, order)
		assert.Equal(t, "task-1", out[0].ID)
		svc.AssertExpectations(t)
	})

	t.Run("Should ignore a failed sync", func(t *testing.T) {
		svc := &MockSuggestions{}
		svc.On("SyncSnapshot", mock.Anything, mock.Anything).Return(assert.AnError)
		svc.On("Suggest", mock.Anything, 3).Return(&Suggestions{}, nil)
		o := NewOrchestrator(&MockAnalysis{}, svc, logger.Discard())
		out, err := o.Suggest(ctx, sampleTasks(), 3)
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("Should skip the sync for an empty collection and default top n", func(t *testing.T) {
		svc := &MockSuggestions{}
		svc.On("Suggest", mock.Anything, DefaultTopN).Return(&Suggestions{Message: "no_tasks_provided"}, nil)
		o := NewOrchestrator(&MockAnalysis{}, svc, logger.Discard())
		_, err := o.Suggest(ctx, nil, 0)
		require.NoError(t, err)
		svc.AssertNotCalled(t, "SyncSnapshot", mock.Anything, mock.Anything)
		svc.AssertExpectations(t)
	})

	t.Run("Should fail when the fetch fails", func(t *testing.T) {
		svc := &MockSuggestions{}
		svc.On("SyncSnapshot", mock.Anything, mock.Anything).Return(nil)
		svc.On("Suggest", mock.Anything, mock.Anything).Return(nil, &SuggestionRequestError{Status: 502})
		o := NewOrchestrator(&MockAnalysis{}, svc, logger.Discard())
		_, err := o.Suggest(ctx, sampleTasks(), 3)
		var reqErr *SuggestionRequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, 502, reqErr.Status)
	})
}

func TestParseTopN(t *testing.T) {
	cases := map[string]int{"": 3, "abc": 3, "0": 3, "-2": 3, "5": 5, " 7 ": 7, "2.9": 2, "NaN": 3}
	for in, want := range cases {
		assert.Equal(t, want, ParseTopN(in), in)
	}
}
