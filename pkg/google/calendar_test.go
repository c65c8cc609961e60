package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/taskpilot/pkg/analyzer"
	"github.com/harrisonrobin/taskpilot/pkg/classify"
	"github.com/harrisonrobin/taskpilot/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendar keeps events of one calendar in memory.
type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]*calendar.Event
	nextID  int
	patches int
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/users/me/calendarList"):
		respond(w, `{"items":[{"id":"cal-1","summary":"Tasks"}]}`)
	case strings.HasSuffix(path, "/calendars/cal-1/events") && r.Method == http.MethodGet:
		prop := r.URL.Query().Get("privateExtendedProperty")
		var items []*calendar.Event
		for _, e := range f.events {
			if e.ExtendedProperties != nil && "taskpilot_id="+e.ExtendedProperties.Private["taskpilot_id"] == prop {
				items = append(items, e)
			}
		}
		_ = json.NewEncoder(w).Encode(calendar.Events{Items: items})
	case strings.HasSuffix(path, "/calendars/cal-1/events") && r.Method == http.MethodPost:
		var e calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&e)
		f.nextID++
		e.Id = "evt-" + string(rune('0'+f.nextID))
		f.events[e.Id] = &e
		_ = json.NewEncoder(w).Encode(e)
	case strings.Contains(path, "/calendars/cal-1/events/"):
		id := path[strings.LastIndex(path, "/")+1:]
		e, ok := f.events[id]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		if r.Method == http.MethodDelete {
			delete(f.events, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method == http.MethodPatch {
			var patch calendar.Event
			_ = json.NewDecoder(r.Body).Decode(&patch)
			if patch.ColorId != "" {
				e.ColorId = patch.ColorId
			}
			if patch.Description != "" {
				e.Description = patch.Description
			}
			f.patches++
		}
		_ = json.NewEncoder(w).Encode(e)
	default:
		http.NotFound(w, r)
	}
}

func newCalendarService(t *testing.T, fake *fakeCalendar) *calendar.Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/calendar/v3/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return svc
}

func view(tier classify.Tier, score float64) *analyzer.AnalysisView {
	hours := 2.0
	return &analyzer.AnalysisView{Priority: []analyzer.TieredItem{
		{
			ResultItem: analyzer.ResultItem{ID: "task-1", Title: "Report", DueDate: "2024-05-01", EstimatedHours: &hours,
				Score: classify.Score{Value: score, Valid: true}},
			Tier: tier,
		},
		{
			ResultItem: analyzer.ResultItem{ID: "task-2", Title: "Undated", DueDate: "soon"},
			Tier:       classify.Low,
		},
	}}
}

func TestFindCalendarID(t *testing.T) {
	svc := newCalendarService(t, &fakeCalendar{events: map[string]*calendar.Event{}})
	id, err := FindCalendarID(context.Background(), svc, "Tasks")
	require.NoError(t, err)
	assert.Equal(t, "cal-1", id)

	_, err = FindCalendarID(context.Background(), svc, "Other")
	assert.Error(t, err)
}

func TestCalendarClient_Export(t *testing.T) {
	t.Run("Should create then patch events and keep the index", func(t *testing.T) {
		fake := &fakeCalendar{events: map[string]*calendar.Event{}}
		idx, err := index.Open(filepath.Join(t.TempDir(), index.FileName))
		require.NoError(t, err)
		client := NewCalendarClient(newCalendarService(t, fake), "cal-1", idx)
		client.Location = time.UTC

		summary, err := client.Export(context.Background(), view(classify.Medium, 5))
		require.NoError(t, err)
		assert.Equal(t, ExportSummary{Created: 1, Failed: 1}, summary)
		assert.Equal(t, "evt-1", idx.Get("task-1"))
		assert.Equal(t, "5", fake.events["evt-1"].ColorId)
		assert.Equal(t, "2024-05-01T09:00:00Z", fake.events["evt-1"].Start.DateTime)

		summary, err = client.Export(context.Background(), view(classify.Medium, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Unchanged)

		summary, err = client.Export(context.Background(), view(classify.High, 9))
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Updated)
		assert.Equal(t, "11", fake.events["evt-1"].ColorId)
		assert.Equal(t, 1, fake.patches)
		assert.Len(t, fake.events, 1)

		reopened, err := index.Open(idx.Path)
		require.NoError(t, err)
		assert.Equal(t, "evt-1", reopened.Get("task-1"))
	})

	t.Run("Should find events by property when the index is empty", func(t *testing.T) {
		fake := &fakeCalendar{events: map[string]*calendar.Event{}}
		svc := newCalendarService(t, fake)
		first := NewCalendarClient(svc, "cal-1", nil)
		first.Location = time.UTC
		_, err := first.Export(context.Background(), view(classify.Medium, 5))
		require.NoError(t, err)

		idx, err := index.Open(filepath.Join(t.TempDir(), index.FileName))
		require.NoError(t, err)
		second := NewCalendarClient(svc, "cal-1", idx)
		second.Location = time.UTC
		summary, err := second.Export(context.Background(), view(classify.Medium, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Unchanged)
		assert.Equal(t, "evt-1", idx.Get("task-1"))
	})

	t.Run("Should take blocked items off the calendar", func(t *testing.T) {
		fake := &fakeCalendar{events: map[string]*calendar.Event{}}
		idx, err := index.Open(filepath.Join(t.TempDir(), index.FileName))
		require.NoError(t, err)
		client := NewCalendarClient(newCalendarService(t, fake), "cal-1", idx)
		client.Location = time.UTC
		_, err = client.Export(context.Background(), view(classify.Medium, 5))
		require.NoError(t, err)
		require.Len(t, fake.events, 1)

		blocked := view(classify.Medium, 5)
		blocked.Blocked = []analyzer.ResultItem{blocked.Priority[0].ResultItem, {ID: "never-exported"}}
		blocked.Priority = blocked.Priority[1:2]
		summary, err := client.Export(context.Background(), blocked)
		assert.Error(t, err)
		assert.Equal(t, 1, summary.Removed)
		assert.Empty(t, fake.events)
		assert.Empty(t, idx.Get("task-1"))
	})

	t.Run("Should fail when nothing could be exported", func(t *testing.T) {
		fake := &fakeCalendar{events: map[string]*calendar.Event{}}
		client := NewCalendarClient(newCalendarService(t, fake), "cal-1", nil)
		only := view(classify.Low, 1)
		only.Priority = only.Priority[1:]
		_, err := client.Export(context.Background(), only)
		assert.Error(t, err)
	})
}
