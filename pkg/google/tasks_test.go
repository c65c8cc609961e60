package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harrisonrobin/taskpilot/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

func newTasksImporter(t *testing.T, handler http.HandlerFunc) *TasksImporter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := tasks.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewTasksImporterWithService(svc)
}

func respond(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestTaskRaw(t *testing.T) {
	t.Run("Should read fields and notes lines", func(t *testing.T) {
		raw := TaskRaw(&tasks.Task{
			Id:    "g1",
			Title: "Renew passport",
			Due:   "2024-06-01T00:00:00.000Z",
			Notes: "bring photos\nHours: 1.5\nimportance: 7\ndepends: g0, g2",
		})
		assert.Equal(t, "g1", raw["id"])
		assert.Equal(t, "2024-06-01", raw["due_date"])
		assert.Equal(t, "1.5", raw["estimated_hours"])
		assert.Equal(t, "7", raw["importance"])
		assert.Equal(t, []any{"g0", "g2"}, raw["dependencies"])
	})

	t.Run("Should leave missing fields for normalization", func(t *testing.T) {
		raw := TaskRaw(&tasks.Task{Id: "g3", Title: "x"})
		_, hasDue := raw["due_date"]
		assert.False(t, hasDue)
		assert.Equal(t, []any{}, raw["dependencies"])
	})
}

func TestTasksImporter_Raws(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/@me/lists"):
			respond(w, `{"items":[{"id":"L0","title":"Home"},{"id":"L1","title":"Work"}]}`)
		case strings.HasSuffix(r.URL.Path, "/lists/L1/tasks"):
			assert.Equal(t, "false", r.URL.Query().Get("showCompleted"))
			respond(w, `{"items":[
				{"id":"a","title":"Draft","due":"2024-06-01T00:00:00.000Z","notes":"hours: 3\nimportance: 9","status":"needsAction"},
				{"id":"b","title":"Done already","status":"completed"},
				{"id":"c","title":"Review","notes":"depends: a","status":"needsAction"}]}`)
		default:
			http.NotFound(w, r)
		}
	}

	t.Run("Should import open tasks of the named list", func(t *testing.T) {
		importer := newTasksImporter(t, handler)
		raws, err := importer.Raws(context.Background(), "Work")
		require.NoError(t, err)
		require.Len(t, raws, 2)
		records := []model.Record{
			model.NormalizeFromExternal(raws[0], 1),
			model.NormalizeFromExternal(raws[1], 2),
		}

		assert.Equal(t, "a", records[0].ID)
		assert.Equal(t, "2024-06-01", records[0].DueDate)
		assert.Equal(t, 3.0, records[0].EstimatedHours)
		assert.Equal(t, 9.0, records[0].Importance)

		assert.Equal(t, "c", records[1].ID)
		assert.Equal(t, []string{"a"}, records[1].Dependencies)
		assert.Equal(t, 1.0, records[1].Importance)
	})

	t.Run("Should fail for an unknown list", func(t *testing.T) {
		importer := newTasksImporter(t, handler)
		_, err := importer.Raws(context.Background(), "Errands")
		assert.ErrorContains(t, err, "not found")
	})
}
