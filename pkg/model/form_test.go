package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() FormFields {
	return FormFields{
		Title:        "  Write report ",
		DueDate:      "2024-01-01",
		Hours:        "2.5",
		Importance:   "7",
		Dependencies: "task-1, ,task-3 ,",
	}
}

func TestCreateFromForm(t *testing.T) {
	t.Run("Should build a record from valid input", func(t *testing.T) {
		rec, err := CreateFromForm(validFields(), 4)
		require.NoError(t, err)
		assert.Equal(t, Record{
			ID:             "task-4",
			Title:          "Write report",
			DueDate:        "2024-01-01",
			EstimatedHours: 2.5,
			Importance:     7,
			Dependencies:   []string{"task-1", "task-3"},
		}, rec)
	})

	t.Run("Should return an empty dependency list when none are given", func(t *testing.T) {
		f := validFields()
		f.Dependencies = ""
		rec, err := CreateFromForm(f, 1)
		require.NoError(t, err)
		assert.NotNil(t, rec.Dependencies)
		assert.Empty(t, rec.Dependencies)
	})

	rejects := []struct {
		name   string
		mutate func(*FormFields)
		field  string
	}{
		{"blank title", func(f *FormFields) { f.Title = "   " }, "title"},
		{"empty due date", func(f *FormFields) { f.DueDate = "" }, "due_date"},
		{"non-numeric hours", func(f *FormFields) { f.Hours = "soon" }, "estimated_hours"},
		{"zero hours", func(f *FormFields) { f.Hours = "0" }, "estimated_hours"},
		{"negative hours", func(f *FormFields) { f.Hours = "-1" }, "estimated_hours"},
		{"NaN hours", func(f *FormFields) { f.Hours = "NaN" }, "estimated_hours"},
		{"non-numeric importance", func(f *FormFields) { f.Importance = "high" }, "importance"},
		{"empty importance", func(f *FormFields) { f.Importance = "" }, "importance"},
	}
	for _, tc := range rejects {
		t.Run("Should reject "+tc.name, func(t *testing.T) {
			f := validFields()
			tc.mutate(&f)
			_, err := CreateFromForm(f, 1)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{tc.field}, verr.Fields)
			assert.Contains(t, err.Error(), FormErrorMessage)
		})
	}

	t.Run("Should list every invalid field once", func(t *testing.T) {
		_, err := CreateFromForm(FormFields{Hours: "x", Importance: "y"}, 1)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.ElementsMatch(t, []string{"title", "due_date", "estimated_hours", "importance"}, verr.Fields)
	})

	t.Run("Should accept negative importance", func(t *testing.T) {
		f := validFields()
		f.Importance = "-2"
		rec, err := CreateFromForm(f, 1)
		require.NoError(t, err)
		assert.Equal(t, -2.0, rec.Importance)
	})
}

func TestSplitDependencies(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, SplitDependencies(" a,b c ,,d"))
	assert.Equal(t, []string{}, SplitDependencies(""))
}
