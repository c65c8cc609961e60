package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	t.Run("Should return exactly the deadline_driven overrides", func(t *testing.T) {
		assert.Equal(t, Overrides{
			"weight_urgency":    3.0,
			"urgency_mode":      "threshold",
			"urgency_threshold": 2,
		}, For(DeadlineDriven))
	})

	t.Run("Should return the weight overrides", func(t *testing.T) {
		assert.Equal(t, Overrides{"weight_effort": 2.5, "weight_importance": 1.0, "weight_urgency": 1.0}, For(FastestWins))
		assert.Equal(t, Overrides{"weight_importance": 3.0, "weight_effort": 0.5, "weight_urgency": 1.5}, For(HighImpact))
	})

	t.Run("Should defer to service defaults", func(t *testing.T) {
		for _, name := range []string{SmartBalance, "", "unknown", "FASTEST_WINS"} {
			o := For(name)
			assert.NotNil(t, o)
			assert.Empty(t, o, name)
		}
	})

	t.Run("Should be deterministic and return fresh maps", func(t *testing.T) {
		for _, name := range Names() {
			a, b := For(name), For(name)
			assert.Equal(t, a, b)
			a["extra"] = true
			assert.NotContains(t, For(name), "extra")
		}
	})
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(HighImpact))
	assert.False(t, Known("balanced"))
}
