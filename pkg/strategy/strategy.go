// Package strategy maps a named scoring strategy to the sparse set of
// configuration overrides sent to the analysis service.
package strategy

// Overrides holds only the keys a strategy wants to change. Missing keys
// leave the service default in place.
type Overrides map[string]any

const (
	FastestWins    = "fastest_wins"
	HighImpact     = "high_impact"
	DeadlineDriven = "deadline_driven"
	SmartBalance   = "smart_balance"

	Default = SmartBalance
)

// Names lists the known strategies in display order.
func Names() []string {
	return []string{SmartBalance, FastestWins, HighImpact, DeadlineDriven}
}

// Known reports whether name is one of Names.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// For returns a fresh override map for the strategy. Unknown names and
// smart_balance return an empty map.
func For(name string) Overrides {
	switch name {
	case FastestWins:
		return Overrides{
			"weight_effort":     2.5,
			"weight_importance": 1.0,
			"weight_urgency":    1.0,
		}
	case HighImpact:
		return Overrides{
			"weight_importance": 3.0,
			"weight_effort":     0.5,
			"weight_urgency":    1.5,
		}
	case DeadlineDriven:
		return Overrides{
			"weight_urgency":    3.0,
			"urgency_mode":      "threshold",
			"urgency_threshold": 2,
		}
	default:
		return Overrides{}
	}
}
