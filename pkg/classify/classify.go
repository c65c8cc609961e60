package classify

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// Tier groups scored items for display. It carries no meaning beyond that.
type Tier string

const (
	High   Tier = "high"
	Medium Tier = "medium"
	Low    Tier = "low"
)

const (
	highThreshold   = 8.0
	mediumThreshold = 4.0
)

// ClassifyScore maps a numeric score to its tier. NaN is treated as a
// missing score.
func ClassifyScore(score float64) Tier {
	switch {
	case math.IsNaN(score):
		return Medium
	case score >= highThreshold:
		return High
	case score >= mediumThreshold:
		return Medium
	default:
		return Low
	}
}

// Classify accepts anything that may hold a score. Any Go number is
// classified by value; strings, booleans and other non-numbers are Medium.
func Classify(v any) Tier {
	switch s := v.(type) {
	case nil, string, bool:
		return Medium
	case Score:
		if !s.Valid {
			return Medium
		}
		return ClassifyScore(s.Value)
	case *Score:
		if s == nil {
			return Medium
		}
		return Classify(*s)
	case json.Number:
		f, err := s.Float64()
		if err != nil {
			return Medium
		}
		return ClassifyScore(f)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return Medium
	}
	return ClassifyScore(f)
}

// Score is a score as received from a remote service. Valid is false when
// the field was missing, null or not a JSON number.
type Score struct {
	Value float64
	Valid bool
}

func (s *Score) UnmarshalJSON(b []byte) error {
	var f float64
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = Score{}
		return nil
	}
	if err := json.Unmarshal(b, &f); err != nil {
		*s = Score{}
		return nil
	}
	*s = Score{Value: f, Valid: true}
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}
