package classify

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Tier
	}{
		{"boundary high", 8, High},
		{"boundary high float", 8.0, High},
		{"above high", 12.5, High},
		{"boundary medium", 4, Medium},
		{"just below high", 7.999, Medium},
		{"just below medium", 3.99, Low},
		{"negative", -1.0, Low},
		{"NaN", math.NaN(), Medium},
		{"uint", uint(9), High},
		{"uint8", uint8(9), High},
		{"uint16", uint16(5), Medium},
		{"uint32", uint32(1), Low},
		{"uint64", uint64(8), High},
		{"int8", int8(-3), Low},
		{"int16", int16(9), High},
		{"int32", int32(4), Medium},
		{"int64", int64(8), High},
		{"float32", float32(3.5), Low},
		{"string", "x", Medium},
		{"numeric string", "9", Medium},
		{"bool", true, Medium},
		{"slice", []int{9}, Medium},
		{"nil", nil, Medium},
		{"json number", json.Number("9"), High},
		{"bad json number", json.Number("abc"), Medium},
		{"valid score", Score{Value: 2, Valid: true}, Low},
		{"invalid score", Score{}, Medium},
		{"nil score pointer", (*Score)(nil), Medium},
	}
	for _, tc := range cases {
		t.Run("Should classify "+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestScoreJSON(t *testing.T) {
	t.Run("Should decode numbers as valid", func(t *testing.T) {
		var item struct {
			Score Score `json:"score"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"score": 7.5}`), &item))
		assert.Equal(t, Score{Value: 7.5, Valid: true}, item.Score)
	})

	t.Run("Should decode anything else as invalid without failing", func(t *testing.T) {
		for _, doc := range []string{`{"score":"high"}`, `{"score":null}`, `{}`, `{"score":{"v":1}}`} {
			var item struct {
				Score Score `json:"score"`
			}
			require.NoError(t, json.Unmarshal([]byte(doc), &item), doc)
			assert.False(t, item.Score.Valid, doc)
			assert.Equal(t, Medium, Classify(item.Score))
		}
	})

	t.Run("Should encode invalid scores as null", func(t *testing.T) {
		b, err := json.Marshal(Score{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})
}
