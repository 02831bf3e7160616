package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Items(t *testing.T) {
	items := NewGenerator(7).Items(250, 0)
	require.Len(t, items, 250)

	seen := map[string]bool{}
	for _, item := range items {
		require.NoError(t, item.Validate())
		assert.NotNil(t, item.Location)
		assert.NotNil(t, item.Category)
		assert.Len(t, item.UPCCode, 12)
		assert.False(t, seen[item.AssetID], "duplicate asset id %s", item.AssetID)
		seen[item.AssetID] = true
	}
	assert.Equal(t, "000-001", items[0].AssetID)
	assert.Equal(t, "000-250", items[249].AssetID)
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(99).Items(20, 0)
	b := NewGenerator(99).Items(20, 0)
	assert.Equal(t, a, b)

	c := NewGenerator(100).Items(20, 0)
	assert.NotEqual(t, a, c)
}

func TestGenerator_UPCCheckDigit(t *testing.T) {
	for _, item := range NewGenerator(3).Items(50, 0) {
		sum := 0
		for i, r := range item.UPCCode {
			d := int(r - '0')
			if i%2 == 0 {
				d *= 3
			}
			sum += d
		}
		assert.Zero(t, sum%10, item.UPCCode)
	}
}

func TestLabelClassifier_Classify(t *testing.T) {
	c := NewLabelClassifier()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "drill",
			text: "Cordless Drill",
			want: []string{"battery", "lendable", "power"},
		},
		{
			name: "case_insensitive",
			text: "CHRISTMAS LIGHTS",
			want: []string{"decor", "fragile", "seasonal"},
		},
		{
			name: "no_match",
			text: "Socket Set",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestSeederState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	assert.Zero(t, loadState(path).SeededCount)

	require.NoError(t, saveState(path, seederState{SeededCount: 120, Seed: 42, Sources: []string{"a.xlsx"}}))
	state := loadState(path)
	assert.Equal(t, 120, state.SeededCount)
	assert.Equal(t, []string{"a.xlsx"}, state.Sources)
}
