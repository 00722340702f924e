package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicekit/indextts-server/internal/config"
)

func TestMergeOverrideWinsOnLeafConflict(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
	override := map[string]any{"a": map[string]any{"b": 9}}

	got := config.Merge(base, override)

	assert.Equal(t, map[string]any{"a": map[string]any{"b": 9, "c": 2}}, got)
}

func TestMergeDisjointKeys(t *testing.T) {
	base := map[string]any{"a": 1}
	x := map[string]any{"b": 2}
	y := map[string]any{"c": 3}

	// Associative on disjoint keys.
	left := config.Merge(config.Merge(base, x), y)
	right := config.Merge(base, config.Merge(x, y))
	assert.Equal(t, left, right)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, left)
}

func TestMergeTypeChangeReplacesWholesale(t *testing.T) {
	base := map[string]any{"voice": map[string]any{"directories": []any{"examples"}}}
	override := map[string]any{"voice": "disabled"}

	got := config.Merge(base, override)
	assert.Equal(t, "disabled", got["voice"])
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": 1}}
	override := map[string]any{"a": map[string]any{"b": 2}}

	_ = config.Merge(base, override)

	assert.Equal(t, 1, base["a"].(map[string]any)["b"])
}
