package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, 1000, cfg.Engine.MaxRows)
	assert.Equal(t, 200, cfg.Engine.AIMaxRows)
	assert.Equal(t, 2*time.Second, cfg.Engine.QueryTimeout())
	assert.Equal(t, 3*time.Second, cfg.Engine.AIQueryTimeout())
	assert.Equal(t, time.Second, cfg.Engine.LookupTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Engine.CacheTTL())
	assert.Equal(t, 12*time.Second, cfg.AI.Timeout())
	assert.InDelta(t, 0.75, cfg.Confidence.Baseline, 1e-9)
	assert.InDelta(t, 0.1, cfg.Confidence.MissingPricePenalty, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENGINE_MAX_ROWS", "50")
	t.Setenv("PORT", "9999")

	cfg, err := Load("v1")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.MaxRows)
	assert.Equal(t, "9999", cfg.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-positive max rows", "ENGINE_MAX_ROWS", "0"},
		{"non-positive ai max rows", "ENGINE_AI_MAX_ROWS", "-1"},
		{"malformed fallback horizon", "ENGINE_FALLBACK_HORIZON", "08/31/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load("v1")
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsFloorAboveCeiling(t *testing.T) {
	t.Setenv("CONFIDENCE_FLOOR", "0.9")
	t.Setenv("CONFIDENCE_CEILING", "0.5")

	_, err := Load("v1")
	assert.Error(t, err)
}

func TestFallbackHorizonDate(t *testing.T) {
	cfg := EngineConfig{FallbackHorizon: "2024-08-31"}
	assert.Equal(t, time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC), cfg.FallbackHorizonDate())
}
