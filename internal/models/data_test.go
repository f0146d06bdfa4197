package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMetrics(t *testing.T) {
	m := FallbackMetrics()

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]any{
		"price":              0.0000285,
		"priceChange24h":     12.5,
		"marketCap":          28500.0,
		"marketCapChange24h": 12.5,
		"volume24h":          8420.0,
		"liquidity":          15200.0,
		"totalSupply":        1e9,
		"circulatingSupply":  1e9,
		"burnedTokens":       0.0,
		"lockedTokens":       0.0,
		"holders":            1247.0,
		"lastUpdated":        "",
	}, body)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		expected string
	}{
		{name: "utc", in: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC), expected: "2026-10-15T12:00:00.000Z"},
		{name: "milliseconds truncated", in: time.Date(2026, 10, 15, 12, 0, 0, 123456789, time.UTC), expected: "2026-10-15T12:00:00.123Z"},
		{name: "offset converted", in: time.Date(2026, 10, 15, 14, 30, 0, 0, time.FixedZone("CEST", 2*60*60)), expected: "2026-10-15T12:30:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTimestamp(tt.in))
		})
	}
}
