package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandsValidate(t *testing.T) {
	tests := []struct {
		name    string
		bands   Bands
		wantErr string
	}{
		{
			name:  "default table is valid",
			bands: DefaultBands(),
		},
		{
			name: "two contiguous bands",
			bands: Bands{
				{Name: "calm", Min: 0, Max: 0.6},
				{Name: "rough", Min: 0.6, Max: 1},
			},
		},
		{
			name:    "empty table",
			bands:   Bands{},
			wantErr: "at least one band",
		},
		{
			name: "first band starts above zero",
			bands: Bands{
				{Name: "calm", Min: 0.1, Max: 1},
			},
			wantErr: "must start at 0",
		},
		{
			name: "gap between bands",
			bands: Bands{
				{Name: "calm", Min: 0, Max: 0.4},
				{Name: "rough", Min: 0.5, Max: 1},
			},
			wantErr: "previous band ends",
		},
		{
			name: "last band ends below one",
			bands: Bands{
				{Name: "calm", Min: 0, Max: 0.9},
			},
			wantErr: "must end at 1",
		},
		{
			name: "inverted band",
			bands: Bands{
				{Name: "calm", Min: 0, Max: 0},
			},
			wantErr: "must exceed",
		},
		{
			name: "unnamed band",
			bands: Bands{
				{Name: "", Min: 0, Max: 1},
			},
			wantErr: "has no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bands.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Reason, tt.wantErr)
		})
	}
}

func TestBandFor(t *testing.T) {
	bands := DefaultBands()

	tests := []struct {
		score float64
		want  string
	}{
		{0, "low"},
		{0.24, "low"},
		{0.25, "moderate"}, // edge belongs to the higher band
		{0.49, "moderate"},
		{0.5, "high"},
		{0.75, "severe"},
		{1.0, "severe"}, // last band is closed at 1
		{-0.5, "low"},   // clamped
		{1.5, "severe"}, // clamped
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, bands.BandFor(tt.score).Name, "score %g", tt.score)
	}
}

func TestDefaultBandsActionsEscalate(t *testing.T) {
	bands := DefaultBands()
	require.NoError(t, bands.Validate())

	severe := bands.BandFor(0.9)
	require.NotEmpty(t, severe.Actions)
	assert.Equal(t, TierImmediate, severe.Actions[0].Tier)

	low := bands.BandFor(0.1)
	for _, a := range low.Actions {
		assert.Equal(t, TierPreparatory, a.Tier)
	}
}
