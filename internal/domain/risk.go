package domain

import "math"

// RiskScore is the final output of one profile's ensemble: a scalar in
// [0,1], a confidence in [0,1], the per-variant spread behind the score,
// and the severity band the score falls in. The band is derived from the
// score via the configured thresholds and is never stored independently.
type RiskScore struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Spread     float64 `json:"spread"`
	Band       string  `json:"band"`
}

// SeverityBand is a named half-open score interval [Min,Max) with the
// static actions recommended for it. The last configured band closes at 1.
type SeverityBand struct {
	Name    string
	Min     float64
	Max     float64
	Actions []Action
}

// Bands is an ordered severity-band table covering [0,1].
type Bands []SeverityBand

const bandEpsilon = 1e-9

// Validate checks that the band table is non-empty, ordered, contiguous,
// and covers exactly [0,1]. Returns a ConfigurationError otherwise, so a
// bad table fails at startup rather than at request time.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return Configf("severity bands: at least one band required")
	}
	if math.Abs(b[0].Min) > bandEpsilon {
		return Configf("severity bands: first band must start at 0, got %g", b[0].Min)
	}
	for i, band := range b {
		if band.Name == "" {
			return Configf("severity bands: band %d has no name", i)
		}
		if band.Max <= band.Min {
			return Configf("severity band %q: max %g must exceed min %g", band.Name, band.Max, band.Min)
		}
		if i > 0 && math.Abs(band.Min-b[i-1].Max) > bandEpsilon {
			return Configf("severity band %q: starts at %g but previous band ends at %g", band.Name, band.Min, b[i-1].Max)
		}
	}
	if math.Abs(b[len(b)-1].Max-1) > bandEpsilon {
		return Configf("severity bands: last band must end at 1, got %g", b[len(b)-1].Max)
	}
	return nil
}

// BandFor maps a score to its severity band. Intervals are half-open, so a
// score exactly on an edge belongs to the higher band; 1.0 belongs to the
// last band. Scores are clamped into [0,1] first.
func (b Bands) BandFor(score float64) SeverityBand {
	score = clamp01(score)
	for i, band := range b {
		if i == len(b)-1 {
			return band
		}
		if score < band.Max {
			return band
		}
	}
	return SeverityBand{}
}

// DefaultBands returns the built-in four-level severity table used when a
// deployment supplies no band configuration of its own.
func DefaultBands() Bands {
	return Bands{
		{Name: "low", Min: 0, Max: 0.25, Actions: []Action{
			{Description: "Monitor conditions", Tier: TierPreparatory, Timeline: "Ongoing"},
		}},
		{Name: "moderate", Min: 0.25, Max: 0.5, Actions: []Action{
			{Description: "Review emergency supplies", Tier: TierPreparatory, Timeline: "Within 72 hours"},
			{Description: "Create communication plan", Tier: TierPreparatory, Timeline: "Within 72 hours"},
		}},
		{Name: "high", Min: 0.5, Max: 0.75, Actions: []Action{
			{Description: "Secure backup power supply", Tier: TierUrgent, Timeline: "Within 24 hours"},
			{Description: "Stock water and non-perishables", Tier: TierUrgent, Timeline: "Within 24 hours"},
			{Description: "Create communication plan", Tier: TierPreparatory, Timeline: "Within 72 hours"},
		}},
		{Name: "severe", Min: 0.75, Max: 1, Actions: []Action{
			{Description: "Prepare for immediate evacuation", Tier: TierImmediate, Timeline: "Within 6 hours"},
			{Description: "Secure backup power supply", Tier: TierUrgent, Timeline: "Within 24 hours"},
			{Description: "Create communication plan", Tier: TierPreparatory, Timeline: "Within 72 hours"},
		}},
	}
}
