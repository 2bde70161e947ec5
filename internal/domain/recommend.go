package domain

import (
	"fmt"
	"sort"
	"strings"
)

// UrgencyTier orders recommended actions by how soon they must happen.
// Lower values sort first.
type UrgencyTier int

const (
	TierImmediate UrgencyTier = iota + 1
	TierUrgent
	TierPreparatory
)

// ParseUrgencyTier maps a configuration string to a tier.
func ParseUrgencyTier(s string) (UrgencyTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate":
		return TierImmediate, nil
	case "urgent":
		return TierUrgent, nil
	case "preparatory", "":
		return TierPreparatory, nil
	default:
		return 0, Configf("unknown urgency tier %q", s)
	}
}

func (t UrgencyTier) String() string {
	switch t {
	case TierImmediate:
		return "immediate"
	case TierUrgent:
		return "urgent"
	case TierPreparatory:
		return "preparatory"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText renders the tier as its configuration name in JSON output.
func (t UrgencyTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Action is one recommended step, tagged with its urgency tier.
type Action struct {
	Description string      `json:"action"`
	Tier        UrgencyTier `json:"tier"`
	Timeline    string      `json:"timeline,omitempty"`
	Resources   []string    `json:"resources,omitempty"`
}

// Recommendation is the ordered action list derived from a RiskScore.
// Deterministic: same score and band table, same output. An advisory is
// set when confidence falls below the configured floor, signalling that
// the ensemble's members disagreed or were unreliable.
type Recommendation struct {
	Band     string   `json:"band"`
	Advisory string   `json:"advisory,omitempty"`
	Actions  []Action `json:"actions"`
}

// LowConfidenceAdvisory is prepended guidance for weakly supported scores.
const LowConfidenceAdvisory = "Confidence below threshold: verify with additional observations before acting"

// Recommend maps a (score, confidence) pair to the banded action list.
// Actions are ordered by urgency tier; ties keep band-definition insertion
// order (sort is stable).
func Recommend(rs RiskScore, bands Bands, confidenceFloor float64) Recommendation {
	band := bands.BandFor(rs.Score)

	actions := make([]Action, len(band.Actions))
	copy(actions, band.Actions)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Tier < actions[j].Tier })

	rec := Recommendation{Band: band.Name, Actions: actions}
	if rs.Confidence < confidenceFloor {
		rec.Advisory = LowConfidenceAdvisory
	}
	return rec
}
