package ensemble

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Mode selects how a profile combines its variant outputs.
type Mode int

const (
	// ModeStacking takes the weighted average of normalized outputs.
	ModeStacking Mode = iota
	// ModeVoting takes a weighted majority over binary votes at 0.5.
	ModeVoting
)

// ParseMode maps a configuration string to an aggregation mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stacking", "":
		return ModeStacking, nil
	case "voting":
		return ModeVoting, nil
	default:
		return 0, domain.Configf("unknown aggregation mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeStacking:
		return "stacking"
	case ModeVoting:
		return "voting"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

const weightEpsilon = 1e-9

// Aggregate combines a prediction's variant outputs into one score plus
// the per-variant spread (population standard deviation of normalized
// outputs). Weights are renormalized over the variants that actually
// produced an output, so a partial prediction still carries full weight.
func Aggregate(pred Prediction, mode Mode) (score, spread float64, err error) {
	if len(pred.Results) == 0 {
		return 0, 0, &domain.EnsembleExhaustedError{Profile: pred.Profile, Attempts: len(pred.Failures)}
	}

	weights := renormalizedWeights(pred.Results)

	norms := make([]float64, len(pred.Results))
	for i, r := range pred.Results {
		norms[i] = r.Normalized
	}

	switch mode {
	case ModeVoting:
		score = voteScore(pred.Results, weights)
	default:
		for i := range pred.Results {
			score += weights[i] * norms[i]
		}
	}

	if len(norms) > 1 {
		sd, sdErr := stats.StandardDeviationPopulation(stats.Float64Data(norms))
		if sdErr != nil {
			return 0, 0, fmt.Errorf("compute spread: %w", sdErr)
		}
		spread = sd
	}

	return clamp01(score), spread, nil
}

// renormalizedWeights rescales the configured weights of the present
// variants to sum to 1. A degenerate all-zero table falls back to equal
// weighting.
func renormalizedWeights(results []VariantResult) []float64 {
	weights := make([]float64, len(results))
	var sum float64
	for i, r := range results {
		weights[i] = r.Weight
		sum += r.Weight
	}
	if sum <= weightEpsilon {
		equal := 1 / float64(len(results))
		for i := range weights {
			weights[i] = equal
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// voteScore implements weighted majority voting: each variant votes its
// binary class at 0.5, the class with the larger weight mass wins, and
// the returned score is the weighted mean of the winning side's outputs.
// An exact tie is broken by the variant with the highest self-reported
// confidence.
func voteScore(results []VariantResult, weights []float64) float64 {
	var posWeight float64
	for i, r := range results {
		if r.Normalized >= 0.5 {
			posWeight += weights[i]
		}
	}

	var positive bool
	switch diff := posWeight - 0.5; {
	case diff > weightEpsilon:
		positive = true
	case diff < -weightEpsilon:
		positive = false
	default:
		positive = tieBreak(results)
	}

	var scoreSum, weightSum float64
	for i, r := range results {
		if (r.Normalized >= 0.5) != positive {
			continue
		}
		scoreSum += weights[i] * r.Normalized
		weightSum += weights[i]
	}
	if weightSum <= weightEpsilon {
		// Winning side holds no weight: degenerate tie-break against an
		// all-zero table. Fall back to the plain weighted mean.
		for i, r := range results {
			scoreSum += weights[i] * r.Normalized
		}
		return scoreSum
	}
	return scoreSum / weightSum
}

// tieBreak returns the vote of the single most self-confident variant.
func tieBreak(results []VariantResult) bool {
	best := results[0]
	for _, r := range results[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return best.Normalized >= 0.5
}
