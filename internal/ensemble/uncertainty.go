package ensemble

import (
	"github.com/montanaflynn/stats"
)

// agreementGain scales output variance into the agreement term. Chosen so
// that a spread of ~0.3 across members (members split between 0 and 1
// territory) roughly halves agreement, while tight clusters keep it near 1.
const agreementGain = 12.0

// EstimateConfidence derives a confidence scalar for a prediction from
// two signals: how much the ensemble members agree (inverse variance of
// their normalized outputs) and how reliable those members were
// historically (weighted mean cross-validation accuracy). The two are
// combined as a harmonic mean, so either weak signal drags the result
// down harder than an arithmetic mean would.
//
// With a single surviving variant there is no agreement signal at all;
// confidence degrades to the variant's own CV accuracy capped at the
// configured ceiling, never an error.
func EstimateConfidence(pred Prediction, ceiling float64) float64 {
	if len(pred.Results) == 0 {
		return 0
	}

	weights := renormalizedWeights(pred.Results)

	var reliability float64
	for i, r := range pred.Results {
		reliability += weights[i] * r.Info.CVAccuracy
	}
	reliability = clamp01(reliability)

	if len(pred.Results) == 1 {
		if reliability > ceiling {
			return clamp01(ceiling)
		}
		return reliability
	}

	norms := make([]float64, len(pred.Results))
	for i, r := range pred.Results {
		norms[i] = r.Normalized
	}
	variance, err := stats.PopulationVariance(stats.Float64Data(norms))
	if err != nil {
		return 0
	}
	agreement := 1 / (1 + agreementGain*variance)

	return clamp01(harmonicMean(agreement, reliability))
}

// harmonicMean of two positive terms; zero if either is zero.
func harmonicMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}
