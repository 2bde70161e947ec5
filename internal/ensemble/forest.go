package ensemble

import (
	"context"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Stump is a one-split decision tree: below the threshold it predicts one
// leaf value, at or above it the other. Thresholds are in normalized
// feature space.
type Stump struct {
	Feature   int
	Threshold float64
	Below     float64
	Above     float64
}

// TreeEnsemble averages a fixed forest of stumps. It stands in for the
// bagged tree family: each stump is an independently trained weak learner
// and the forest output is their mean.
type TreeEnsemble struct {
	info   VariantInfo
	stumps []Stump
}

// NewTreeEnsemble builds a tree-ensemble variant from its trained stumps.
func NewTreeEnsemble(info VariantInfo, stumps []Stump) (*TreeEnsemble, error) {
	if len(stumps) == 0 {
		return nil, domain.Configf("variant %q: tree-ensemble requires at least one stump", info.Name)
	}
	for i, s := range stumps {
		if s.Feature < 0 || s.Feature >= info.InputWidth {
			return nil, domain.Configf("variant %q: stump %d feature index %d outside input width %d",
				info.Name, i, s.Feature, info.InputWidth)
		}
	}
	info.Kind = KindTreeEnsemble
	return &TreeEnsemble{info: info, stumps: stumps}, nil
}

func (t *TreeEnsemble) Info() VariantInfo { return t.info }

// Predict averages the stump leaves. Self-reported confidence is the
// fraction of stumps agreeing with the majority side of the forest mean.
func (t *TreeEnsemble) Predict(ctx context.Context, fv domain.FeatureVector) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	var sum float64
	leaves := make([]float64, len(t.stumps))
	for i, s := range t.stumps {
		leaf := s.Below
		if fv[s.Feature] >= s.Threshold {
			leaf = s.Above
		}
		leaves[i] = leaf
		sum += leaf
	}
	mean := sum / float64(len(t.stumps))

	norm := t.info.Output.Normalize(mean)
	agree := 0
	for _, leaf := range leaves {
		if (t.info.Output.Normalize(leaf) >= 0.5) == (norm >= 0.5) {
			agree++
		}
	}

	return Output{
		Value:      mean,
		Confidence: float64(agree) / float64(len(t.stumps)),
	}, nil
}
