package ensemble

import (
	"context"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Stage is one boosting round: a stump whose signed step is added to the
// running score when the feature clears the threshold and subtracted
// otherwise. Thresholds are in normalized feature space.
type Stage struct {
	Feature   int
	Threshold float64
	Step      float64
}

// BoostedTrees is an additive stage sequence with shrinkage, the
// gradient-boosted counterpart of the bagged forest: stages correct the
// running score rather than voting independently.
type BoostedTrees struct {
	info      VariantInfo
	base      float64
	shrinkage float64
	stages    []Stage
}

// NewBoostedTrees builds a boosted-tree variant from its trained stages.
func NewBoostedTrees(info VariantInfo, base, shrinkage float64, stages []Stage) (*BoostedTrees, error) {
	if len(stages) == 0 {
		return nil, domain.Configf("variant %q: boosted-tree requires at least one stage", info.Name)
	}
	if shrinkage <= 0 || shrinkage > 1 {
		return nil, domain.Configf("variant %q: shrinkage %g outside (0,1]", info.Name, shrinkage)
	}
	for i, s := range stages {
		if s.Feature < 0 || s.Feature >= info.InputWidth {
			return nil, domain.Configf("variant %q: stage %d feature index %d outside input width %d",
				info.Name, i, s.Feature, info.InputWidth)
		}
	}
	info.Kind = KindBoostedTree
	return &BoostedTrees{info: info, base: base, shrinkage: shrinkage, stages: stages}, nil
}

func (b *BoostedTrees) Info() VariantInfo { return b.info }

// Predict runs the additive stage sequence. Self-reported confidence is
// the decision margin of the normalized score.
func (b *BoostedTrees) Predict(ctx context.Context, fv domain.FeatureVector) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	score := b.base
	for _, s := range b.stages {
		if fv[s.Feature] >= s.Threshold {
			score += b.shrinkage * s.Step
		} else {
			score -= b.shrinkage * s.Step
		}
	}

	return Output{
		Value:      score,
		Confidence: margin(b.info.Output.Normalize(score)),
	}, nil
}
