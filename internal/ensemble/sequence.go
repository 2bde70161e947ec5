package ensemble

import (
	"context"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// SequenceModel projects a level feature along its matching trend feature:
// score = level + gain·(trend − 0.5). Trend features are scaled so 0.5
// means flat, which makes the correction signed. It stands in for the
// recurrent family, operating on the temporal features the normalizer
// derives from the observation window.
type SequenceModel struct {
	info  VariantInfo
	level int
	trend int
	gain  float64
}

// NewSequenceModel builds a sequence-model variant over a (level, trend)
// feature pair.
func NewSequenceModel(info VariantInfo, level, trend int, gain float64) (*SequenceModel, error) {
	if level < 0 || level >= info.InputWidth {
		return nil, domain.Configf("variant %q: level feature index %d outside input width %d",
			info.Name, level, info.InputWidth)
	}
	if trend < 0 || trend >= info.InputWidth {
		return nil, domain.Configf("variant %q: trend feature index %d outside input width %d",
			info.Name, trend, info.InputWidth)
	}
	if gain < 0 {
		return nil, domain.Configf("variant %q: gain %g must not be negative", info.Name, gain)
	}
	info.Kind = KindSequenceModel
	return &SequenceModel{info: info, level: level, trend: trend, gain: gain}, nil
}

func (s *SequenceModel) Info() VariantInfo { return s.info }

// Predict applies the trend correction to the level feature.
// Self-reported confidence is the decision margin of the normalized score.
func (s *SequenceModel) Predict(ctx context.Context, fv domain.FeatureVector) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	score := fv[s.level] + s.gain*(fv[s.trend]-0.5)

	return Output{
		Value:      score,
		Confidence: margin(s.info.Output.Normalize(score)),
	}, nil
}
