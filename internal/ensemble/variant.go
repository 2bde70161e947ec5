// Package ensemble holds the model variants, the fan-out that invokes
// them, and the aggregation and uncertainty math that turns their raw
// outputs into a single risk score.
package ensemble

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// Kind is the closed set of supported variant families. The set is fixed
// deliberately: a bounded enum keeps the testing surface finite and avoids
// runtime type inspection.
type Kind int

const (
	KindTreeEnsemble Kind = iota
	KindBoostedTree
	KindSequenceModel
)

// ParseKind maps a configuration string to a variant kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tree-ensemble":
		return KindTreeEnsemble, nil
	case "boosted-tree":
		return KindBoostedTree, nil
	case "sequence-model":
		return KindSequenceModel, nil
	default:
		return 0, domain.Configf("unknown variant kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindTreeEnsemble:
		return "tree-ensemble"
	case KindBoostedTree:
		return "boosted-tree"
	case KindSequenceModel:
		return "sequence-model"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OutputKind describes what a variant's raw output means.
type OutputKind int

const (
	// OutputProbability is already a probability in [0,1]; out-of-range
	// values are clamped.
	OutputProbability OutputKind = iota
	// OutputBinary collapses the raw value to a 0/1 vote at 0.5.
	OutputBinary
	// OutputContinuous is a score on a declared [Min,Max] range, min-max
	// normalized into [0,1].
	OutputContinuous
)

// ParseOutputKind maps a configuration string to an output kind.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "probability", "":
		return OutputProbability, nil
	case "binary":
		return OutputBinary, nil
	case "continuous":
		return OutputContinuous, nil
	default:
		return 0, domain.Configf("unknown output kind %q", s)
	}
}

// OutputContract declares a variant's output type and, for continuous
// outputs, the range its values live on.
type OutputContract struct {
	Kind OutputKind
	Min  float64
	Max  float64
}

// Normalize maps a raw variant output into [0,1] per the contract. All
// ensemble combination happens in normalized space.
func (c OutputContract) Normalize(raw float64) float64 {
	switch c.Kind {
	case OutputBinary:
		if raw >= 0.5 {
			return 1
		}
		return 0
	case OutputContinuous:
		if c.Max <= c.Min {
			return clamp01(raw)
		}
		return clamp01((raw - c.Min) / (c.Max - c.Min))
	default:
		return clamp01(raw)
	}
}

// VariantInfo is the static metadata of a registered predictor: identity,
// declared input shape, output contract, and historical cross-validation
// accuracy from training.
type VariantInfo struct {
	Name       string
	Version    string
	Kind       Kind
	InputWidth int
	Output     OutputContract
	CVAccuracy float64
}

// Output is one variant's raw prediction plus its self-reported confidence.
type Output struct {
	Value      float64
	Confidence float64
}

// Variant is a named, versioned predictor. Implementations are pure
// functions of the feature vector: loaded once, read-only, safe for
// concurrent use across requests.
type Variant interface {
	Info() VariantInfo
	Predict(ctx context.Context, fv domain.FeatureVector) (Output, error)
}

// margin converts a normalized score into a decision-margin confidence:
// 0 at the decision boundary, 1 at either extreme.
func margin(normalized float64) float64 {
	m := 2 * (normalized - 0.5)
	if m < 0 {
		m = -m
	}
	return clamp01(m)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
