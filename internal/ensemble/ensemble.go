package ensemble

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// VariantResult is one variant's contribution to a prediction: raw output,
// its normalized form, self-reported confidence, and the configured weight.
type VariantResult struct {
	Info       VariantInfo
	Raw        float64
	Normalized float64
	Confidence float64
	Weight     float64
}

// VariantFailure records a variant that produced no output for this
// request. Failures are isolated at this boundary and never abort the
// ensemble on their own.
type VariantFailure struct {
	Name string
	Err  error
}

// Prediction is the fan-in of one profile's variant outputs for a single
// feature vector. Transient, scoped to one request. Results keep
// registration order so downstream combination is deterministic.
type Prediction struct {
	Profile  string
	Results  []VariantResult
	Failures []VariantFailure
}

// Profile is one named risk dimension (flood, heatwave, ...) with its own
// variant set, weight table, and aggregation mode. Read-only after build;
// shared across concurrent requests.
type Profile struct {
	name     string
	mode     Mode
	variants []Variant
	weights  []float64
}

// NewProfile assembles a profile from built variants and their weight
// table. Weights are index-aligned with variants, must be non-negative,
// and must sum to 1; violations are ConfigurationErrors.
func NewProfile(name string, mode Mode, variants []Variant, weights []float64) (*Profile, error) {
	if name == "" {
		return nil, domain.Configf("profile name required")
	}
	if len(variants) == 0 {
		return nil, domain.Configf("profile %q: at least one variant required", name)
	}
	if len(weights) != len(variants) {
		return nil, domain.Configf("profile %q: %d weights for %d variants", name, len(weights), len(variants))
	}
	var sum float64
	for i, w := range weights {
		if w < 0 {
			return nil, domain.Configf("profile %q: variant %q has negative weight %g",
				name, variants[i].Info().Name, w)
		}
		sum += w
	}
	if diff := sum - 1; diff > weightEpsilon || diff < -weightEpsilon {
		return nil, domain.Configf("profile %q: weights sum to %g, want 1", name, sum)
	}
	return &Profile{name: name, mode: mode, variants: variants, weights: weights}, nil
}

// Name returns the profile's risk dimension name.
func (p *Profile) Name() string { return p.name }

// Mode returns the profile's aggregation mode.
func (p *Profile) Mode() Mode { return p.mode }

// Variants returns the registered variant set.
func (p *Profile) Variants() []Variant { return p.variants }

// Predict fans out over every registered variant in parallel, bounded by
// the variant count, and fans the outputs back in. A single variant's
// failure (error, panic, or shape mismatch) is caught and recorded as a
// missing entry; only when every variant fails does Predict return an
// EnsembleExhaustedError. Context cancellation aborts the whole request.
func (p *Profile) Predict(ctx context.Context, fv domain.FeatureVector) (Prediction, error) {
	type slot struct {
		out Output
		err error
	}
	slots := make([]slot, len(p.variants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(p.variants))
	for i, v := range p.variants {
		g.Go(func() error {
			out, err := predictOne(gctx, v, fv)
			slots[i] = slot{out: out, err: err}
			return nil
		})
	}
	// Worker funcs never return errors; failures land in their slot.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	pred := Prediction{Profile: p.name}
	for i, v := range p.variants {
		info := v.Info()
		if slots[i].err != nil {
			pred.Failures = append(pred.Failures, VariantFailure{
				Name: info.Name,
				Err:  &domain.VariantInferenceError{Variant: info.Name, Err: slots[i].err},
			})
			continue
		}
		pred.Results = append(pred.Results, VariantResult{
			Info:       info,
			Raw:        slots[i].out.Value,
			Normalized: info.Output.Normalize(slots[i].out.Value),
			Confidence: clamp01(slots[i].out.Confidence),
			Weight:     p.weights[i],
		})
	}

	if len(pred.Results) == 0 {
		return Prediction{}, &domain.EnsembleExhaustedError{Profile: p.name, Attempts: len(p.variants)}
	}
	return pred, nil
}

// predictOne invokes a single variant, converting panics and input-shape
// mismatches into per-variant errors.
func predictOne(ctx context.Context, v Variant, fv domain.FeatureVector) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if want := v.Info().InputWidth; want != fv.Width() {
		return Output{}, fmt.Errorf("input width mismatch: variant wants %d features, vector has %d", want, fv.Width())
	}

	return v.Predict(ctx, fv)
}
