package ensemble

import (
	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// BuildSuite constructs the full profile suite from a validated risk
// configuration: every variant spec becomes a built predictor, every
// weight table is resolved, and every violation surfaces as a
// ConfigurationError before the suite ever serves a request.
func BuildSuite(rc *config.RiskConfig) (*Suite, error) {
	profiles := make([]*Profile, 0, len(rc.Profiles))
	for _, ps := range rc.Profiles {
		profile, err := buildProfile(ps)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return NewSuite(profiles), nil
}

func buildProfile(ps config.ProfileSpec) (*Profile, error) {
	mode, err := ParseMode(ps.Mode)
	if err != nil {
		return nil, err
	}
	if len(ps.Variants) == 0 {
		return nil, domain.Configf("profile %q: at least one variant required", ps.Name)
	}

	variants := make([]Variant, 0, len(ps.Variants))
	seen := make(map[string]bool, len(ps.Variants))
	for _, vs := range ps.Variants {
		if vs.Name == "" {
			return nil, domain.Configf("profile %q: variant name required", ps.Name)
		}
		if seen[vs.Name] {
			return nil, domain.Configf("profile %q: duplicate variant %q", ps.Name, vs.Name)
		}
		seen[vs.Name] = true

		v, err := buildVariant(ps.Name, vs)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	weights, err := resolveWeights(ps)
	if err != nil {
		return nil, err
	}

	return NewProfile(ps.Name, mode, variants, weights)
}

// resolveWeights returns the profile's weight table: explicit weights must
// sum to 1, while an all-omitted table is derived proportional to each
// variant's CV accuracy.
func resolveWeights(ps config.ProfileSpec) ([]float64, error) {
	weights := make([]float64, len(ps.Variants))
	var sum float64
	allZero := true
	for i, vs := range ps.Variants {
		if vs.Weight < 0 {
			return nil, domain.Configf("profile %q: variant %q has negative weight %g", ps.Name, vs.Name, vs.Weight)
		}
		if vs.Weight > 0 {
			allZero = false
		}
		weights[i] = vs.Weight
		sum += vs.Weight
	}

	if allZero {
		var cvSum float64
		for _, vs := range ps.Variants {
			cvSum += vs.CVAccuracy
		}
		if cvSum <= 0 {
			return nil, domain.Configf("profile %q: cannot derive weights, no weights and no cv accuracies", ps.Name)
		}
		for i, vs := range ps.Variants {
			weights[i] = vs.CVAccuracy / cvSum
		}
		return weights, nil
	}

	if diff := sum - 1; diff > weightEpsilon || diff < -weightEpsilon {
		return nil, domain.Configf("profile %q: weights sum to %g, want 1", ps.Name, sum)
	}
	return weights, nil
}

func buildVariant(profile string, vs config.VariantSpec) (Variant, error) {
	kind, err := ParseKind(vs.Kind)
	if err != nil {
		return nil, err
	}
	if vs.CVAccuracy <= 0 || vs.CVAccuracy > 1 {
		return nil, domain.Configf("profile %q: variant %q cv_accuracy %g outside (0,1]", profile, vs.Name, vs.CVAccuracy)
	}

	out, err := buildOutput(vs)
	if err != nil {
		return nil, err
	}

	info := VariantInfo{
		Name:       vs.Name,
		Version:    vs.Version,
		Kind:       kind,
		InputWidth: domain.FeatureWidth,
		Output:     out,
		CVAccuracy: vs.CVAccuracy,
	}

	switch kind {
	case KindTreeEnsemble:
		stumps := make([]Stump, 0, len(vs.Stumps))
		for _, s := range vs.Stumps {
			idx, thr, err := resolveThreshold(profile, vs.Name, s.Feature, s.Threshold)
			if err != nil {
				return nil, err
			}
			stumps = append(stumps, Stump{Feature: idx, Threshold: thr, Below: s.Below, Above: s.Above})
		}
		return NewTreeEnsemble(info, stumps)

	case KindBoostedTree:
		stages := make([]Stage, 0, len(vs.Stages))
		for _, s := range vs.Stages {
			idx, thr, err := resolveThreshold(profile, vs.Name, s.Feature, s.Threshold)
			if err != nil {
				return nil, err
			}
			stages = append(stages, Stage{Feature: idx, Threshold: thr, Step: s.Step})
		}
		return NewBoostedTrees(info, vs.Base, vs.Shrinkage, stages)

	default: // KindSequenceModel
		level, ok := domain.FeatureIndex(vs.Level)
		if !ok {
			return nil, domain.Configf("profile %q: variant %q: unknown level feature %q", profile, vs.Name, vs.Level)
		}
		trend, ok := domain.FeatureIndex(vs.Trend)
		if !ok {
			return nil, domain.Configf("profile %q: variant %q: unknown trend feature %q", profile, vs.Name, vs.Trend)
		}
		return NewSequenceModel(info, level, trend, vs.Gain)
	}
}

// buildOutput resolves a variant's output contract, defaulting to
// probability when no override is declared.
func buildOutput(vs config.VariantSpec) (OutputContract, error) {
	if vs.Output == nil {
		return OutputContract{Kind: OutputProbability}, nil
	}
	kind, err := ParseOutputKind(vs.Output.Kind)
	if err != nil {
		return OutputContract{}, err
	}
	if kind == OutputContinuous && vs.Output.Max <= vs.Output.Min {
		return OutputContract{}, domain.Configf("variant %q: continuous output range [%g,%g] is empty",
			vs.Name, vs.Output.Min, vs.Output.Max)
	}
	return OutputContract{Kind: kind, Min: vs.Output.Min, Max: vs.Output.Max}, nil
}

// resolveThreshold maps a feature name plus raw-unit threshold into a
// (slot index, normalized threshold) pair.
func resolveThreshold(profile, variant, feature string, raw float64) (int, float64, error) {
	idx, ok := domain.FeatureIndex(feature)
	if !ok {
		return 0, 0, domain.Configf("profile %q: variant %q: unknown feature %q", profile, variant, feature)
	}
	return idx, domain.ScaleFeature(idx, raw), nil
}
