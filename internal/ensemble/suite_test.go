package ensemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

func minimalRiskConfig(profiles ...config.ProfileSpec) *config.RiskConfig {
	return &config.RiskConfig{
		Bands:    domain.DefaultBands(),
		Profiles: profiles,
	}
}

func forestSpec(name string, weight float64) config.VariantSpec {
	return config.VariantSpec{
		Name:       name,
		Kind:       "tree-ensemble",
		Version:    "v1",
		Weight:     weight,
		CVAccuracy: 0.9,
		Stumps: []config.StumpSpec{
			{Feature: "precipitation", Threshold: 50, Below: 0.2, Above: 0.8},
		},
	}
}

func TestBuildSuite(t *testing.T) {
	rc := minimalRiskConfig(config.ProfileSpec{
		Name: "flood",
		Mode: "stacking",
		Variants: []config.VariantSpec{
			forestSpec("forest", 0.6),
			{
				Name:       "boost",
				Kind:       "boosted-tree",
				Version:    "v2",
				Weight:     0.25,
				CVAccuracy: 0.85,
				Base:       0.3,
				Shrinkage:  0.5,
				Stages: []config.StageSpec{
					{Feature: "precipitation", Threshold: 60, Step: 0.4},
				},
			},
			{
				Name:       "seq",
				Kind:       "sequence-model",
				Version:    "v1",
				Weight:     0.15,
				CVAccuracy: 0.8,
				Level:      "precipitation",
				Trend:      "precip_trend",
				Gain:       0.8,
			},
		},
	})

	suite, err := BuildSuite(rc)
	require.NoError(t, err)

	require.Len(t, suite.Profiles(), 1)
	p := suite.Profiles()[0]
	assert.Equal(t, "flood", p.Name())
	assert.Equal(t, ModeStacking, p.Mode())
	require.Len(t, p.Variants(), 3)

	kinds := []Kind{KindTreeEnsemble, KindBoostedTree, KindSequenceModel}
	for i, v := range p.Variants() {
		assert.Equal(t, kinds[i], v.Info().Kind)
		assert.Equal(t, domain.FeatureWidth, v.Info().InputWidth)
	}
}

func TestBuildSuiteConvertsThresholdsToNormalizedSpace(t *testing.T) {
	// A 50mm threshold on the 0..300mm precipitation range sits at 1/6 in
	// normalized space. A vector with precipitation just above that must
	// fire the stump's high leaf.
	suite, err := BuildSuite(minimalRiskConfig(config.ProfileSpec{
		Name:     "flood",
		Variants: []config.VariantSpec{forestSpec("forest", 1)},
	}))
	require.NoError(t, err)

	v := suite.Profiles()[0].Variants()[0]

	fv := flatVector(0)
	fv[domain.FeatPrecipitation] = domain.ScaleFeature(domain.FeatPrecipitation, 55)
	out, err := v.Predict(context.Background(), fv)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, out.Value, 1e-9)

	fv[domain.FeatPrecipitation] = domain.ScaleFeature(domain.FeatPrecipitation, 45)
	out, err = v.Predict(context.Background(), fv)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, out.Value, 1e-9)
}

func TestBuildSuiteDerivesWeightsFromCVAccuracy(t *testing.T) {
	a := forestSpec("a", 0)
	a.CVAccuracy = 0.9
	b := forestSpec("b", 0)
	b.CVAccuracy = 0.6

	suite, err := BuildSuite(minimalRiskConfig(config.ProfileSpec{
		Name:     "flood",
		Variants: []config.VariantSpec{a, b},
	}))
	require.NoError(t, err)

	summaries := suite.Describe()
	require.Len(t, summaries[0].Variants, 2)
	assert.InDelta(t, 0.6, summaries[0].Variants[0].Weight, 1e-9)
	assert.InDelta(t, 0.4, summaries[0].Variants[1].Weight, 1e-9)
}

func TestBuildSuiteErrors(t *testing.T) {
	tests := []struct {
		name    string
		profile config.ProfileSpec
		wantErr string
	}{
		{
			name: "unknown mode",
			profile: config.ProfileSpec{
				Name:     "flood",
				Mode:     "averaging",
				Variants: []config.VariantSpec{forestSpec("a", 1)},
			},
			wantErr: "unknown aggregation mode",
		},
		{
			name:    "no variants",
			profile: config.ProfileSpec{Name: "flood"},
			wantErr: "at least one variant",
		},
		{
			name: "duplicate variant names",
			profile: config.ProfileSpec{
				Name:     "flood",
				Variants: []config.VariantSpec{forestSpec("a", 0.5), forestSpec("a", 0.5)},
			},
			wantErr: "duplicate variant",
		},
		{
			name: "weights do not sum to one",
			profile: config.ProfileSpec{
				Name:     "flood",
				Variants: []config.VariantSpec{forestSpec("a", 0.5), forestSpec("b", 0.3)},
			},
			wantErr: "weights sum to",
		},
		{
			name: "unknown feature",
			profile: config.ProfileSpec{
				Name: "flood",
				Variants: []config.VariantSpec{{
					Name:       "a",
					Kind:       "tree-ensemble",
					CVAccuracy: 0.9,
					Stumps:     []config.StumpSpec{{Feature: "snowfall", Threshold: 5}},
				}},
			},
			wantErr: "unknown feature",
		},
		{
			name: "cv accuracy out of range",
			profile: config.ProfileSpec{
				Name: "flood",
				Variants: []config.VariantSpec{{
					Name:       "a",
					Kind:       "tree-ensemble",
					CVAccuracy: 1.2,
					Stumps:     []config.StumpSpec{{Feature: "precipitation", Threshold: 50}},
				}},
			},
			wantErr: "cv_accuracy",
		},
		{
			name: "unknown kind",
			profile: config.ProfileSpec{
				Name: "flood",
				Variants: []config.VariantSpec{{
					Name:       "a",
					Kind:       "transformer",
					CVAccuracy: 0.9,
				}},
			},
			wantErr: "unknown variant kind",
		},
		{
			name: "unknown sequence level feature",
			profile: config.ProfileSpec{
				Name: "flood",
				Variants: []config.VariantSpec{{
					Name:       "a",
					Kind:       "sequence-model",
					CVAccuracy: 0.9,
					Level:      "snow_depth",
					Trend:      "precip_trend",
				}},
			},
			wantErr: "unknown level feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSuite(minimalRiskConfig(tt.profile))

			var cerr *domain.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Reason, tt.wantErr)
		})
	}
}

func TestBuildSuiteContinuousOutputContract(t *testing.T) {
	spec := forestSpec("a", 1)
	spec.Output = &config.OutputSpec{Kind: "continuous", Min: 0, Max: 10}
	spec.Stumps = []config.StumpSpec{
		{Feature: "precipitation", Threshold: 50, Below: 2, Above: 8},
	}

	suite, err := BuildSuite(minimalRiskConfig(config.ProfileSpec{
		Name:     "flood",
		Variants: []config.VariantSpec{spec},
	}))
	require.NoError(t, err)

	v := suite.Profiles()[0].Variants()[0]
	assert.Equal(t, OutputContract{Kind: OutputContinuous, Min: 0, Max: 10}, v.Info().Output)
	assert.InDelta(t, 0.8, v.Info().Output.Normalize(8), 1e-9)
}
