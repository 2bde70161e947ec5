package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

// RiskConfig is the validated ensemble definition: imputation policy,
// confidence parameters, severity bands, and the per-profile variant
// specs the ensemble suite is built from. Loaded once at startup; every
// semantic violation is a ConfigurationError so bad definitions fail
// before the first request.
type RiskConfig struct {
	Policy            domain.ImputationPolicy
	ConfidenceCeiling float64
	ConfidenceFloor   float64
	Bands             domain.Bands
	Profiles          []ProfileSpec
}

// ProfileSpec declares one risk profile and its variant roster.
type ProfileSpec struct {
	Name     string        `mapstructure:"name"`
	Mode     string        `mapstructure:"mode"`
	Variants []VariantSpec `mapstructure:"variants"`
}

// VariantSpec declares one trained predictor. Weight may be omitted on
// every variant of a profile, in which case weights are derived
// proportional to CV accuracy (stacking per the historical-validation
// rule). Kind-specific parameter blocks use raw feature units; the
// builder converts thresholds into normalized feature space.
type VariantSpec struct {
	Name       string      `mapstructure:"name"`
	Kind       string      `mapstructure:"kind"`
	Version    string      `mapstructure:"version"`
	Weight     float64     `mapstructure:"weight"`
	CVAccuracy float64     `mapstructure:"cv_accuracy"`
	Output     *OutputSpec `mapstructure:"output"`

	// tree-ensemble
	Stumps []StumpSpec `mapstructure:"stumps"`

	// boosted-tree
	Base      float64     `mapstructure:"base"`
	Shrinkage float64     `mapstructure:"shrinkage"`
	Stages    []StageSpec `mapstructure:"stages"`

	// sequence-model
	Level string  `mapstructure:"level"`
	Trend string  `mapstructure:"trend"`
	Gain  float64 `mapstructure:"gain"`
}

// OutputSpec overrides a variant's output contract.
type OutputSpec struct {
	Kind string  `mapstructure:"kind"`
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
}

// StumpSpec is one decision stump; threshold in raw feature units.
type StumpSpec struct {
	Feature   string  `mapstructure:"feature"`
	Threshold float64 `mapstructure:"threshold"`
	Below     float64 `mapstructure:"below"`
	Above     float64 `mapstructure:"above"`
}

// StageSpec is one boosting stage; threshold in raw feature units.
type StageSpec struct {
	Feature   string  `mapstructure:"feature"`
	Threshold float64 `mapstructure:"threshold"`
	Step      float64 `mapstructure:"step"`
}

// riskFile is the raw file shape before validation.
type riskFile struct {
	ImputationPolicy  string        `mapstructure:"imputation_policy"`
	ConfidenceCeiling *float64      `mapstructure:"confidence_ceiling"`
	ConfidenceFloor   *float64      `mapstructure:"confidence_floor"`
	Bands             []bandFile    `mapstructure:"bands"`
	Profiles          []ProfileSpec `mapstructure:"profiles"`
}

type bandFile struct {
	Name    string       `mapstructure:"name"`
	Min     float64      `mapstructure:"min"`
	Max     float64      `mapstructure:"max"`
	Actions []actionFile `mapstructure:"actions"`
}

type actionFile struct {
	Action    string   `mapstructure:"action"`
	Tier      string   `mapstructure:"tier"`
	Timeline  string   `mapstructure:"timeline"`
	Resources []string `mapstructure:"resources"`
}

// LoadRiskConfig reads and validates the ensemble definition file.
func LoadRiskConfig(path string) (*RiskConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read risk config %s: %w", path, err)
	}

	var file riskFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, domain.Configf("decode risk config %s: %v", path, err)
	}

	return buildRiskConfig(file)
}

func buildRiskConfig(file riskFile) (*RiskConfig, error) {
	policy, err := domain.ParseImputationPolicy(file.ImputationPolicy)
	if err != nil {
		return nil, err
	}

	// Pointer fields so an explicit zero is honored rather than
	// mistaken for an absent key.
	ceiling := 0.6
	if file.ConfidenceCeiling != nil {
		ceiling = *file.ConfidenceCeiling
	}
	if ceiling < 0 || ceiling > 1 {
		return nil, domain.Configf("confidence_ceiling %g outside [0,1]", ceiling)
	}

	floor := 0.5
	if file.ConfidenceFloor != nil {
		floor = *file.ConfidenceFloor
	}
	if floor < 0 || floor > 1 {
		return nil, domain.Configf("confidence_floor %g outside [0,1]", floor)
	}

	bands, err := buildBands(file.Bands)
	if err != nil {
		return nil, err
	}

	if len(file.Profiles) == 0 {
		return nil, domain.Configf("at least one risk profile required")
	}
	seen := make(map[string]bool, len(file.Profiles))
	for _, p := range file.Profiles {
		if p.Name == "" {
			return nil, domain.Configf("profile name required")
		}
		if seen[p.Name] {
			return nil, domain.Configf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
	}

	return &RiskConfig{
		Policy:            policy,
		ConfidenceCeiling: ceiling,
		ConfidenceFloor:   floor,
		Bands:             bands,
		Profiles:          file.Profiles,
	}, nil
}

// buildBands converts file bands into the validated domain table. An
// absent bands section falls back to the built-in four-level table.
func buildBands(files []bandFile) (domain.Bands, error) {
	if len(files) == 0 {
		return domain.DefaultBands(), nil
	}

	bands := make(domain.Bands, 0, len(files))
	for _, f := range files {
		actions := make([]domain.Action, 0, len(f.Actions))
		for _, a := range f.Actions {
			if a.Action == "" {
				return nil, domain.Configf("severity band %q: action description required", f.Name)
			}
			tier, err := domain.ParseUrgencyTier(a.Tier)
			if err != nil {
				return nil, err
			}
			actions = append(actions, domain.Action{
				Description: a.Action,
				Tier:        tier,
				Timeline:    a.Timeline,
				Resources:   a.Resources,
			})
		}
		bands = append(bands, domain.SeverityBand{
			Name:    f.Name,
			Min:     f.Min,
			Max:     f.Max,
			Actions: actions,
		})
	}

	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return bands, nil
}
