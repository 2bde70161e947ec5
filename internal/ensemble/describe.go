package ensemble

// VariantSummary describes one deployed variant for operational
// introspection.
type VariantSummary struct {
	Name       string  `json:"name"`
	Version    string  `json:"version"`
	Kind       string  `json:"kind"`
	Weight     float64 `json:"weight"`
	CVAccuracy float64 `json:"cv_accuracy"`
}

// ProfileSummary describes one risk profile's active configuration.
type ProfileSummary struct {
	Name     string           `json:"name"`
	Mode     string           `json:"mode"`
	Variants []VariantSummary `json:"variants"`
}

// Describe reports the suite's profiles and variants in configuration
// order, for surfacing over the operational HTTP endpoints.
func (s *Suite) Describe() []ProfileSummary {
	out := make([]ProfileSummary, len(s.profiles))
	for i, p := range s.profiles {
		ps := ProfileSummary{
			Name:     p.name,
			Mode:     p.mode.String(),
			Variants: make([]VariantSummary, len(p.variants)),
		}
		for j, v := range p.variants {
			info := v.Info()
			ps.Variants[j] = VariantSummary{
				Name:       info.Name,
				Version:    info.Version,
				Kind:       info.Kind.String(),
				Weight:     p.weights[j],
				CVAccuracy: info.CVAccuracy,
			}
		}
		out[i] = ps
	}
	return out
}

// Describe reports the currently active suite.
func (r *Registry) Describe() []ProfileSummary {
	return r.Snapshot().Describe()
}
