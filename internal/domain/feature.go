package domain

import (
	"fmt"
	"math"
	"strings"
)

// Feature indices. Every model variant declares an input width that must
// equal FeatureWidth; the order here is the wire contract between the
// normalizer and the ensemble and must never be reordered, only appended to.
const (
	FeatTemperature = iota
	FeatHumidity
	FeatPressure
	FeatWindSpeed
	FeatWindGust
	FeatPrecipitation
	FeatCloudCover
	FeatVisibility
	FeatUVIndex
	FeatFeelsLike
	FeatTempTrend
	FeatPrecipTrend
	FeatLatitude
	FeatLongitude
	FeatElevation

	FeatureWidth
)

// FeatureDef describes one slot of the feature vector: its name (used in
// ensemble configuration), the raw-unit range it is min-max scaled against,
// and whether it must be present in the source observation.
type FeatureDef struct {
	Name     string
	Min, Max float64
	Required bool
}

// featureSchema is the canonical feature contract. Trend features use a
// symmetric range so that a flat trend scales to 0.5.
var featureSchema = [FeatureWidth]FeatureDef{
	FeatTemperature:   {Name: "temperature", Min: minTemperatureC, Max: maxTemperatureC, Required: true},
	FeatHumidity:      {Name: "humidity", Min: 0, Max: 100, Required: true},
	FeatPressure:      {Name: "pressure", Min: minPressureHPa, Max: maxPressureHPa, Required: true},
	FeatWindSpeed:     {Name: "wind_speed", Min: 0, Max: 115, Required: true},
	FeatWindGust:      {Name: "wind_gust", Min: 0, Max: 115},
	FeatPrecipitation: {Name: "precipitation", Min: 0, Max: 300, Required: true},
	FeatCloudCover:    {Name: "cloud_cover", Min: 0, Max: 100},
	FeatVisibility:    {Name: "visibility", Min: 0, Max: 50000},
	FeatUVIndex:       {Name: "uv_index", Min: 0, Max: 12},
	FeatFeelsLike:     {Name: "feels_like", Min: minTemperatureC, Max: 70},
	FeatTempTrend:     {Name: "temp_trend", Min: -20, Max: 20},
	FeatPrecipTrend:   {Name: "precip_trend", Min: -150, Max: 150},
	FeatLatitude:      {Name: "latitude", Min: -90, Max: 90},
	FeatLongitude:     {Name: "longitude", Min: -180, Max: 180},
	FeatElevation:     {Name: "elevation", Min: -430, Max: 8850},
}

// FeatureIndex resolves a feature name from ensemble configuration to its
// vector slot.
func FeatureIndex(name string) (int, bool) {
	for i, def := range featureSchema {
		if def.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FeatureName returns the schema name for a vector slot.
func FeatureName(idx int) string {
	if idx < 0 || idx >= FeatureWidth {
		return fmt.Sprintf("feature[%d]", idx)
	}
	return featureSchema[idx].Name
}

// ScaleFeature min-max scales a raw-unit value into [0,1] against the
// schema range for the given slot, clamping out-of-range inputs.
func ScaleFeature(idx int, raw float64) float64 {
	def := featureSchema[idx]
	scaled := (raw - def.Min) / (def.Max - def.Min)
	return clamp01(scaled)
}

// FeatureVector is a fixed-order numeric array derived from one
// observation window. Owned by the pipeline invocation that created it;
// never mutated after construction.
type FeatureVector []float64

// Width returns the vector length, checked against each variant's
// declared input width.
func (fv FeatureVector) Width() int { return len(fv) }

// ImputationPolicy controls how missing required observation fields are
// resolved during normalization.
type ImputationPolicy int

const (
	// ImputeDropRecord rejects the record with a ValidationError.
	ImputeDropRecord ImputationPolicy = iota
	// ImputeZeroFill substitutes a raw zero for the missing value.
	ImputeZeroFill
	// ImputeLastKnown walks back through the window for the most recent
	// reported value, falling back to zero-fill when none exists.
	ImputeLastKnown
)

// ParseImputationPolicy maps a configuration string to a policy.
func ParseImputationPolicy(s string) (ImputationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop-record":
		return ImputeDropRecord, nil
	case "zero-fill", "":
		return ImputeZeroFill, nil
	case "last-known-value":
		return ImputeLastKnown, nil
	default:
		return 0, Configf("unknown imputation policy %q", s)
	}
}

func (p ImputationPolicy) String() string {
	switch p {
	case ImputeDropRecord:
		return "drop-record"
	case ImputeZeroFill:
		return "zero-fill"
	case ImputeLastKnown:
		return "last-known-value"
	default:
		return fmt.Sprintf("imputation(%d)", int(p))
	}
}

// NormalizeFeatures converts an observation window into the fixed-width
// feature vector: the latest observation supplies the point-in-time
// features, the whole window supplies the temporal trend features, and the
// location supplies the geographic features. Pure function over input and
// policy.
func NormalizeFeatures(window ObservationWindow, policy ImputationPolicy) (FeatureVector, error) {
	latest := window.Latest()

	fv := make(FeatureVector, FeatureWidth)

	metrics := []struct {
		idx    int
		value  *float64
		pick   func(Observation) *float64
	}{
		{FeatTemperature, latest.Temperature, func(o Observation) *float64 { return o.Temperature }},
		{FeatHumidity, latest.Humidity, func(o Observation) *float64 { return o.Humidity }},
		{FeatPressure, latest.Pressure, func(o Observation) *float64 { return o.Pressure }},
		{FeatWindSpeed, latest.WindSpeed, func(o Observation) *float64 { return o.WindSpeed }},
		{FeatWindGust, latest.WindGust, func(o Observation) *float64 { return o.WindGust }},
		{FeatPrecipitation, latest.Precipitation, func(o Observation) *float64 { return o.Precipitation }},
		{FeatCloudCover, latest.CloudCover, func(o Observation) *float64 { return o.CloudCover }},
		{FeatVisibility, latest.Visibility, func(o Observation) *float64 { return o.Visibility }},
		{FeatUVIndex, latest.UVIndex, func(o Observation) *float64 { return o.UVIndex }},
	}

	raws := make([]float64, FeatureWidth)
	for _, m := range metrics {
		raw, err := resolveMetric(window, m.idx, m.value, m.pick, policy)
		if err != nil {
			return nil, err
		}
		raws[m.idx] = raw
		fv[m.idx] = ScaleFeature(m.idx, raw)
	}

	// A missing gust is the reported wind speed, not a calm gust.
	if latest.WindGust == nil && raws[FeatWindGust] == 0 {
		raws[FeatWindGust] = raws[FeatWindSpeed]
		fv[FeatWindGust] = ScaleFeature(FeatWindGust, raws[FeatWindGust])
	}

	feels := ApparentTemperature(raws[FeatTemperature], raws[FeatHumidity], raws[FeatWindSpeed])
	fv[FeatFeelsLike] = ScaleFeature(FeatFeelsLike, feels)

	fv[FeatTempTrend] = ScaleFeature(FeatTempTrend, windowTrend(window, func(o Observation) *float64 { return o.Temperature }))
	fv[FeatPrecipTrend] = ScaleFeature(FeatPrecipTrend, windowTrend(window, func(o Observation) *float64 { return o.Precipitation }))

	fv[FeatLatitude] = ScaleFeature(FeatLatitude, window.Location.Lat)
	fv[FeatLongitude] = ScaleFeature(FeatLongitude, window.Location.Lon)
	fv[FeatElevation] = ScaleFeature(FeatElevation, window.Location.Elevation)

	return fv, nil
}

// resolveMetric applies the imputation policy to a possibly missing metric.
func resolveMetric(window ObservationWindow, idx int, value *float64, pick func(Observation) *float64, policy ImputationPolicy) (float64, error) {
	if value != nil {
		return *value, nil
	}

	def := featureSchema[idx]
	if !def.Required {
		return 0, nil
	}

	switch policy {
	case ImputeDropRecord:
		return 0, &ValidationError{Field: def.Name, Reason: "required field missing and imputation disabled"}
	case ImputeLastKnown:
		for i := len(window.Observations) - 2; i >= 0; i-- {
			if v := pick(window.Observations[i]); v != nil {
				return *v, nil
			}
		}
		return 0, nil
	default: // ImputeZeroFill
		return 0, nil
	}
}

// windowTrend returns last-minus-first over the reported values of one
// metric across the window: positive means rising. Fewer than two reported
// values means no measurable trend.
func windowTrend(window ObservationWindow, pick func(Observation) *float64) float64 {
	var first, last *float64
	for i := range window.Observations {
		if v := pick(window.Observations[i]); v != nil {
			if first == nil {
				first = v
			}
			last = v
		}
	}
	if first == nil || last == nil || first == last {
		return 0
	}
	return *last - *first
}

// ApparentTemperature computes the "feels like" temperature in °C from air
// temperature (°C), relative humidity (%), and wind speed (m/s), using the
// standard wind-chill formula below 10°C with wind above 4.8 m/s and the
// Rothfusz heat-index regression above 27°C with humidity above 40%.
func ApparentTemperature(tempC, humidityPct, windMS float64) float64 {
	switch {
	case tempC <= 10 && windMS > 4.8:
		kmh := windMS * 3.6
		return 13.12 + 0.6215*tempC - 11.37*math.Pow(kmh, 0.16) + 0.3965*tempC*math.Pow(kmh, 0.16)
	case tempC >= 27 && humidityPct >= 40:
		const (
			c1 = -8.78469475556
			c2 = 1.61139411
			c3 = 2.33854883889
			c4 = -0.14611605
			c5 = -0.012308094
			c6 = -0.0164248277778
			c7 = 0.002211732
			c8 = 0.00072546
			c9 = -0.000003582
		)
		t, r := tempC, humidityPct
		return c1 + c2*t + c3*r + c4*t*r +
			c5*t*t + c6*r*r + c7*t*t*r +
			c8*t*r*r + c9*t*t*r*r
	default:
		return tempC
	}
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
