package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawRecord represents an unprocessed message from the observation topic.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RawWindowRecord is the flat JSON structure published by the ingestion
// collaborator: one location plus its recent observations, oldest first.
// Numeric observation fields are pointers so an absent key is
// distinguishable from a measured zero.
type RawWindowRecord struct {
	Location     LocationRecord         `json:"location"`
	Observations []RawObservationRecord `json:"observations"`
}

// LocationRecord identifies the place an observation window belongs to.
type LocationRecord struct {
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"` // meters above sea level
}

// RawObservationRecord is a single point-in-time weather measurement.
type RawObservationRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   *float64  `json:"temperature_c,omitempty"`
	Humidity      *float64  `json:"humidity_pct,omitempty"`
	Pressure      *float64  `json:"pressure_hpa,omitempty"`
	WindSpeed     *float64  `json:"wind_speed_ms,omitempty"`
	WindGust      *float64  `json:"wind_gust_ms,omitempty"`
	Precipitation *float64  `json:"precipitation_mm,omitempty"`
	CloudCover    *float64  `json:"cloud_cover_pct,omitempty"`
	Visibility    *float64  `json:"visibility_m,omitempty"`
	UVIndex       *float64  `json:"uv_index,omitempty"`
}

// Observation is the immutable parsed form of one measurement. Metric
// fields stay pointers: nil means the ingestion source did not report the
// value, which the feature normalizer resolves per imputation policy.
type Observation struct {
	Timestamp     time.Time
	Temperature   *float64
	Humidity      *float64
	Pressure      *float64
	WindSpeed     *float64
	WindGust      *float64
	Precipitation *float64
	CloudCover    *float64
	Visibility    *float64
	UVIndex       *float64
}

// ObservationWindow is an ordered (oldest-first) sequence of observations
// for one location. Immutable once parsed.
type ObservationWindow struct {
	Location     LocationRecord
	Observations []Observation
}

// Latest returns the most recent observation. The window is never empty
// after ParseRawRecord succeeds.
func (w ObservationWindow) Latest() Observation {
	return w.Observations[len(w.Observations)-1]
}

// Span returns the first and last observation timestamps.
func (w ObservationWindow) Span() (time.Time, time.Time) {
	return w.Observations[0].Timestamp, w.Latest().Timestamp
}

// Physical plausibility bounds. Values outside these are sensor or
// encoding faults, not weather: the coldest/hottest surface temperatures
// on record are -89.2°C / 56.7°C, the pressure extremes 870/1085 hPa.
const (
	minTemperatureC = -90.0
	maxTemperatureC = 60.0
	minPressureHPa  = 870.0
	maxPressureHPa  = 1085.0
)

// ParseRawRecord deserializes a RawRecord's value into an ObservationWindow
// and validates physical constraints. All failures are ValidationErrors.
func ParseRawRecord(raw RawRecord) (ObservationWindow, error) {
	var rec RawWindowRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ObservationWindow{}, &ValidationError{Reason: fmt.Sprintf("parse raw record: %v", err)}
	}
	return ParseWindowRecord(rec)
}

// ParseWindowRecord validates a decoded RawWindowRecord and converts it to
// the immutable domain form.
func ParseWindowRecord(rec RawWindowRecord) (ObservationWindow, error) {
	if rec.Location.ID == "" {
		return ObservationWindow{}, &ValidationError{Field: "location.id", Reason: "required"}
	}
	if rec.Location.Lat < -90 || rec.Location.Lat > 90 {
		return ObservationWindow{}, &ValidationError{Field: "location.lat", Reason: "out of range [-90,90]"}
	}
	if rec.Location.Lon < -180 || rec.Location.Lon > 180 {
		return ObservationWindow{}, &ValidationError{Field: "location.lon", Reason: "out of range [-180,180]"}
	}
	if len(rec.Observations) == 0 {
		return ObservationWindow{}, &ValidationError{Field: "observations", Reason: "at least one observation required"}
	}

	obs := make([]Observation, 0, len(rec.Observations))
	var prev time.Time
	for i, o := range rec.Observations {
		if o.Timestamp.IsZero() {
			return ObservationWindow{}, &ValidationError{
				Field:  fmt.Sprintf("observations[%d].timestamp", i),
				Reason: "required",
			}
		}
		if !prev.IsZero() && o.Timestamp.Before(prev) {
			return ObservationWindow{}, &ValidationError{
				Field:  fmt.Sprintf("observations[%d].timestamp", i),
				Reason: "observations must be ordered oldest first",
			}
		}
		prev = o.Timestamp

		if err := validateObservation(i, o); err != nil {
			return ObservationWindow{}, err
		}

		obs = append(obs, Observation{
			Timestamp:     o.Timestamp.UTC(),
			Temperature:   o.Temperature,
			Humidity:      o.Humidity,
			Pressure:      o.Pressure,
			WindSpeed:     o.WindSpeed,
			WindGust:      o.WindGust,
			Precipitation: o.Precipitation,
			CloudCover:    o.CloudCover,
			Visibility:    o.Visibility,
			UVIndex:       o.UVIndex,
		})
	}

	return ObservationWindow{Location: rec.Location, Observations: obs}, nil
}

// validateObservation checks physical constraints on the values that are
// present. Missing values are an imputation concern, not a validation one.
func validateObservation(i int, o RawObservationRecord) error {
	checks := []struct {
		field    string
		value    *float64
		min, max float64
	}{
		{"temperature_c", o.Temperature, minTemperatureC, maxTemperatureC},
		{"humidity_pct", o.Humidity, 0, 100},
		{"pressure_hpa", o.Pressure, minPressureHPa, maxPressureHPa},
		{"wind_speed_ms", o.WindSpeed, 0, 150},
		{"wind_gust_ms", o.WindGust, 0, 150},
		{"precipitation_mm", o.Precipitation, 0, 500},
		{"cloud_cover_pct", o.CloudCover, 0, 100},
		{"visibility_m", o.Visibility, 0, 100000},
		{"uv_index", o.UVIndex, 0, 15},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if v := *c.value; v < c.min || v > c.max {
			return &ValidationError{
				Field:  fmt.Sprintf("observations[%d].%s", i, c.field),
				Reason: fmt.Sprintf("value %g outside physical range [%g,%g]", v, c.min, c.max),
			}
		}
	}
	return nil
}
