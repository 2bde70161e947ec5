// Package domain models weather observations and the risk-assessment
// records derived from them.
//
// # Data Source
//
// Observation windows arrive from an upstream ingestion service that polls
// external weather providers, groups recent measurements per location, and
// publishes each window as flat JSON to the Kafka source topic. The engine
// itself performs no network calls: the window on the wire is the complete
// input to one assessment.
//
// # Feature Vector Contract
//
// Every window is normalized into a fixed-order feature vector of
// [FeatureWidth] values, all min-max scaled into [0,1] against fixed
// physical ranges (see the feature schema in feature.go). The slot order
// is append-only: model variants are trained against slot indices, so
// reordering would silently corrupt every prediction.
//
// Derived features:
//
//	feels_like:   apparent temperature from the standard wind-chill
//	              formula (T ≤ 10°C, wind > 4.8 m/s) or the Rothfusz
//	              heat-index regression (T ≥ 27°C, RH ≥ 40%).
//	temp_trend:   last-minus-first temperature across the window.
//	precip_trend: last-minus-first precipitation across the window.
//
// Trend features use symmetric ranges so a flat trend scales to 0.5.
//
// # Missing Values
//
// Wire fields are pointers: absent keys are nil, never zero. Required
// metrics (temperature, humidity, pressure, wind speed, precipitation)
// are resolved per the configured imputation policy; optional metrics
// default to zero, except wind gust which defaults to the wind speed.
//
// # Severity Bands
//
// Risk scores map to severity bands over half-open intervals [min,max):
// a score exactly on an edge belongs to the higher band, and 1.0 belongs
// to the last band. The default table is low/moderate/high/severe at
// 0.25/0.5/0.75 boundaries. Band tables are validated at startup for
// contiguous coverage of [0,1].
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of
// location|window-end|score. This enables idempotent upserts downstream
// (ON CONFLICT DO NOTHING) and replay safety without distributed
// coordination. See [AssessmentID].
package domain
