package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Assessment is the output-boundary record: every profile's risk score,
// the overall score, and the recommendation derived from it. Emitted to
// the reporting collaborator, which owns storage and delivery.
type Assessment struct {
	ID              string               `json:"id"`
	TraceID         string               `json:"trace_id,omitempty"`
	Location        LocationRecord       `json:"location"`
	Scores          map[string]RiskScore `json:"scores"`
	Overall         RiskScore            `json:"overall"`
	DominantProfile string               `json:"dominant_profile"`
	Recommendation  Recommendation       `json:"recommendation"`
	VariantVersions map[string]string    `json:"variant_versions,omitempty"`
	WindowStart     time.Time            `json:"window_start"`
	WindowEnd       time.Time            `json:"window_end"`
	ProcessedAt     time.Time            `json:"processed_at"`
}

// AssessmentID produces a deterministic ID from the assessment's key
// fields. Identical input windows and variant sets yield identical IDs,
// enabling idempotent downstream upserts and replay safety.
func AssessmentID(locationID string, windowEnd time.Time, overallScore float64) string {
	input := fmt.Sprintf("%s|%s|%.6f", locationID, windowEnd.UTC().Format(time.RFC3339), overallScore)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if locationID == "" {
		return short
	}
	return locationID + "-" + short
}

// OutputRecord is the serialized form destined for the sink topic.
type OutputRecord struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
