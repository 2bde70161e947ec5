package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/ensemble"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

// RiskAssessor implements Assessor: one stateless pass from raw
// observation window to serialized assessment. All model state lives in
// the registry; the assessor itself holds only configuration.
type RiskAssessor struct {
	registry          *ensemble.Registry
	policy            domain.ImputationPolicy
	bands             domain.Bands
	confidenceFloor   float64
	confidenceCeiling float64
	logger            *slog.Logger
	metrics           *observability.Metrics
	traceID           func(assessmentID string) string
}

// NewAssessor creates a RiskAssessor serving the registry's active suite
// under the given risk configuration.
func NewAssessor(registry *ensemble.Registry, rc *config.RiskConfig, logger *slog.Logger, metrics *observability.Metrics) *RiskAssessor {
	return &RiskAssessor{
		registry:          registry,
		policy:            rc.Policy,
		bands:             rc.Bands,
		confidenceFloor:   rc.ConfidenceFloor,
		confidenceCeiling: rc.ConfidenceCeiling,
		logger:            logger,
		metrics:           metrics,
		traceID:           func(string) string { return uuid.NewString() },
	}
}

// UseDeterministicTraceIDs derives trace IDs from the assessment ID
// instead of generating random ones, so repeated runs over the same
// input produce identical output. Used by the offline CLI.
func (a *RiskAssessor) UseDeterministicTraceIDs() {
	a.traceID = func(assessmentID string) string {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(assessmentID)).String()
	}
}

// Assess runs the full pipeline for one record: parse, normalize, fan out
// over every profile's ensemble, aggregate, estimate confidence, map
// recommendations, serialize. Returns a typed failure with no partial
// assessment on any error.
func (a *RiskAssessor) Assess(ctx context.Context, raw domain.RawRecord) (domain.OutputRecord, error) {
	start := time.Now()

	window, err := domain.ParseRawRecord(raw)
	if err != nil {
		return domain.OutputRecord{}, err
	}

	assessment, err := a.assessWindow(ctx, window)
	if err != nil {
		return domain.OutputRecord{}, err
	}

	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	return serializeAssessment(assessment)
}

// AssessWindow runs the pipeline on an already parsed window. Used by the
// offline CLI, which decodes its own fixtures.
func (a *RiskAssessor) AssessWindow(ctx context.Context, window domain.ObservationWindow) (domain.Assessment, error) {
	return a.assessWindow(ctx, window)
}

func (a *RiskAssessor) assessWindow(ctx context.Context, window domain.ObservationWindow) (domain.Assessment, error) {
	fv, err := domain.NormalizeFeatures(window, a.policy)
	if err != nil {
		return domain.Assessment{}, err
	}

	// One consistent suite snapshot for the whole request, even if a
	// model swap lands mid-flight.
	suite := a.registry.Snapshot()

	scores := make(map[string]domain.RiskScore, len(suite.Profiles()))
	versions := make(map[string]string)
	var overall domain.RiskScore
	var dominant string

	for _, profile := range suite.Profiles() {
		pred, err := profile.Predict(ctx, fv)
		if err != nil {
			var exhausted *domain.EnsembleExhaustedError
			if errors.As(err, &exhausted) {
				a.metrics.EnsembleExhausted.Inc()
			}
			return domain.Assessment{}, err
		}

		for _, failure := range pred.Failures {
			a.logger.Warn("variant inference failed, excluded from aggregation",
				"profile", profile.Name(),
				"variant", failure.Name,
				"location", window.Location.ID,
				"error", failure.Err,
			)
			a.metrics.VariantFailures.WithLabelValues(profile.Name(), failure.Name).Inc()
		}

		score, spread, err := ensemble.Aggregate(pred, profile.Mode())
		if err != nil {
			return domain.Assessment{}, err
		}
		confidence := ensemble.EstimateConfidence(pred, a.confidenceCeiling)

		rs := domain.RiskScore{
			Score:      score,
			Confidence: confidence,
			Spread:     spread,
			Band:       a.bands.BandFor(score).Name,
		}
		scores[profile.Name()] = rs

		a.metrics.RiskScore.WithLabelValues(profile.Name()).Observe(score)
		a.metrics.Confidence.WithLabelValues(profile.Name()).Observe(confidence)

		for _, r := range pred.Results {
			versions[r.Info.Name] = r.Info.Version
		}

		// The most hazardous profile drives the overall assessment.
		if dominant == "" || rs.Score > overall.Score {
			overall = rs
			dominant = profile.Name()
		}
	}

	windowStart, windowEnd := window.Span()
	id := domain.AssessmentID(window.Location.ID, windowEnd, overall.Score)

	return domain.Assessment{
		ID:              id,
		TraceID:         a.traceID(id),
		Location:        window.Location,
		Scores:          scores,
		Overall:         overall,
		DominantProfile: dominant,
		Recommendation:  domain.Recommend(overall, a.bands, a.confidenceFloor),
		VariantVersions: versions,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		ProcessedAt:     domain.Now(),
	}, nil
}

// serializeAssessment marshals an assessment into an output record.
func serializeAssessment(assessment domain.Assessment) (domain.OutputRecord, error) {
	data, err := json.Marshal(assessment)
	if err != nil {
		return domain.OutputRecord{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return domain.OutputRecord{
		Key:   []byte(assessment.ID),
		Value: data,
		Headers: map[string]string{
			"severity_band": assessment.Overall.Band,
			"processed_at":  assessment.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
