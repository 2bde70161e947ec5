// Command assess scores observation windows from a JSON file without Kafka.
// It runs the same assessor the service runs, so its output matches what the
// pipeline would publish for the same input.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -config configs/risk.yaml \
//	  -input testdata/observations.json \
//	  -out assessments.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/engine"
	"github.com/couchcryptid/climate-risk-engine/internal/ensemble"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/risk.yaml", "path to the risk configuration file")
	inputPath := flag.String("input", "", "JSON file holding an array of observation window records")
	outPath := flag.String("out", "", "output path for assessments; stdout when empty")
	at := flag.String("at", "", "freeze the clock at this RFC3339 instant for reproducible output")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -input")
	}

	if *at != "" {
		frozen, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at instant: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(frozen))
		defer domain.SetClock(nil)
	}

	riskCfg, err := config.LoadRiskConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading risk config: %w", err)
	}
	suite, err := ensemble.BuildSuite(riskCfg)
	if err != nil {
		return fmt.Errorf("building suite: %w", err)
	}

	records, err := readWindows(*inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assessor := engine.NewAssessor(ensemble.NewRegistry(suite), riskCfg, logger, observability.NewMetricsForTesting())
	assessor.UseDeterministicTraceIDs()

	ctx := context.Background()
	assessments := make([]domain.Assessment, 0, len(records))
	for i, rec := range records {
		window, err := domain.ParseWindowRecord(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		a, err := assessor.AssessWindow(ctx, window)
		if err != nil {
			return fmt.Errorf("record %d (location %s): %w", i, window.Location.ID, err)
		}
		assessments = append(assessments, a)
		log.Printf("%s: overall=%.4f band=%s confidence=%.4f dominant=%s",
			a.Location.ID, a.Overall.Score, a.Overall.Band, a.Overall.Confidence, a.DominantProfile)
	}

	return writeAssessments(*outPath, assessments)
}

func readWindows(path string) ([]domain.RawWindowRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.RawWindowRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records in %s", path)
	}
	return records, nil
}

func writeAssessments(path string, assessments []domain.Assessment) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(assessments)
}
