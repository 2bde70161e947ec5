// Command genmock generates deterministic synthetic observation-window
// fixtures for the test suites and for cmd/assess. It uses the actual
// domain package so every generated record parses cleanly.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/observations.json -locations 5 -hours 24
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

var baseTime = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

// siteDef seeds one synthetic station with a climate baseline. Values are
// offsets applied to the shared diurnal curves so each site has a distinct
// but reproducible signature.
type siteDef struct {
	id        string
	lat, lon  float64
	elevation float64
	tempBase  float64
	rainBase  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "testdata/observations.json", "output path for the fixture")
	locations := flag.Int("locations", 5, "number of synthetic stations")
	hours := flag.Int("hours", 24, "hourly observations per window")
	flag.Parse()

	if *locations < 1 || *hours < 1 {
		return fmt.Errorf("locations and hours must both be positive")
	}

	sites := makeSites(*locations)
	records := make([]domain.RawWindowRecord, len(sites))
	for i, site := range sites {
		records[i] = makeWindow(site, *hours)
		if _, err := domain.ParseWindowRecord(records[i]); err != nil {
			return fmt.Errorf("site %s: generated record does not parse: %w", site.id, err)
		}
	}

	if err := writeJSON(*out, records); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d windows (%d observations each): %s", len(records), *hours, *out)
	return nil
}

func makeSites(n int) []siteDef {
	sites := make([]siteDef, n)
	for i := range sites {
		k := float64(i)
		sites[i] = siteDef{
			id:        fmt.Sprintf("station-%03d", i+1),
			lat:       30 + 5*math.Mod(k, 11),
			lon:       -100 + 7*math.Mod(k, 38),
			elevation: 50 + 120*k,
			tempBase:  12 + 4*k,
			rainBase:  0.5 * k,
		}
	}
	return sites
}

func makeWindow(site siteDef, hours int) domain.RawWindowRecord {
	obs := make([]domain.RawObservationRecord, hours)
	for h := 0; h < hours; h++ {
		phase := 2 * math.Pi * float64(h) / 24
		temp := site.tempBase + 8*math.Sin(phase-math.Pi/2)
		humidity := 65 - 15*math.Sin(phase-math.Pi/2)
		pressure := 1012 + 3*math.Cos(phase)
		wind := 3 + 2*math.Sin(phase)
		gust := wind * 1.4
		precip := site.rainBase * (1 + math.Sin(phase))
		cloud := 40 + 30*math.Sin(phase)
		visibility := 12000 - 4000*math.Sin(phase)
		uv := math.Max(0, 6*math.Sin(phase-math.Pi/2))

		obs[h] = domain.RawObservationRecord{
			Timestamp:     baseTime.Add(time.Duration(h) * time.Hour),
			Temperature:   ptr(round1(temp)),
			Humidity:      ptr(round1(humidity)),
			Pressure:      ptr(round1(pressure)),
			WindSpeed:     ptr(round1(wind)),
			WindGust:      ptr(round1(gust)),
			Precipitation: ptr(round1(precip)),
			CloudCover:    ptr(round1(cloud)),
			Visibility:    ptr(round1(visibility)),
			UVIndex:       ptr(round1(uv)),
		}
	}
	return domain.RawWindowRecord{
		Location: domain.LocationRecord{
			ID:        site.id,
			Lat:       site.lat,
			Lon:       site.lon,
			Elevation: site.elevation,
		},
		Observations: obs,
	}
}

func ptr(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
