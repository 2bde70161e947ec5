package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validWindowRecord() RawWindowRecord {
	base := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	return RawWindowRecord{
		Location: LocationRecord{ID: "station-001", Lat: 29.76, Lon: -95.36, Elevation: 12},
		Observations: []RawObservationRecord{
			{
				Timestamp:     base,
				Temperature:   ptr(21.5),
				Humidity:      ptr(70),
				Pressure:      ptr(1008),
				WindSpeed:     ptr(5),
				Precipitation: ptr(2),
			},
			{
				Timestamp:     base.Add(time.Hour),
				Temperature:   ptr(22.1),
				Humidity:      ptr(72),
				Pressure:      ptr(1006),
				WindSpeed:     ptr(6.5),
				Precipitation: ptr(8),
			},
		},
	}
}

func TestParseRawRecord(t *testing.T) {
	payload, err := json.Marshal(validWindowRecord())
	require.NoError(t, err)

	window, err := ParseRawRecord(RawRecord{Value: payload})
	require.NoError(t, err)

	assert.Equal(t, "station-001", window.Location.ID)
	assert.Len(t, window.Observations, 2)
	assert.Equal(t, 22.1, *window.Latest().Temperature)
}

func TestParseRawRecordPreservesAllFields(t *testing.T) {
	base := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	rec := validWindowRecord()
	rec.Observations[1].WindGust = ptr(11.2)
	rec.Observations[1].CloudCover = ptr(85)
	rec.Observations[1].Visibility = ptr(4000)
	rec.Observations[1].UVIndex = ptr(2)

	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	window, err := ParseRawRecord(RawRecord{Value: payload})
	require.NoError(t, err)

	want := ObservationWindow{
		Location: LocationRecord{ID: "station-001", Lat: 29.76, Lon: -95.36, Elevation: 12},
		Observations: []Observation{
			{
				Timestamp:     base,
				Temperature:   ptr(21.5),
				Humidity:      ptr(70),
				Pressure:      ptr(1008),
				WindSpeed:     ptr(5),
				Precipitation: ptr(2),
			},
			{
				Timestamp:     base.Add(time.Hour),
				Temperature:   ptr(22.1),
				Humidity:      ptr(72),
				Pressure:      ptr(1006),
				WindSpeed:     ptr(6.5),
				WindGust:      ptr(11.2),
				Precipitation: ptr(8),
				CloudCover:    ptr(85),
				Visibility:    ptr(4000),
				UVIndex:       ptr(2),
			},
		},
	}
	if diff := cmp.Diff(want, window); diff != "" {
		t.Errorf("parsed window mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRawRecordInvalidJSON(t *testing.T) {
	_, err := ParseRawRecord(RawRecord{Value: []byte("not-json{{{")})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "parse raw record")
}

func TestParseWindowRecordValidation(t *testing.T) {
	base := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mutate    func(*RawWindowRecord)
		wantField string
	}{
		{
			name:      "missing location id",
			mutate:    func(r *RawWindowRecord) { r.Location.ID = "" },
			wantField: "location.id",
		},
		{
			name:      "latitude out of range",
			mutate:    func(r *RawWindowRecord) { r.Location.Lat = 91 },
			wantField: "location.lat",
		},
		{
			name:      "longitude out of range",
			mutate:    func(r *RawWindowRecord) { r.Location.Lon = -181 },
			wantField: "location.lon",
		},
		{
			name:      "no observations",
			mutate:    func(r *RawWindowRecord) { r.Observations = nil },
			wantField: "observations",
		},
		{
			name: "zero timestamp",
			mutate: func(r *RawWindowRecord) {
				r.Observations[1].Timestamp = time.Time{}
			},
			wantField: "observations[1].timestamp",
		},
		{
			name: "out of order timestamps",
			mutate: func(r *RawWindowRecord) {
				r.Observations[1].Timestamp = base.Add(-time.Hour)
			},
			wantField: "observations[1].timestamp",
		},
		{
			name: "temperature below physical range",
			mutate: func(r *RawWindowRecord) {
				r.Observations[0].Temperature = ptr(-120)
			},
			wantField: "observations[0].temperature_c",
		},
		{
			name: "pressure above physical range",
			mutate: func(r *RawWindowRecord) {
				r.Observations[0].Pressure = ptr(1100)
			},
			wantField: "observations[0].pressure_hpa",
		},
		{
			name: "negative precipitation",
			mutate: func(r *RawWindowRecord) {
				r.Observations[0].Precipitation = ptr(-1)
			},
			wantField: "observations[0].precipitation_mm",
		},
		{
			name: "humidity above 100",
			mutate: func(r *RawWindowRecord) {
				r.Observations[1].Humidity = ptr(101)
			},
			wantField: "observations[1].humidity_pct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validWindowRecord()
			tt.mutate(&rec)

			_, err := ParseWindowRecord(rec)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParseWindowRecordMissingValuesAllowed(t *testing.T) {
	rec := validWindowRecord()
	rec.Observations[0].Temperature = nil
	rec.Observations[1].Humidity = nil

	window, err := ParseWindowRecord(rec)
	require.NoError(t, err)

	assert.Nil(t, window.Observations[0].Temperature)
	assert.Nil(t, window.Latest().Humidity)
}

func TestParseWindowRecordNormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	rec := validWindowRecord()
	rec.Observations = rec.Observations[:1]
	rec.Observations[0].Timestamp = time.Date(2024, time.June, 10, 7, 0, 0, 0, loc)

	window, err := ParseWindowRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, window.Observations[0].Timestamp.Location())
}

func TestWindowSpan(t *testing.T) {
	window, err := ParseWindowRecord(validWindowRecord())
	require.NoError(t, err)

	start, end := window.Span()
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.June, 10, 1, 0, 0, 0, time.UTC), end)
}
