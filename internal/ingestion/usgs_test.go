package ingestion

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/hazardwatch/internal/models"
)

const usgsFeed = `{
	"features": [
		{
			"id": "us7000abcd",
			"properties": {"mag": 6.3, "place": "120 km W of Tofino, Canada", "time": 1772366400000, "title": "M 6.3 - 120 km W of Tofino, Canada"},
			"geometry": {"coordinates": [-126.8, 49.1, 10.5]}
		},
		{
			"id": "us7000nomag",
			"properties": {"place": "somewhere", "time": 1772366400000, "title": "no magnitude"},
			"geometry": {"coordinates": [-120.0, 45.0, 8.0]}
		},
		{
			"id": "us7000badgeo",
			"properties": {"mag": 5.0, "time": 1772366400000, "title": "bad geometry"},
			"geometry": {"coordinates": [-120.0]}
		},
		{
			"id": "",
			"properties": {"mag": 5.0, "time": 1772366400000, "title": "missing id"},
			"geometry": {"coordinates": [-120.0, 45.0, 8.0]}
		},
		{
			"id": "us7000small",
			"properties": {"mag": 3.1, "place": "minor", "time": 1772366400000, "title": "M 3.1 - minor"},
			"geometry": {"coordinates": [10.0, 20.0, 5.0]}
		}
	]
}`

func TestUSGSAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(usgsFeed))
	}))
	defer srv.Close()

	a := NewUSGSAdapter(srv.URL, srv.Client(), slog.Default())
	obs, err := a.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 2, "invalid records are dropped, not errors")

	first := obs[0]
	assert.Equal(t, models.SourceSeismic, first.Source)
	assert.Equal(t, "us7000abcd", first.SourceEventID)
	assert.Equal(t, "earthquake", first.HazardType)
	assert.Equal(t, 49.1, first.Latitude)
	assert.Equal(t, -126.8, first.Longitude)
	require.NotNil(t, first.Magnitude)
	assert.Equal(t, 6.3, *first.Magnitude)
	require.NotNil(t, first.DepthKm)
	assert.Equal(t, 10.5, *first.DepthKm)
	require.NotNil(t, first.Severity)
	assert.Equal(t, 4, *first.Severity)
	assert.True(t, first.TrustFlag)
	assert.Equal(t, models.StatusAPIVerified, first.Status)
	assert.Equal(t, time.UnixMilli(1772366400000).UTC(), first.Timestamp)
	assert.Contains(t, first.Description, "Depth: 10.50km")

	small := obs[1]
	require.NotNil(t, small.Severity)
	assert.Equal(t, 1, *small.Severity, "magnitude below 4 classifies as severity 1")
}

func TestUSGSAdapter_Fetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewUSGSAdapter(srv.URL, srv.Client(), slog.Default())
	obs, err := a.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, obs)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "usgs", fatal.Adapter)
}

func TestSeismicSeverity(t *testing.T) {
	tests := []struct {
		mag  float64
		want int
	}{
		{7.5, 5},
		{7.0, 5},
		{6.2, 4},
		{5.5, 3},
		{4.0, 2},
		{3.9, 1},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, seismicSeverity(tt.mag), "mag %.1f", tt.mag)
	}
}
