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

const nwsFeed = `{
	"features": [
		{
			"id": "urn:oid:2.49.0.1.840.0.abc123",
			"properties": {
				"event": "Tornado Warning",
				"severity": "Extreme",
				"headline": "Tornado Warning issued for Smith County",
				"description": "A confirmed tornado was observed.",
				"sent": "2026-02-28T14:05:00-06:00"
			},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-97.0, 35.0], [-96.0, 35.0], [-96.0, 36.0], [-97.0, 36.0], [-97.0, 35.0]]]
			}
		},
		{
			"id": "urn:oid:2.49.0.1.840.0.def456",
			"properties": {
				"event": "Flood Advisory",
				"severity": "Minor",
				"sent": "2026-02-28T15:00:00Z"
			},
			"geometry": {
				"type": "Point",
				"coordinates": [-120.5, 45.25]
			}
		},
		{
			"id": "urn:oid:2.49.0.1.840.0.zonesonly",
			"properties": {
				"event": "Winter Weather Advisory",
				"severity": "Moderate",
				"sent": "2026-02-28T15:00:00Z"
			},
			"geometry": null
		},
		{
			"id": "",
			"properties": {
				"event": "Heat Advisory",
				"severity": "Moderate",
				"sent": "2026-02-28T15:00:00Z"
			},
			"geometry": {"type": "Point", "coordinates": [-100.0, 30.0]}
		},
		{
			"id": "urn:oid:2.49.0.1.840.0.badtime",
			"properties": {
				"event": "High Wind Warning",
				"severity": "Severe",
				"sent": "yesterday"
			},
			"geometry": {"type": "Point", "coordinates": [-100.0, 30.0]}
		}
	]
}`

func newNWS(t *testing.T, handler http.HandlerFunc) *NWSAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNWSAdapter(srv.URL, srv.Client(), slog.Default())
}

func TestNWSAdapter_Fetch(t *testing.T) {
	a := newNWS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))
		w.Write([]byte(nwsFeed))
	})

	obs, err := a.Fetch(context.Background())
	require.NoError(t, err)

	// Zone-only, missing-id and bad-timestamp alerts drop.
	require.Len(t, obs, 2)

	tornado := obs[0]
	assert.Equal(t, models.SourceWeather, tornado.Source)
	assert.Equal(t, "urn:oid:2.49.0.1.840.0.abc123", tornado.SourceEventID)
	assert.Equal(t, "tornado_warning", tornado.HazardType)
	assert.Equal(t, "Tornado Warning issued for Smith County", tornado.Title)
	// Centroid of the unit square (35..36, -97..-96).
	assert.InDelta(t, 35.5, tornado.Latitude, 1e-9)
	assert.InDelta(t, -96.5, tornado.Longitude, 1e-9)
	require.NotNil(t, tornado.Severity)
	assert.Equal(t, 5, *tornado.Severity)
	assert.Equal(t, time.Date(2026, 2, 28, 20, 5, 0, 0, time.UTC), tornado.Timestamp)
	assert.True(t, tornado.TrustFlag)
	assert.Equal(t, models.StatusAPIVerified, tornado.Status)

	flood := obs[1]
	assert.Equal(t, "flood_advisory", flood.HazardType)
	assert.Equal(t, "Flood Advisory", flood.Title, "event name fills in for a missing headline")
	assert.InDelta(t, 45.25, flood.Latitude, 1e-9)
	assert.InDelta(t, -120.5, flood.Longitude, 1e-9)
	require.NotNil(t, flood.Severity)
	assert.Equal(t, 2, *flood.Severity)
}

func TestNWSAdapter_BadStatus(t *testing.T) {
	a := newNWS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := a.Fetch(context.Background())
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "nws", fatal.Adapter)
}

func TestNWSAdapter_UnsupportedGeometry(t *testing.T) {
	a := newNWS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"features": [{
			"id": "x1",
			"properties": {"event": "Gale Warning", "severity": "Moderate", "sent": "2026-02-28T15:00:00Z"},
			"geometry": {"type": "MultiPolygon", "coordinates": []}
		}]}`))
	})

	obs, err := a.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestNWSAdapter_EffectiveFallback(t *testing.T) {
	a := newNWS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"features": [{
			"id": "x2",
			"properties": {"event": "Dense Fog Advisory", "severity": "Minor", "effective": "2026-02-28T08:00:00Z"},
			"geometry": {"type": "Point", "coordinates": [-80.0, 25.0]}
		}]}`))
	})

	obs, err := a.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC), obs[0].Timestamp)
}

func TestWeatherSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Extreme", 5},
		{"Severe", 4},
		{"Moderate", 3},
		{"Minor", 2},
		{"Unknown", 1},
		{"", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, weatherSeverity(tc.in), tc.in)
	}
}

func TestHazardTypeFromEvent(t *testing.T) {
	assert.Equal(t, "severe_thunderstorm_warning", hazardTypeFromEvent("Severe Thunderstorm Warning"))
	assert.Equal(t, "tornado_watch", hazardTypeFromEvent("  Tornado Watch  "))
}
