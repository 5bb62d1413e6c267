package models

import "time"

type Source string

const (
	SourceSeismic  Source = "SEISMIC"
	SourceWildfire Source = "WILDFIRE"
	SourceWeather  Source = "WEATHER"
	SourceUser     Source = "USER"
)

// Observation is one ingested hazard report from any source. Immutable after
// insert except for Status and the EventID back reference.
type Observation struct {
	ID            int64
	Source        Source
	SourceEventID string // "" for sources without a stable identifier
	HazardType    string
	Title         string
	Description   string
	Latitude      float64
	Longitude     float64
	DepthKm       *float64 // seismic only
	Magnitude     *float64 // seismic only
	Severity      *int     // 1-5
	Timestamp     time.Time
	TrustFlag     bool
	Status        Status
	EventID       *int64
	CreatedAt     time.Time
}

// HasKey reports whether the observation carries an idempotency key.
// (source, source_event_id) is unique in storage when the key is non-empty.
func (o *Observation) HasKey() bool {
	return o.SourceEventID != ""
}

// DedupeKey is the intra-batch identity: source plus source event id.
func (o *Observation) DedupeKey() string {
	return string(o.Source) + "|" + o.SourceEventID
}

// ValidCoordinates reports whether lat/lon fall in the WGS84 value range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
