package models

import "time"

type EventStatus string

const (
	EventStatusActive   EventStatus = "active"
	EventStatusResolved EventStatus = "resolved"
)

// DisasterEvent is a persisted cluster of observations believed to represent
// the same real-world occurrence. Coordinates are set from the first linked
// observation and never recomputed.
type DisasterEvent struct {
	ID          int64
	Title       string
	HazardType  string
	Status      EventStatus
	StartTime   time.Time
	LastUpdated time.Time
	Latitude    float64
	Longitude   float64
	Severity    *int // running max across linked observations
	ReportCount int
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (e *DisasterEvent) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
	}
}
