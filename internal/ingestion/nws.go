package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mr1hm/hazardwatch/internal/geo"
	"github.com/mr1hm/hazardwatch/internal/models"
)

type nwsResponse struct {
	Features []nwsFeature `json:"features"`
}

type nwsFeature struct {
	ID         string        `json:"id"`
	Properties nwsProperties `json:"properties"`
	Geometry   *nwsGeometry  `json:"geometry"`
}

type nwsProperties struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Sent        string `json:"sent"`
	Effective   string `json:"effective"`
}

type nwsGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NWSAdapter ingests active weather alerts from the National Weather Service.
// Alerts are region-scoped: a polygon geometry is reduced to its area-weighted
// centroid as the alert's representative point.
type NWSAdapter struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewNWSAdapter(url string, client *http.Client, logger *slog.Logger) *NWSAdapter {
	return &NWSAdapter{
		url:    url,
		client: client,
		logger: logger,
	}
}

func (a *NWSAdapter) Name() string { return "nws" }

func (a *NWSAdapter) Fetch(ctx context.Context) ([]*models.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fatalf(a.Name(), "error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fatalf(a.Name(), "unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data nwsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	observations := make([]*models.Observation, 0, len(data.Features))
	for _, f := range data.Features {
		o, ok := a.normalize(f)
		if !ok {
			continue
		}
		observations = append(observations, o)
	}

	return observations, nil
}

func (a *NWSAdapter) normalize(f nwsFeature) (*models.Observation, bool) {
	if f.ID == "" {
		a.logger.Warn("skipping NWS alert: missing id")
		return nil, false
	}
	if f.Properties.Event == "" {
		a.logger.Warn("skipping NWS alert: missing event", "id", f.ID)
		return nil, false
	}

	point, ok := a.representativePoint(f)
	if !ok {
		return nil, false
	}
	if !models.ValidCoordinates(point.Latitude, point.Longitude) {
		a.logger.Warn("skipping NWS alert: coordinates out of range", "id", f.ID)
		return nil, false
	}

	tsStr := f.Properties.Sent
	if tsStr == "" {
		tsStr = f.Properties.Effective
	}
	timestamp, err := time.Parse(time.RFC3339, tsStr)
	if err != nil {
		a.logger.Warn("skipping NWS alert: invalid timestamp", "id", f.ID, "value", tsStr)
		return nil, false
	}

	severity := weatherSeverity(f.Properties.Severity)

	title := f.Properties.Headline
	if title == "" {
		title = f.Properties.Event
	}

	return &models.Observation{
		Source:        models.SourceWeather,
		SourceEventID: f.ID,
		HazardType:    hazardTypeFromEvent(f.Properties.Event),
		Title:         title,
		Description:   f.Properties.Description,
		Latitude:      point.Latitude,
		Longitude:     point.Longitude,
		Severity:      &severity,
		Timestamp:     timestamp.UTC(),
		TrustFlag:     true,
		Status:        models.StatusAPIVerified,
	}, true
}

// representativePoint reduces the alert geometry to a single point. Alerts
// without geometry (zone references only) are dropped.
func (a *NWSAdapter) representativePoint(f nwsFeature) (geo.Point, bool) {
	if f.Geometry == nil {
		a.logger.Warn("skipping NWS alert: no geometry", "id", f.ID)
		return geo.Point{}, false
	}

	switch f.Geometry.Type {
	case "Point":
		var coords []float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
			a.logger.Warn("skipping NWS alert: invalid point geometry", "id", f.ID)
			return geo.Point{}, false
		}
		return geo.Point{Latitude: coords[1], Longitude: coords[0]}, true
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &rings); err != nil || len(rings) == 0 || len(rings[0]) == 0 {
			a.logger.Warn("skipping NWS alert: invalid polygon geometry", "id", f.ID)
			return geo.Point{}, false
		}
		ring := make([]geo.Point, 0, len(rings[0]))
		for _, c := range rings[0] {
			if len(c) < 2 {
				continue
			}
			ring = append(ring, geo.Point{Latitude: c[1], Longitude: c[0]})
		}
		centroid, ok := geo.Centroid(ring)
		if !ok {
			a.logger.Warn("skipping NWS alert: empty polygon ring", "id", f.ID)
			return geo.Point{}, false
		}
		return centroid, true
	default:
		a.logger.Warn("skipping NWS alert: unsupported geometry type", "id", f.ID, "type", f.Geometry.Type)
		return geo.Point{}, false
	}
}

func weatherSeverity(s string) int {
	switch strings.ToLower(s) {
	case "extreme":
		return 5
	case "severe":
		return 4
	case "moderate":
		return 3
	case "minor":
		return 2
	default:
		return 1
	}
}

func hazardTypeFromEvent(event string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(event), " ", "_"))
}
