package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mr1hm/hazardwatch/internal/models"
)

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}
type usgsProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  *int64   `json:"time"` // unix millis
	Title string   `json:"title"`
}
type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

// USGSAdapter ingests the USGS earthquake GeoJSON feed.
type USGSAdapter struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewUSGSAdapter(url string, client *http.Client, logger *slog.Logger) *USGSAdapter {
	return &USGSAdapter{
		url:    url,
		client: client,
		logger: logger,
	}
}

func (a *USGSAdapter) Name() string { return "usgs" }

func (a *USGSAdapter) Fetch(ctx context.Context) ([]*models.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fatalf(a.Name(), "error creating request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fatalf(a.Name(), "unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data usgsResponse
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

// normalize validates one feature and builds its observation. A record
// failing validation is dropped, not an error.
func (a *USGSAdapter) normalize(f usgsFeature) (*models.Observation, bool) {
	if f.ID == "" {
		a.logger.Warn("skipping USGS record: missing id")
		return nil, false
	}
	if len(f.Geometry.Coordinates) < 3 {
		a.logger.Warn("skipping USGS record: missing or invalid geometry", "id", f.ID)
		return nil, false
	}
	if f.Properties.Mag == nil {
		a.logger.Warn("skipping USGS record: missing magnitude", "id", f.ID)
		return nil, false
	}
	if f.Properties.Time == nil {
		a.logger.Warn("skipping USGS record: missing time", "id", f.ID)
		return nil, false
	}

	lon := f.Geometry.Coordinates[0]
	lat := f.Geometry.Coordinates[1]
	depth := f.Geometry.Coordinates[2]
	if !models.ValidCoordinates(lat, lon) {
		a.logger.Warn("skipping USGS record: coordinates out of range", "id", f.ID, "lat", lat, "lon", lon)
		return nil, false
	}

	mag := *f.Properties.Mag
	severity := seismicSeverity(mag)

	title := f.Properties.Title
	if title == "" {
		title = fmt.Sprintf("Magnitude %.1f Earthquake", mag)
	}
	place := f.Properties.Place
	if place == "" {
		place = "N/A"
	}

	return &models.Observation{
		Source:        models.SourceSeismic,
		SourceEventID: f.ID,
		HazardType:    "earthquake",
		Title:         title,
		Description:   fmt.Sprintf("Location: %s. Depth: %.2fkm", place, depth),
		Latitude:      lat,
		Longitude:     lon,
		DepthKm:       &depth,
		Magnitude:     &mag,
		Severity:      &severity,
		Timestamp:     time.UnixMilli(*f.Properties.Time).UTC(),
		TrustFlag:     true,
		Status:        models.StatusAPIVerified,
	}, true
}

func seismicSeverity(mag float64) int {
	switch {
	case mag >= 7:
		return 5
	case mag >= 6:
		return 4
	case mag >= 5:
		return 3
	case mag >= 4:
		return 2
	default:
		return 1
	}
}
