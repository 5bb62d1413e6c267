package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/hazardwatch/internal/models"
)

// firmsColumns maps internal field names to the CSV header names FIRMS uses
// for the VIIRS near-real-time product.
var firmsColumns = map[string]string{
	"lat":    "latitude",
	"lon":    "longitude",
	"date":   "acq_date",
	"time":   "acq_time",
	"conf":   "confidence",
	"bright": "bright_ti5",
}

// FIRMSAdapter ingests NASA FIRMS satellite hotspot detections. FIRMS has no
// stable per-detection identifier, so the idempotency key is synthesized from
// rounded coordinates, acquisition date/time and the instrument. Coordinate
// rounding to 4 decimals (~11 m) can collide distinct nearby detections; this
// is an accepted trade-off.
type FIRMSAdapter struct {
	baseURL    string
	apiKey     string
	instrument string
	minConf    int
	client     *http.Client
	logger     *slog.Logger
}

func NewFIRMSAdapter(baseURL, apiKey, instrument string, minConf int, client *http.Client, logger *slog.Logger) *FIRMSAdapter {
	return &FIRMSAdapter{
		baseURL:    baseURL,
		apiKey:     apiKey,
		instrument: instrument,
		minConf:    minConf,
		client:     client,
		logger:     logger,
	}
}

func (a *FIRMSAdapter) Name() string { return "firms" }

func (a *FIRMSAdapter) Fetch(ctx context.Context) ([]*models.Observation, error) {
	if a.apiKey == "" {
		return nil, fatalf(a.Name(), "FIRMS API key not configured")
	}

	url := fmt.Sprintf("%s/%s/%s/world/1", a.baseURL, a.apiKey, a.instrument)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fatalf(a.Name(), "error creating request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		// Quota exhaustion is not adapter-fatal; the next run retries.
		a.logger.Warn("FIRMS rate limit exceeded, skipping this run")
		return nil, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fatalf(a.Name(), "invalid or unauthorized API key (status %d)", resp.StatusCode)
	case http.StatusBadRequest:
		return nil, fatalf(a.Name(), "bad request, check URL parameters")
	default:
		return nil, fatalf(a.Name(), "unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return a.parseCSV(resp.Body)
}

func (a *FIRMSAdapter) parseCSV(r io.Reader) ([]*models.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	idx := make(map[string]int, len(firmsColumns))
	for key, name := range firmsColumns {
		found := -1
		for i, col := range header {
			if col == name {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fatalf(a.Name(), "CSV header mismatch: missing column %q in %v", name, header)
		}
		idx[key] = found
	}
	maxIdx := 0
	for _, i := range idx {
		if i > maxIdx {
			maxIdx = i
		}
	}

	var observations []*models.Observation
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			a.logger.Warn("skipping malformed FIRMS row", "row", rowNum, "error", err)
			continue
		}
		if len(row) <= maxIdx {
			a.logger.Warn("skipping short FIRMS row", "row", rowNum, "columns", len(row))
			continue
		}

		o, ok := a.normalize(row, idx, rowNum)
		if !ok {
			continue
		}
		observations = append(observations, o)
	}

	return observations, nil
}

func (a *FIRMSAdapter) normalize(row []string, idx map[string]int, rowNum int) (*models.Observation, bool) {
	lat, err := strconv.ParseFloat(row[idx["lat"]], 64)
	if err != nil {
		a.logger.Warn("skipping FIRMS row: invalid latitude", "row", rowNum, "value", row[idx["lat"]])
		return nil, false
	}
	lon, err := strconv.ParseFloat(row[idx["lon"]], 64)
	if err != nil {
		a.logger.Warn("skipping FIRMS row: invalid longitude", "row", rowNum, "value", row[idx["lon"]])
		return nil, false
	}
	if !models.ValidCoordinates(lat, lon) {
		a.logger.Warn("skipping FIRMS row: coordinates out of range", "row", rowNum, "lat", lat, "lon", lon)
		return nil, false
	}

	dateStr := row[idx["date"]]
	timeStr := padTime(row[idx["time"]])
	timestamp, err := time.Parse("2006-01-02 1504", dateStr+" "+timeStr)
	if err != nil {
		a.logger.Warn("skipping FIRMS row: invalid acquisition time", "row", rowNum, "date", dateStr, "time", timeStr)
		return nil, false
	}
	timestamp = timestamp.UTC()

	severity, confLabel, keep := a.classifyConfidence(row[idx["conf"]])
	if !keep {
		// Low-confidence detections are dropped entirely, even when every
		// other field parsed.
		return nil, false
	}

	brightStr := row[idx["bright"]]
	if brightness, err := strconv.ParseFloat(brightStr, 64); err == nil {
		if brightness > 360 && severity < 5 {
			severity = 5
		} else if brightness > 340 && severity < 4 {
			severity = 4
		}
	}

	key := fmt.Sprintf("firms_%s_%.4f_%.4f_%s_%s", a.instrument, lat, lon, dateStr, timeStr)

	return &models.Observation{
		Source:        models.SourceWildfire,
		SourceEventID: key,
		HazardType:    "wildfire",
		Title:         fmt.Sprintf("Wildfire Detection (%s confidence)", confLabel),
		Description:   fmt.Sprintf("Satellite hotspot detected near [%.3f, %.3f]. Brightness: %sK.", lat, lon, brightStr),
		Latitude:      lat,
		Longitude:     lon,
		Severity:      &severity,
		Timestamp:     timestamp,
		TrustFlag:     true,
		Status:        models.StatusAPIVerified,
	}, true
}

// classifyConfidence maps a FIRMS confidence value (numeric percent or one of
// low/nominal/high) to a severity, and applies the confidence floor: numeric
// values below minConf and the text value "low" are excluded outright.
func (a *FIRMSAdapter) classifyConfidence(raw string) (severity int, label string, keep bool) {
	if val, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		if val < a.minConf {
			return 0, "", false
		}
		switch {
		case val >= 90:
			severity = 4
		case val >= 75:
			severity = 3
		case val >= 50:
			severity = 2
		default:
			severity = 1
		}
		return severity, fmt.Sprintf("%d%%", val), true
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "h":
		return 3, "high", true
	case "nominal", "n":
		return 2, "nominal", true
	case "low", "l":
		return 0, "", false
	default:
		return 1, strings.ToLower(strings.TrimSpace(raw)), true
	}
}

// padTime left-pads FIRMS acquisition times ("47" means 00:47) to HHMM.
func padTime(t string) string {
	for len(t) < 4 {
		t = "0" + t
	}
	return t
}
