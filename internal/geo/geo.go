// Package geo holds the small amount of planar geometry the ingestion and
// aggregation paths need. Coordinates are treated as plain degrees; the
// engine trades geodesic accuracy for predictability.
package geo

import "math"

type Point struct {
	Latitude  float64
	Longitude float64
}

// Centroid returns the area-weighted centroid of a polygon ring via the
// shoelace formula. A naive vertex average drifts toward densely sampled
// edges, which matters for the long thin polygons weather alerts produce.
// Degenerate (zero-area) rings fall back to the vertex mean.
func Centroid(ring []Point) (Point, bool) {
	if len(ring) == 0 {
		return Point{}, false
	}
	if len(ring) < 3 {
		return vertexMean(ring), true
	}

	// Drop an explicit closing vertex so it is not double counted.
	pts := ring
	if pts[0] == pts[len(pts)-1] && len(pts) > 3 {
		pts = pts[:len(pts)-1]
	}

	var area, cx, cy float64
	for i := range pts {
		j := (i + 1) % len(pts)
		cross := pts[i].Longitude*pts[j].Latitude - pts[j].Longitude*pts[i].Latitude
		area += cross
		cx += (pts[i].Longitude + pts[j].Longitude) * cross
		cy += (pts[i].Latitude + pts[j].Latitude) * cross
	}
	area /= 2

	if math.Abs(area) < 1e-12 {
		return vertexMean(pts), true
	}

	return Point{
		Latitude:  cy / (6 * area),
		Longitude: cx / (6 * area),
	}, true
}

func vertexMean(pts []Point) Point {
	var lat, lon float64
	for _, p := range pts {
		lat += p.Latitude
		lon += p.Longitude
	}
	n := float64(len(pts))
	return Point{Latitude: lat / n, Longitude: lon / n}
}

// Box is an axis-aligned bounding box in degrees.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBox returns the box of half-width d degrees around (lat, lon).
// Latitude and longitude tolerances are independent; no clamping or
// antimeridian wrapping is applied.
func BoundingBox(lat, lon, d float64) Box {
	return Box{
		MinLat: lat - d,
		MaxLat: lat + d,
		MinLon: lon - d,
		MaxLon: lon + d,
	}
}
