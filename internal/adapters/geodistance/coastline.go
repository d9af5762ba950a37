package geodistance

import (
	"encoding/json"
	"fmt"
	"os"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Окно отсечения: ограничивающий прямоугольник Польши с буфером 0.25°.
// Исходный датасет покрывает всю Европу, остальное только замедляет поиск.
const (
	clipBuffer   = 0.25
	polandMinLon = 14.12 - clipBuffer
	polandMaxLon = 24.15 + clipBuffer
	polandMinLat = 49.00 - clipBuffer
	polandMaxLat = 54.84 + clipBuffer
)

func loadCoastlineSegments(path string) ([]segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	geometries, err := decodeGeometries(data)
	if err != nil {
		return nil, err
	}

	var segments []segment
	for _, g := range geometries {
		segments = append(segments, geometrySegments(g)...)
	}
	return clipSegments(segments), nil
}

func decodeGeometries(data []byte) ([]geom.T, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err == nil && len(fc.Features) > 0 {
		geometries := make([]geom.T, 0, len(fc.Features))
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geometries = append(geometries, f.Geometry)
			}
		}
		return geometries, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
	}
	return []geom.T{g}, nil
}

// geometrySegments разворачивает геометрию в плоский список отрезков.
func geometrySegments(g geom.T) []segment {
	var segments []segment

	switch geometry := g.(type) {
	case *geom.LineString:
		segments = coordsToSegments(geometry.Coords())
	case *geom.MultiLineString:
		for i := 0; i < geometry.NumLineStrings(); i++ {
			segments = append(segments, coordsToSegments(geometry.LineString(i).Coords())...)
		}
	case *geom.Polygon:
		for i := 0; i < geometry.NumLinearRings(); i++ {
			segments = append(segments, coordsToSegments(geometry.LinearRing(i).Coords())...)
		}
	case *geom.MultiPolygon:
		for i := 0; i < geometry.NumPolygons(); i++ {
			segments = append(segments, geometrySegments(geometry.Polygon(i))...)
		}
	case *geom.GeometryCollection:
		for _, member := range geometry.Geoms() {
			segments = append(segments, geometrySegments(member)...)
		}
	}

	return segments
}

func coordsToSegments(coords []geom.Coord) []segment {
	if len(coords) < 2 {
		return nil
	}
	segments := make([]segment, 0, len(coords)-1)
	for i := 1; i < len(coords); i++ {
		segments = append(segments, segment{
			a: coord{lat: coords[i-1].Y(), lon: coords[i-1].X()},
			b: coord{lat: coords[i].Y(), lon: coords[i].X()},
		})
	}
	return segments
}

func clipSegments(segments []segment) []segment {
	clipped := make([]segment, 0, len(segments))
	for _, s := range segments {
		if inClipWindow(s.a) || inClipWindow(s.b) {
			clipped = append(clipped, s)
		}
	}
	return clipped
}

func inClipWindow(c coord) bool {
	return c.lon >= polandMinLon && c.lon <= polandMaxLon &&
		c.lat >= polandMinLat && c.lat <= polandMaxLat
}
