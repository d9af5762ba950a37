package geodistance

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

type coord struct {
	lat float64
	lon float64
}

type segment struct {
	a coord
	b coord
}

// GeoDistanceAdapter реализует GeoDistancePort. Геометрия береговой линии
// загружается один раз на процесс, загрузка дорогая.
type GeoDistanceAdapter struct {
	segments []segment
}

func NewGeoDistanceAdapter(coastlinePath string) (*GeoDistanceAdapter, error) {
	segments, err := loadCoastlineSegments(coastlinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load coastline geometry: %w", err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("coastline geometry %s contains no segments inside the clip window", coastlinePath)
	}
	return &GeoDistanceAdapter{segments: segments}, nil
}

// CoastlineDistance - минимальное геодезическое расстояние (км) от точки до
// береговой линии. Ближайшая точка сегмента ищется планарно в градусах, само
// расстояние считается по эллипсоиду.
func (a *GeoDistanceAdapter) CoastlineDistance(lat, lon float64) (float64, error) {
	if len(a.segments) == 0 {
		return 0, fmt.Errorf("coastline geometry is not loaded")
	}

	p := coord{lat: lat, lon: lon}
	minDistance := math.Inf(1)
	for _, s := range a.segments {
		nearest := nearestOnSegment(p, s)
		if d := distanceKm(p.lat, p.lon, nearest.lat, nearest.lon); d < minDistance {
			minDistance = d
		}
	}
	return minDistance, nil
}

// ReferenceDistances - геодезические расстояния (км) до центров Труймяста.
func (a *GeoDistanceAdapter) ReferenceDistances(lat, lon float64) map[string]float64 {
	distances := make(map[string]float64, len(downtownCoordinates))
	for name, downtown := range downtownCoordinates {
		distances[name] = distanceKm(lat, lon, downtown.lat, downtown.lon)
	}
	return distances
}

// distanceKm решает обратную геодезическую задачу на WGS84.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)
	return meters / 1000
}

// nearestOnSegment проецирует точку на отрезок с ограничением на его концы.
func nearestOnSegment(p coord, s segment) coord {
	dLon := s.b.lon - s.a.lon
	dLat := s.b.lat - s.a.lat
	if dLon == 0 && dLat == 0 {
		return s.a
	}
	t := ((p.lon-s.a.lon)*dLon + (p.lat-s.a.lat)*dLat) / (dLon*dLon + dLat*dLat)
	t = math.Max(0, math.Min(1, t))
	return coord{
		lat: s.a.lat + t*dLat,
		lon: s.a.lon + t*dLon,
	}
}
