package port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// GeocoderPort - адрес -> координаты и административная область.
// Реализация обязана кешировать результат по точной строке адреса на время
// сессии, чтобы внешний сервис вызывался не более одного раза на адрес.
type GeocoderPort interface {
	Resolve(ctx context.Context, address string) (*domain.GeoLocation, error)
}

// GeoDistancePort - геодезические расстояния (км, WGS84) от точки.
type GeoDistancePort interface {
	// CoastlineDistance - минимальное расстояние до береговой линии.
	CoastlineDistance(lat, lon float64) (float64, error)

	// ReferenceDistances - расстояния до именованных опорных точек.
	ReferenceDistances(lat, lon float64) map[string]float64
}
