package port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// ListingQueryPort - read-only выборки для REST API. Всегда по актуальным
// версиям (is_latest = true).
type ListingQueryPort interface {
	AllListings(ctx context.Context) ([]domain.Listing, error)

	// Cities - уникальные непустые города, по алфавиту.
	Cities(ctx context.Context) ([]string, error)

	// MapData - записи, пригодные для карты: есть координаты, цена,
	// площадь и город.
	MapData(ctx context.Context) ([]domain.Listing, error)

	ByCities(ctx context.Context, cities []string) ([]domain.Listing, error)

	// TopExpensive/TopAffordable исключают аренду по ключевым словам в заголовке.
	TopExpensive(ctx context.Context, limit int) ([]domain.Listing, error)
	TopAffordable(ctx context.Context, limit int) ([]domain.Listing, error)
}
