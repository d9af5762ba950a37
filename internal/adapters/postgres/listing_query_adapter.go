package postgres

import (
	"context"
	"fmt"

	"trojmiasto-monitor/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rentalTitlePattern отсекает аренду по ключевым словам в заголовке
// (используется только в top-выборках, как в дашборде).
const rentalTitlePattern = `najem|wynajem|wynajmę|wynajme`

const listingColumns = `
	url, title, price, price_per_sqr_meter, rooms, floor, square_meters, year,
	address, city, area,
	coastline_distance, gdansk_downtown_distance, gdynia_downtown_distance, sopot_downtown_distance,
	latitude, longitude, geohash,
	created_ts, scraped_ts, is_latest`

// ListingQueryAdapter реализует read-only выборки для REST API.
type ListingQueryAdapter struct {
	pool *pgxpool.Pool
}

func NewListingQueryAdapter(pool *pgxpool.Pool) (*ListingQueryAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingQueryAdapter{pool: pool}, nil
}

func (a *ListingQueryAdapter) AllListings(ctx context.Context) ([]domain.Listing, error) {
	sql := `SELECT ` + listingColumns + ` FROM scraped_items WHERE is_latest`
	return a.queryListings(ctx, sql)
}

func (a *ListingQueryAdapter) Cities(ctx context.Context) ([]string, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT DISTINCT city FROM scraped_items WHERE is_latest AND city IS NOT NULL ORDER BY city ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func (a *ListingQueryAdapter) MapData(ctx context.Context) ([]domain.Listing, error) {
	sql := `SELECT ` + listingColumns + `
		 FROM scraped_items
		WHERE is_latest
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND price IS NOT NULL AND square_meters IS NOT NULL AND city IS NOT NULL`
	return a.queryListings(ctx, sql)
}

func (a *ListingQueryAdapter) ByCities(ctx context.Context, cities []string) ([]domain.Listing, error) {
	if len(cities) == 0 {
		return []domain.Listing{}, nil
	}
	sql := `SELECT ` + listingColumns + `
		 FROM scraped_items
		WHERE is_latest
		  AND city = ANY($1)
		  AND price IS NOT NULL AND square_meters IS NOT NULL`
	return a.queryListings(ctx, sql, cities)
}

func (a *ListingQueryAdapter) TopExpensive(ctx context.Context, limit int) ([]domain.Listing, error) {
	return a.topByPrice(ctx, limit, "DESC")
}

func (a *ListingQueryAdapter) TopAffordable(ctx context.Context, limit int) ([]domain.Listing, error) {
	return a.topByPrice(ctx, limit, "ASC")
}

func (a *ListingQueryAdapter) topByPrice(ctx context.Context, limit int, order string) ([]domain.Listing, error) {
	sql := `SELECT ` + listingColumns + `
		 FROM scraped_items
		WHERE is_latest
		  AND title !~* $1
		  AND price IS NOT NULL AND city IS NOT NULL
		ORDER BY price ` + order + `
		LIMIT $2`
	return a.queryListings(ctx, sql, rentalTitlePattern, limit)
}

func (a *ListingQueryAdapter) queryListings(ctx context.Context, sql string, args ...any) ([]domain.Listing, error) {
	rows, err := a.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(
		&l.URL, &l.Title, &l.Price, &l.PricePerSqrMeter, &l.Rooms, &l.Floor, &l.SquareMeters, &l.Year,
		&l.Address, &l.City, &l.Area,
		&l.CoastlineDistance, &l.GdanskDowntownDistance, &l.GdyniaDowntownDistance, &l.SopotDowntownDistance,
		&l.Latitude, &l.Longitude, &l.Geohash,
		&l.CreatedTs, &l.ScrapedTs, &l.IsLatest,
	)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("failed to scan listing row: %w", err)
	}
	return l, nil
}
