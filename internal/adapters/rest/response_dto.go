package rest

import (
	"time"

	"trojmiasto-monitor/internal/core/domain"
)

// Структура для ответа API
type ListingResponse struct {
	URL              string   `json:"url"`
	Title            *string  `json:"title"`
	Price            *float64 `json:"price"`
	PricePerSqrMeter *float64 `json:"pricePerSqrMeter"`
	Rooms            *int     `json:"rooms"`
	Floor            *int     `json:"floor"`
	SquareMeters     *float64 `json:"squareMeters"`
	Year             *int     `json:"year"`
	Address          *string  `json:"address"`
	City             *string  `json:"city"`
	Area             *string  `json:"area"`

	Latitude               *float64 `json:"latitude"`
	Longitude              *float64 `json:"longitude"`
	Geohash                *string  `json:"geohash"`
	CoastlineDistance      *float64 `json:"coastlineDistance"`
	GdanskDowntownDistance *float64 `json:"gdanskDowntownDistance"`
	GdyniaDowntownDistance *float64 `json:"gdyniaDowntownDistance"`
	SopotDowntownDistance  *float64 `json:"sopotDowntownDistance"`

	CreatedTs time.Time `json:"createdTs"`
	ScrapedTs time.Time `json:"scrapedTs"`
}

func toListingResponses(listings []domain.Listing) []ListingResponse {
	response := make([]ListingResponse, len(listings))
	for i, l := range listings {
		response[i] = ListingResponse{
			URL:              l.URL,
			Title:            l.Title,
			Price:            l.Price,
			PricePerSqrMeter: l.PricePerSqrMeter,
			Rooms:            l.Rooms,
			Floor:            l.Floor,
			SquareMeters:     l.SquareMeters,
			Year:             l.Year,
			Address:          l.Address,
			City:             l.City,
			Area:             l.Area,

			Latitude:               l.Latitude,
			Longitude:              l.Longitude,
			Geohash:                l.Geohash,
			CoastlineDistance:      l.CoastlineDistance,
			GdanskDowntownDistance: l.GdanskDowntownDistance,
			GdyniaDowntownDistance: l.GdyniaDowntownDistance,
			SopotDowntownDistance:  l.SopotDowntownDistance,

			CreatedTs: l.CreatedTs,
			ScrapedTs: l.ScrapedTs,
		}
	}
	return response
}
