package usecase

import (
	"context"
	"fmt"
	"time"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/domain"
	"trojmiasto-monitor/internal/core/normalize"
	"trojmiasto-monitor/internal/core/port"
)

// ProcessListingUseCase инкапсулирует обработку одного объявления:
// загрузка деталей, нормализация, гео-обогащение и сверка с хранилищем.
type ProcessListingUseCase struct {
	fetcher   port.TrojmiastoFetcherPort
	store     port.ListingStorePort
	geocoder  port.GeocoderPort
	distances port.GeoDistancePort
	events    port.ListingEventsPort // nil, если публикация событий выключена
}

func NewProcessListingUseCase(
	fetcher port.TrojmiastoFetcherPort,
	store port.ListingStorePort,
	geocoder port.GeocoderPort,
	distances port.GeoDistancePort,
	events port.ListingEventsPort,
) *ProcessListingUseCase {
	return &ProcessListingUseCase{
		fetcher:   fetcher,
		store:     store,
		geocoder:  geocoder,
		distances: distances,
		events:    events,
	}
}

// Execute обрабатывает один URL объявления до финальной сверки с хранилищем.
func (uc *ProcessListingUseCase) Execute(ctx context.Context, adURL string) (domain.ReconcileOutcome, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ProcessListing",
		"url":      adURL,
	})

	raw, err := uc.fetcher.FetchAdDetails(ctx, adURL)
	if err != nil {
		return domain.ReconcileOutcome{URL: adURL}, fmt.Errorf("failed to fetch details for %s: %w", adURL, err)
	}

	listing := normalize.Apply(raw)
	normalize.ReconcilePrice(&listing)

	// Сбой гео-обогащения оставляет производные поля пустыми, объявление
	// все равно сохраняется
	uc.enrichGeo(ctx, &listing, ucLogger)
	if err := ctx.Err(); err != nil {
		return domain.ReconcileOutcome{URL: adURL}, err
	}

	outcome, err := uc.store.Reconcile(ctx, listing)
	if err != nil {
		return outcome, fmt.Errorf("failed to reconcile %s: %w", adURL, err)
	}

	uc.publishChange(ctx, listing, outcome, ucLogger)
	return outcome, nil
}

func (uc *ProcessListingUseCase) enrichGeo(ctx context.Context, listing *domain.Listing, logger port.LoggerPort) {
	if listing.Address == nil {
		return
	}

	location, err := uc.geocoder.Resolve(ctx, *listing.Address)
	if err != nil {
		logger.Warn("Geocoding failed, storing listing without geo fields", port.Fields{"error": err.Error()})
		return
	}

	listing.Latitude = &location.Latitude
	listing.Longitude = &location.Longitude
	if listing.City == nil && location.City != "" {
		city := location.City
		listing.City = &city
	}
	if location.Area != "" {
		area := location.Area
		listing.Area = &area
	}

	if coastline, err := uc.distances.CoastlineDistance(location.Latitude, location.Longitude); err != nil {
		logger.Warn("Coastline distance unavailable", port.Fields{"error": err.Error()})
	} else {
		listing.CoastlineDistance = &coastline
	}

	references := uc.distances.ReferenceDistances(location.Latitude, location.Longitude)
	if d, ok := references["Gdańsk"]; ok {
		v := d
		listing.GdanskDowntownDistance = &v
	}
	if d, ok := references["Gdynia"]; ok {
		v := d
		listing.GdyniaDowntownDistance = &v
	}
	if d, ok := references["Sopot"]; ok {
		v := d
		listing.SopotDowntownDistance = &v
	}
}

// publishChange отправляет событие подписчикам. Сбой публикации логируется
// и не влияет на итог сверки.
func (uc *ProcessListingUseCase) publishChange(ctx context.Context, listing domain.Listing, outcome domain.ReconcileOutcome, logger port.LoggerPort) {
	if uc.events == nil {
		return
	}
	if outcome.Status != domain.StatusNew && outcome.Status != domain.StatusChanged {
		return
	}

	scrapedTs := listing.ScrapedTs
	if scrapedTs.IsZero() {
		scrapedTs = time.Now().UTC()
	}
	event := domain.ListingChangeEvent{
		URL:              outcome.URL,
		Status:           outcome.Status,
		Title:            listing.Title,
		City:             listing.City,
		Price:            listing.Price,
		PricePerSqrMeter: listing.PricePerSqrMeter,
		ScrapedTs:        scrapedTs,
	}
	if err := uc.events.PublishChange(ctx, event); err != nil {
		logger.Error("Failed to publish listing change event", err, port.Fields{"status": outcome.Status})
	}
}
