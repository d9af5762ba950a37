package trojmiastofetcher

import (
	"context"
	"fmt"
	"strings"

	"trojmiasto-monitor/internal/core/domain"

	"github.com/gocolly/colly/v2"
)

// Схема извлечения фиксирована: селектор на поле. Отсутствие элемента на
// странице оставляет поле пустой строкой и не считается ошибкой.
const (
	titleSelector        = "h1.xogIndex__title"
	priceSelector        = ".xogParams p"
	roomsSelector        = "span:contains('Liczba pokoi') + span"
	floorSelector        = "span:contains('Piętro') + span"
	yearSelector         = "span:contains('Rok budowy') + span"
	pricePerMeterSel     = "span:contains('Cena za m') + span"
	squareMetersSelector = "span:contains('Pow. nieruchomości') + span"
	addressSelector      = "i.trm.trm-location + span"
)

// FetchAdDetails загружает страницу объявления и извлекает сырые поля.
func (a *TrojmiastoFetcherAdapter) FetchAdDetails(ctx context.Context, adURL string) (*domain.RawListing, error) {
	collector := a.collector.Clone()

	raw := &domain.RawListing{URL: adURL}
	var fetchErr error
	fetched := false

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		fetched = true
	})

	setOnce := func(dst *string) func(*colly.HTMLElement) {
		return func(e *colly.HTMLElement) {
			if *dst == "" {
				*dst = strings.TrimSpace(e.Text)
			}
		}
	}

	collector.OnHTML(titleSelector, setOnce(&raw.Title))
	collector.OnHTML(priceSelector, setOnce(&raw.Price))
	collector.OnHTML(roomsSelector, setOnce(&raw.Rooms))
	collector.OnHTML(floorSelector, setOnce(&raw.Floor))
	collector.OnHTML(yearSelector, setOnce(&raw.Year))
	collector.OnHTML(pricePerMeterSel, setOnce(&raw.PricePerSqrMeter))
	collector.OnHTML(squareMetersSelector, setOnce(&raw.SquareMeters))

	collector.OnHTML(addressSelector, func(e *colly.HTMLElement) {
		// адрес на странице разбит на несколько span, собираем все
		fragment := strings.TrimSpace(e.Text)
		if fragment != "" {
			raw.Address = append(raw.Address, fragment)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("TrojmiastoAdapter: request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if visitErr := collector.Visit(adURL); visitErr != nil {
		return nil, fmt.Errorf("trojmiasto adapter (Detail): failed to visit URL %s: %w", adURL, visitErr)
	}
	collector.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if !fetched {
		return nil, fmt.Errorf("trojmiasto adapter (Detail): no response received for %s", adURL)
	}

	return raw, nil
}
