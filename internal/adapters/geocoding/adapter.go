package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"trojmiasto-monitor/internal/core/domain"

	"golang.org/x/sync/singleflight"
)

const (
	geocodeAttempts = 3
	minCallSpacing  = time.Second
	retryBackoff    = 2 * time.Second
)

// cityAreaComponent выбирает, из какого компонента ответа читать район:
// разные города публикуют районы на разных административных уровнях.
var cityAreaComponent = map[string]string{
	"Gdańsk": "suburb",
	"Gdynia": "district",
	"Sopot":  "neighbourhood",
}

const fallbackAreaComponent = "county"

type searchClient interface {
	Search(ctx context.Context, query string) ([]nominatimPlace, error)
}

// NominatimGeocoderAdapter реализует GeocoderPort поверх Nominatim c
// сессионным кешем, ограничением частоты и повторами.
type NominatimGeocoderAdapter struct {
	client searchClient
	cache  *sessionCache
	flight singleflight.Group

	mu       sync.Mutex
	lastCall time.Time
	sleep    func(time.Duration)
}

func NewNominatimGeocoderAdapter(client *NominatimClient) *NominatimGeocoderAdapter {
	return newGeocoderAdapter(client)
}

func newGeocoderAdapter(client searchClient) *NominatimGeocoderAdapter {
	return &NominatimGeocoderAdapter{
		client: client,
		cache:  newSessionCache(),
		sleep:  time.Sleep,
	}
}

// Resolve - адрес -> координаты и район. Результат (включая окончательный
// отказ) кешируется по точной строке адреса. Параллельные запросы одного
// адреса схлопываются в один внешний вызов.
func (a *NominatimGeocoderAdapter) Resolve(ctx context.Context, address string) (*domain.GeoLocation, error) {
	if address == "" {
		return nil, fmt.Errorf("geocode: %w", domain.ErrAddressNotFound)
	}

	if entry, ok := a.cache.get(address); ok {
		return entry.location, entry.err
	}

	v, err, _ := a.flight.Do(address, func() (interface{}, error) {
		// проигравший гонку за кеш попадает сюда уже после первого вызова
		if entry, ok := a.cache.get(address); ok {
			return entry.location, entry.err
		}

		location, err := a.lookup(ctx, address)
		if err != nil && ctx.Err() != nil {
			// отмену сессии не кешируем: следующий запуск должен попробовать снова
			return location, err
		}
		a.cache.put(address, cacheEntry{location: location, err: err})
		return location, err
	})

	location, _ := v.(*domain.GeoLocation)
	return location, err
}

func (a *NominatimGeocoderAdapter) lookup(ctx context.Context, address string) (*domain.GeoLocation, error) {
	var lastErr error

	for attempt := 1; attempt <= geocodeAttempts; attempt++ {
		if attempt > 1 {
			a.sleep(retryBackoff)
		}
		// между попытками отмену уважаем, начатую попытку не прерываем
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.throttle()

		places, err := a.client.Search(ctx, address)
		if err != nil {
			lastErr = err
			continue
		}
		if len(places) == 0 {
			// пустой ответ окончателен, повторы его не изменят
			return nil, fmt.Errorf("geocode %q: %w", address, domain.ErrAddressNotFound)
		}
		return toGeoLocation(places[0])
	}

	return nil, fmt.Errorf("geocode %q after %d attempts: %w: %v",
		address, geocodeAttempts, domain.ErrGeocodingFailed, lastErr)
}

// throttle выдерживает паузу не меньше minCallSpacing между внешними вызовами.
func (a *NominatimGeocoderAdapter) throttle() {
	a.mu.Lock()
	wait := minCallSpacing - time.Since(a.lastCall)
	if wait > 0 {
		a.sleep(wait)
	}
	a.lastCall = time.Now()
	a.mu.Unlock()
}

func toGeoLocation(place nominatimPlace) (*domain.GeoLocation, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: malformed latitude %q: %w", place.Lat, domain.ErrGeocodingFailed)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: malformed longitude %q: %w", place.Lon, domain.ErrGeocodingFailed)
	}

	city := firstNonEmpty(place.Address, "city", "town", "village")

	component, ok := cityAreaComponent[city]
	if !ok {
		component = fallbackAreaComponent
	}
	area := place.Address[component]
	if area == "" {
		area = place.Address[fallbackAreaComponent]
	}

	return &domain.GeoLocation{
		Latitude:  lat,
		Longitude: lon,
		City:      city,
		Area:      area,
	}, nil
}

func firstNonEmpty(components map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := components[key]; v != "" {
			return v
		}
	}
	return ""
}
