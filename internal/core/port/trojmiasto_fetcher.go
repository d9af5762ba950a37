package port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// TrojmiastoFetcherPort объединяет операции над источником данных
// ogloszenia.trojmiasto.pl.
type TrojmiastoFetcherPort interface {
	// FetchListingLinks обходит страницы списка начиная с seedURL, следуя
	// ссылке "следующая страница" до ее отсутствия, и возвращает найденные
	// ссылки на объявления. При ошибке навигации возвращает собранное до
	// ошибки вместе с ней.
	FetchListingLinks(ctx context.Context, seedURL string) (links []string, pagesVisited int, err error)

	// FetchAdDetails загружает страницу объявления и извлекает сырые поля
	// по фиксированной схеме. Отсутствующее поле - пустая строка.
	FetchAdDetails(ctx context.Context, adURL string) (*domain.RawListing, error)
}
