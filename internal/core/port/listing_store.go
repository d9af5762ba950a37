package port

import (
	"context"
	"time"

	"trojmiasto-monitor/internal/core/domain"
)

// ListingStorePort - версионированное хранилище объявлений.
// Инвариант: для любого URL в любой момент не более одной строки с is_latest = true.
type ListingStorePort interface {
	// ExistingURLs возвращает все URL с is_latest = true и время их последнего
	// подтверждения. Используется оркестратором для политики пропуска.
	ExistingURLs(ctx context.Context) (map[string]time.Time, error)

	// IsChanged сравнивает поля-компараторы кандидата с актуальной версией.
	// Если актуальной версии нет - возвращает true (считаем новым/измененным).
	IsChanged(ctx context.Context, url string, candidate domain.Listing) (bool, error)

	// Retire снимает флаг is_latest с актуальной версии. No-op, если ее нет.
	Retire(ctx context.Context, url string) error

	// Insert добавляет новую версию с is_latest = true. Если предыдущая версия
	// не была отозвана, возвращает domain.ErrDuplicateLatest.
	Insert(ctx context.Context, listing domain.Listing) error

	// TouchScrapedTs обновляет scraped_ts актуальной версии, не создавая новой.
	TouchScrapedTs(ctx context.Context, url string) error

	// Reconcile выполняет сверку кандидата атомарно для его URL:
	// новый -> insert, измененный -> retire + insert, без изменений -> touch.
	Reconcile(ctx context.Context, candidate domain.Listing) (domain.ReconcileOutcome, error)
}
