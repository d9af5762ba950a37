package domain

import "time"

// ReconcileStatus - итог сверки свежесобранного объявления с хранилищем.
type ReconcileStatus string

const (
	StatusNew       ReconcileStatus = "new"       // URL встречен впервые
	StatusChanged   ReconcileStatus = "changed"   // поля-компараторы изменились, создана новая версия
	StatusUnchanged ReconcileStatus = "unchanged" // изменений нет, обновлен только scraped_ts
)

// ReconcileOutcome возвращается хранилищем после атомарной сверки одной записи.
type ReconcileOutcome struct {
	Status ReconcileStatus
	URL    string
}

// ListingChangeEvent публикуется для подписчиков при появлении новой
// или измененной версии объявления.
type ListingChangeEvent struct {
	URL              string          `json:"url"`
	Status           ReconcileStatus `json:"status"`
	Title            *string         `json:"title"`
	City             *string         `json:"city"`
	Price            *float64        `json:"price"`
	PricePerSqrMeter *float64        `json:"price_per_sqr_meter"`
	ScrapedTs        time.Time       `json:"scraped_ts"`
}

// CrawlSessionStats - сводка одной сессии обхода.
type CrawlSessionStats struct {
	PagesVisited int
	Discovered   int
	Skipped      int // пропущены политикой свежести, без запроса деталей
	New          int
	Updated      int
	Unchanged    int
	Failed       int
}
