package domain

import (
	"time"
)

// RawListing - "сырые" строковые поля, извлеченные со страницы объявления.
// Отсутствие значения представляется пустой строкой, а не ошибкой.
type RawListing struct {
	URL              string
	Title            string
	Price            string
	Rooms            string
	Floor            string
	Year             string
	PricePerSqrMeter string
	SquareMeters     string
	Address          []string // адрес на странице разбит на фрагменты
	City             string
}

// Listing - одна версия объявления. Nullable-поля хранятся указателями,
// чтобы на уровне типов отличать "отсутствует" от "ноль".
type Listing struct {
	URL              string
	Title            *string
	Price            *float64
	PricePerSqrMeter *float64
	Rooms            *int
	Floor            *int
	SquareMeters     *float64
	Year             *int
	Address          *string
	City             *string
	Area             *string

	// Производные гео-поля; все могут отсутствовать, если геокодирование не удалось
	Latitude               *float64
	Longitude              *float64
	Geohash                *string
	CoastlineDistance      *float64
	GdanskDowntownDistance *float64
	GdyniaDowntownDistance *float64
	SopotDowntownDistance  *float64

	CreatedTs time.Time
	ScrapedTs time.Time
	IsLatest  bool
}

// ComparisonFields - колонки, изменение которых порождает новую версию записи.
// Список подставляется в SQL хранилища; порядок колонок совпадает с порядком
// сравнения в ComparisonEqual. Набор намеренно узкий (только ценовые поля);
// расширение набора увеличивает рост истории и должно происходить только здесь.
var ComparisonFields = []string{"price", "price_per_sqr_meter"}

// ComparisonEqual сравнивает поля-компараторы двух версий типизированно.
// Два отсутствующих значения считаются равными.
func ComparisonEqual(a, b Listing) bool {
	return floatPtrEqual(a.Price, b.Price) &&
		floatPtrEqual(a.PricePerSqrMeter, b.PricePerSqrMeter)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GeoLocation - результат геокодирования адреса.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
	City      string
	Area      string
}
