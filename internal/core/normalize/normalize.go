package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"trojmiasto-monitor/internal/core/domain"

	"golang.org/x/text/unicode/norm"
)

// Парсер одного поля: либо типизированное значение кладется в запись,
// либо поле остается отсутствующим. Ошибка одного поля не влияет на остальные.
type fieldParser func(raw *domain.RawListing, out *domain.Listing)

var fieldParsers = map[string]fieldParser{
	"title":               parseTitle,
	"price":               parsePrice,
	"price_per_sqr_meter": parsePricePerSqrMeter,
	"square_meters":       parseSquareMeters,
	"rooms":               parseRooms,
	"floor":               parseFloor,
	"year":                parseYear,
	"address":             parseAddress,
	"city":                parseCity,
}

// Apply превращает сырые строковые поля в типизированную запись.
// Каждое поле обрабатывается изолированно.
func Apply(raw *domain.RawListing) domain.Listing {
	out := domain.Listing{URL: raw.URL}
	for _, parse := range fieldParsers {
		parse(raw, &out)
	}
	return out
}

func parseTitle(raw *domain.RawListing, out *domain.Listing) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return
	}
	out.Title = &title
}

func parsePrice(raw *domain.RawListing, out *domain.Listing) {
	out.Price = parseNumber(raw.Price)
}

func parsePricePerSqrMeter(raw *domain.RawListing, out *domain.Listing) {
	out.PricePerSqrMeter = parseNumber(raw.PricePerSqrMeter)
}

func parseSquareMeters(raw *domain.RawListing, out *domain.Listing) {
	out.SquareMeters = parseNumber(raw.SquareMeters)
}

func parseRooms(raw *domain.RawListing, out *domain.Listing) {
	v := strings.TrimSpace(raw.Rooms)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	out.Rooms = &n
}

// groundFloorTokens - текстовые обозначения первого этажа на сайте.
var groundFloorTokens = map[string]bool{
	"parter": true,
}

func parseFloor(raw *domain.RawListing, out *domain.Listing) {
	v := strings.ToLower(strings.TrimSpace(raw.Floor))
	if v == "" {
		return
	}
	if groundFloorTokens[v] {
		zero := 0
		out.Floor = &zero
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	out.Floor = &n
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

func parseYear(raw *domain.RawListing, out *domain.Listing) {
	m := yearRe.FindString(raw.Year)
	if m == "" {
		return
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return
	}
	out.Year = &n
}

func parseAddress(raw *domain.RawListing, out *domain.Listing) {
	if len(raw.Address) == 0 {
		return
	}
	joined := strings.TrimSpace(strings.Join(raw.Address, " "))
	if joined == "" {
		return
	}
	// NFKD-нормализация, как делал пайплайн оригинального скрапера
	normalized := norm.NFKD.String(joined)
	out.Address = &normalized
}

func parseCity(raw *domain.RawListing, out *domain.Listing) {
	city := strings.TrimSpace(raw.City)
	if city == "" {
		return
	}
	out.City = &city
}

// numberCleaner вырезает из числового поля все, кроме цифр, запятой и точки:
// валюту, пробельные разделители тысяч, единицы измерения ("m²", "zł").
var numberCleaner = regexp.MustCompile(`[^0-9,.\-]`)

// parseNumber разбирает число в локальном формате: "1 234 567,89 zł" -> 1234567.89.
func parseNumber(s string) *float64 {
	cleaned := numberCleaner.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	// десятичная запятая -> точка; точки-разделители тысяч при этом не трогаем,
	// если запятая присутствует
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		// вторая запятая делает значение неразборчивым
		if strings.Contains(cleaned, ",") {
			return nil
		}
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
