package trojmiastofetcher

import (
	"log"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// TrojmiastoFetcherAdapter отвечает за все взаимодействия с ogloszenia.trojmiasto.pl
type TrojmiastoFetcherAdapter struct {
	// один родительский коллектор, который разделяет лимиты
	collector *colly.Collector
}

// NewTrojmiastoFetcherAdapter - конструктор
func NewTrojmiastoFetcherAdapter(allowedDomain, userAgent string) *TrojmiastoFetcherAdapter {

	opts := []colly.CollectorOption{}
	if allowedDomain != "" {
		opts = append(opts, colly.AllowedDomains(allowedDomain))
	}
	if userAgent != "" {
		opts = append(opts, colly.UserAgent(userAgent))
	}
	c := colly.NewCollector(opts...)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*trojmiasto.pl*",
		Parallelism: 2,
		RandomDelay: 2 * time.Second,
	})
	if err != nil {
		log.Fatalf("TrojmiastoFetcherAdapter: Failed to set limit rule: %v", err)
	}

	if userAgent == "" {
		extensions.RandomUserAgent(c) // На каждый запрос будет подставлен User-Agent реального браузера
	}
	extensions.Referer(c) // Автоматически подставляет заголовок Referer, имитируя навигацию

	c.OnError(func(r *colly.Response, err error) {
		log.Printf("TrojmiastoFetcherAdapter: Error during request to %s: Status=%d, Error=%v", r.Request.URL, r.StatusCode, err)
	})

	return &TrojmiastoFetcherAdapter{
		collector: c,
	}
}
