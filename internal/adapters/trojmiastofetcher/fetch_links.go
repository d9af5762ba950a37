package trojmiastofetcher

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gocolly/colly/v2"
)

const (
	listingLinkSelector = "div.list__item h2.list__item__content__title a[href]"
	nextPageSelector    = "div.pages__controls.pages__controls--right a[href]"
)

// FetchListingLinks обходит страницы списка начиная с seedURL, следуя ссылке
// "следующая страница" до ее отсутствия. Возвращает собранные ссылки даже при
// частичном сбое навигации, вместе с ошибкой.
func (a *TrojmiastoFetcherAdapter) FetchListingLinks(ctx context.Context, seedURL string) ([]string, int, error) {
	// наследует лимиты, но имеет свои собственные обработчики
	collector := a.collector.Clone()

	var links []string
	seen := make(map[string]struct{})
	pagesVisited := 0
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		// отмена контекста останавливает обход между страницами
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		pagesVisited++
	})

	collector.OnHTML(listingLinkSelector, func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		// одно объявление может встретиться на нескольких страницах списка
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	collector.OnHTML(nextPageSelector, func(e *colly.HTMLElement) {
		next := e.Request.AbsoluteURL(e.Attr("href"))
		if next == "" {
			return
		}
		// коллектор сам отбрасывает уже посещенные страницы, это защита от циклов пагинации
		if err := e.Request.Visit(next); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
			responseErr = fmt.Errorf("TrojmiastoAdapter: failed to follow next page %s: %w", next, err)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("TrojmiastoAdapter: request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if visitErr := collector.Visit(seedURL); visitErr != nil {
		return nil, 0, fmt.Errorf("trojmiasto adapter: failed to visit seed URL %s: %w", seedURL, visitErr)
	}
	collector.Wait()

	if ctx.Err() != nil {
		return links, pagesVisited, ctx.Err()
	}

	log.Printf("TrojmiastoAdapter: Завершено для %s. Страниц: %d, ссылок: %d\n", seedURL, pagesVisited, len(links))
	return links, pagesVisited, responseErr
}
