package usecase

import (
	"context"
	"sync"
	"time"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/domain"
	"trojmiasto-monitor/internal/core/port"
	usecases_port "trojmiasto-monitor/internal/core/port/usecases"

	"github.com/google/uuid"
)

// RunCrawlSessionUseCase - полная сессия обхода: дискавери по сид-страницам,
// политика свежести и параллельная обработка объявлений.
type RunCrawlSessionUseCase struct {
	fetcher   port.TrojmiastoFetcherPort
	store     port.ListingStorePort
	processor usecases_port.ProcessListingPort

	seedURLs        []string
	freshnessWindow time.Duration
	workers         int
}

func NewRunCrawlSessionUseCase(
	fetcher port.TrojmiastoFetcherPort,
	store port.ListingStorePort,
	processor usecases_port.ProcessListingPort,
	seedURLs []string,
	freshnessDays int,
	workers int,
) *RunCrawlSessionUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &RunCrawlSessionUseCase{
		fetcher:         fetcher,
		store:           store,
		processor:       processor,
		seedURLs:        seedURLs,
		freshnessWindow: time.Duration(freshnessDays) * 24 * time.Hour,
		workers:         workers,
	}
}

// Execute проводит одну сессию обхода и возвращает ее сводку.
func (uc *RunCrawlSessionUseCase) Execute(ctx context.Context) (*domain.CrawlSessionStats, error) {
	sessionID := uuid.NewString()
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "RunCrawlSession",
		"session_id": sessionID,
	})
	ctx = contextkeys.ContextWithLogger(ctx, logger)
	ctx = contextkeys.ContextWithTraceID(ctx, sessionID)

	startedAt := time.Now()
	stats := &domain.CrawlSessionStats{}
	logger.Info("Crawl session started", port.Fields{"seeds": len(uc.seedURLs)})

	// Снимок актуальных URL один раз на сессию: по нему работает политика
	// свежести. Сбой чтения не отменяет сессию, обход идет без пропусков.
	existing, err := uc.store.ExistingURLs(ctx)
	if err != nil {
		logger.Warn("Failed to load existing URLs, freshness skip disabled for this session",
			port.Fields{"error": err.Error()})
		existing = map[string]time.Time{}
	}

	toProcess := uc.discover(ctx, existing, stats, logger)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	uc.processAll(ctx, toProcess, stats)

	logger.Info("Crawl session finished", port.Fields{
		"pages_visited": stats.PagesVisited,
		"discovered":    stats.Discovered,
		"skipped":       stats.Skipped,
		"new":           stats.New,
		"updated":       stats.Updated,
		"unchanged":     stats.Unchanged,
		"failed":        stats.Failed,
		"duration":      time.Since(startedAt).String(),
	})
	return stats, ctx.Err()
}

// discover обходит сид-страницы и применяет политику свежести.
// Сбой одной цепочки пагинации не останавливает остальные.
func (uc *RunCrawlSessionUseCase) discover(ctx context.Context, existing map[string]time.Time, stats *domain.CrawlSessionStats, logger port.LoggerPort) []string {
	now := time.Now()
	seen := make(map[string]struct{})
	var toProcess []string

	for _, seed := range uc.seedURLs {
		if ctx.Err() != nil {
			break
		}

		links, pagesVisited, err := uc.fetcher.FetchListingLinks(ctx, seed)
		stats.PagesVisited += pagesVisited
		if err != nil {
			logger.Error("Pagination chain failed, continuing with collected links", err,
				port.Fields{"seed": seed, "collected": len(links)})
		}

		for _, link := range links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			stats.Discovered++

			// свежий URL не стоит ни запроса деталей, ни записи
			if lastScraped, ok := existing[link]; ok && now.Sub(lastScraped) < uc.freshnessWindow {
				stats.Skipped++
				continue
			}
			toProcess = append(toProcess, link)
		}
	}
	return toProcess
}

// processAll прогоняет объявления через пул воркеров. Сверка одного URL
// сериализуется на уровне хранилища, пул дает только параллелизм по разным URL.
func (uc *RunCrawlSessionUseCase) processAll(ctx context.Context, urls []string, stats *domain.CrawlSessionStats) {
	logger := contextkeys.LoggerFromContext(ctx)

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < uc.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for adURL := range jobs {
				outcome, err := uc.processor.Execute(ctx, adURL)

				mu.Lock()
				switch {
				case err != nil:
					stats.Failed++
				case outcome.Status == domain.StatusNew:
					stats.New++
				case outcome.Status == domain.StatusChanged:
					stats.Updated++
				case outcome.Status == domain.StatusUnchanged:
					stats.Unchanged++
				}
				mu.Unlock()

				if err != nil {
					logger.Error("Listing processing failed", err, port.Fields{"url": adURL})
				}
			}
		}()
	}

feed:
	for _, adURL := range urls {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- adURL:
		}
	}
	close(jobs)
	wg.Wait()
}
