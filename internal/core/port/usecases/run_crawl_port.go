package usecases_port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// RunCrawlSessionPort - контракт для запуска полной сессии обхода.
type RunCrawlSessionPort interface {
	Execute(ctx context.Context) (*domain.CrawlSessionStats, error)
}
