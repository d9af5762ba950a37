package usecases_port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// ProcessListingPort - контракт обработки одного объявления:
// загрузка деталей, нормализация, гео-обогащение и сверка с хранилищем.
type ProcessListingPort interface {
	Execute(ctx context.Context, adURL string) (domain.ReconcileOutcome, error)
}
