package port

import (
	"context"

	"trojmiasto-monitor/internal/core/domain"
)

// ListingEventsPort публикует события о новых и измененных объявлениях.
type ListingEventsPort interface {
	PublishChange(ctx context.Context, event domain.ListingChangeEvent) error
}
