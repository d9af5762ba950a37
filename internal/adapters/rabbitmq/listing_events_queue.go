package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trojmiasto-monitor/internal/contracts"
	"trojmiasto-monitor/internal/core/domain"
	"trojmiasto-monitor/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventType    = "ListingChangedEvent"
	eventVersion = "1.0.0"

	routingKeyNew     = "listing.new"
	routingKeyChanged = "listing.changed"
)

// RabbitMQListingEventsAdapter реализует ListingEventsPort для RabbitMQ
type RabbitMQListingEventsAdapter struct {
	producer *rabbitmq_producer.Publisher
}

// NewRabbitMQListingEventsAdapter создает новый экземпляр адаптера
func NewRabbitMQListingEventsAdapter(producer *rabbitmq_producer.Publisher) (*RabbitMQListingEventsAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &RabbitMQListingEventsAdapter{producer: producer}, nil
}

// PublishChange отправляет событие о новой или измененной версии объявления.
// Статус "unchanged" событий не порождает.
func (a *RabbitMQListingEventsAdapter) PublishChange(ctx context.Context, event domain.ListingChangeEvent) error {
	var routingKey string
	switch event.Status {
	case domain.StatusNew:
		routingKey = routingKeyNew
	case domain.StatusChanged:
		routingKey = routingKeyChanged
	default:
		return fmt.Errorf("rabbitmq adapter: status %q is not publishable", event.Status)
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal event for URL %s: %w", event.URL, err)
	}

	// Контракт проверяется до публикации, невалидное событие не уходит в брокер
	if err := contracts.ValidateEvent(eventType, eventVersion, eventJSON); err != nil {
		return fmt.Errorf("rabbitmq adapter: event for URL %s violates contract: %w", event.URL, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         eventJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    eventType,
			"event-version": eventVersion,
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to publish event for URL %s: %w", event.URL, err)
	}
	return nil
}
