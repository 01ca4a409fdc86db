package ports

import (
	"context"

	"github.com/localelore/localelore/internal/core/domain"
)

// EventPublisher publishes fact lifecycle events to a message broker.
type EventPublisher interface {
	PublishFactSubmitted(ctx context.Context, event *domain.FactEvent) error
	PublishFactVoted(ctx context.Context, event *domain.FactEvent) error
	PublishFactVerified(ctx context.Context, event *domain.FactEvent) error
}

// EventSubscriber subscribes to fact lifecycle events from a message broker.
type EventSubscriber interface {
	SubscribeFactVerified(ctx context.Context, handler func(ctx context.Context, event *domain.FactEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}
