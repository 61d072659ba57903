package event

import (
	"context"
	"time"

	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

type Clock interface {
	Now() time.Time
}

type EventRepo interface {
	search.Store

	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListTags(ctx context.Context, lang string) ([]domain.Tag, error)
	CitySuggestions(ctx context.Context, prefix string, limit int) ([]string, error)

	WithTx(ctx context.Context, fn func(tr TxEventRepo) error) error
}

// TxEventRepo is the write side, used inside a single transaction.
type TxEventRepo interface {
	Insert(ctx context.Context, e *domain.Event) error
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// Cache stores JSON values. Failures are never fatal to callers.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}
