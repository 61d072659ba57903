package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"
)

// NoopPublisher drops domain events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	zlog.Debug().Str("rk", routingKey).Str("message_id", messageID).Msg("no broker: event dropped")
	return nil
}
