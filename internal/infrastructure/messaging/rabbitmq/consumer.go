package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/metrics"
)

const (
	SearchQueue      = "event-service.search-invalidation"
	SearchRetryQueue = "event-service.search-invalidation.retry"
	SearchDLQ        = "event-service.search-invalidation.dlq"
	DeadLetterEx     = "eco.events.dlx"

	maxRetries    = 3
	retryDelayMs  = 5000
	handleTimeout = 5 * time.Second
)

// SearchRoutingKeys are the domain events that make cached search pages stale.
var SearchRoutingKeys = []string{"event.created", "event.updated", "event.deleted", "tag.updated"}

// Invalidator drops cached search results. event.Service satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, eventID string) error
}

// invalidationMessage is the part of the domain event envelope the consumer reads.
type invalidationMessage struct {
	MessageID string `json:"message_id"`
	Payload   struct {
		EventID string `json:"event_id"`
	} `json:"payload"`
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDead
)

func (o outcome) String() string {
	switch o {
	case outcomeAck:
		return "ok"
	case outcomeRetry:
		return "retry"
	default:
		return "dead"
	}
}

// Consumer listens to event.* and tag.updated and bumps the search cache generation.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	target   Invalidator
}

// NewConsumer declares the exchange, DLX, DLQ, main and retry queues, then binds SearchRoutingKeys.
func NewConsumer(rabbitURL, exchange string, target Invalidator) (*Consumer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Consumer{conn: conn, channel: ch, queue: SearchQueue, exchange: exchange, target: target}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Consumer) declare() error {
	ch := c.channel

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(DeadLetterEx, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx: %w", err)
	}

	if _, err := ch.QueueDeclare(SearchDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(SearchDLQ, "", DeadLetterEx, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq: %w", err)
	}

	// Rejected messages go to DLX -> DLQ.
	mainArgs := amqp.Table{"x-dead-letter-exchange": DeadLetterEx}
	if _, err := ch.QueueDeclare(SearchQueue, true, false, false, false, mainArgs); err != nil {
		return fmt.Errorf("failed to declare main queue: %w", err)
	}

	// Expired retries route back to the main queue through the default exchange.
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": SearchQueue,
		"x-message-ttl":             int32(retryDelayMs),
	}
	if _, err := ch.QueueDeclare(SearchRetryQueue, true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	for _, key := range SearchRoutingKeys {
		if err := ch.QueueBind(SearchQueue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

// Start begins consuming messages until ctx is done.
func (c *Consumer) Start(ctx context.Context) {
	go c.consume(ctx)
	log.Info().
		Str("queue", c.queue).
		Str("exchange", c.exchange).
		Msg("search invalidation consumer started")
}

func (c *Consumer) consume(ctx context.Context) {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to start consuming")
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("consumer shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("consumer channel closed")
				return
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	routingKey := effectiveRoutingKey(msg)
	res, err := process(ctx, c.target, msg)
	metrics.RecordMessageConsumed(routingKey, res.String())

	switch res {
	case outcomeAck:
		_ = msg.Ack(false)
	case outcomeRetry:
		retryCount := retryCountOf(msg)
		log.Warn().
			Err(err).
			Int("retry_count", retryCount).
			Str("message_id", msg.MessageId).
			Msg("invalidation failed, scheduling retry")

		headers := make(amqp.Table, len(msg.Headers)+2)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["x-retry-count"] = int32(retryCount + 1)
		headers["x-original-routing-key"] = routingKey

		pubErr := c.channel.PublishWithContext(ctx, "", SearchRetryQueue, false, false, amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
			MessageId:   msg.MessageId,
		})
		if pubErr != nil {
			log.Error().Err(pubErr).Msg("failed to publish to retry queue")
			_ = msg.Nack(false, false)
			return
		}
		_ = msg.Ack(false)
	default:
		log.Error().
			Err(err).
			Str("routing_key", routingKey).
			Str("message_id", msg.MessageId).
			Msg("sending message to DLQ")
		_ = msg.Nack(false, false) // requeue=false + DLX = DLQ
	}
}

// process decides what happens to a delivery. It never touches the broker.
func process(ctx context.Context, target Invalidator, msg amqp.Delivery) (outcome, error) {
	routingKey := effectiveRoutingKey(msg)
	if !isSearchRoutingKey(routingKey) {
		log.Warn().Str("routing_key", routingKey).Msg("unknown routing key")
		return outcomeAck, nil
	}

	var m invalidationMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		return outcomeDead, fmt.Errorf("decode envelope: %w", err)
	}

	eventID := strings.TrimSpace(m.Payload.EventID)
	if eventID != "" {
		if _, err := uuid.Parse(eventID); err != nil {
			return outcomeDead, fmt.Errorf("invalid event_id %q: %w", eventID, err)
		}
	}

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := target.Invalidate(hctx, eventID); err != nil {
		if retryCountOf(msg) < maxRetries {
			return outcomeRetry, err
		}
		return outcomeDead, err
	}

	log.Debug().
		Str("event_id", eventID).
		Str("routing_key", routingKey).
		Msg("search cache invalidated")
	return outcomeAck, nil
}

func effectiveRoutingKey(msg amqp.Delivery) string {
	if v, ok := msg.Headers["x-original-routing-key"].(string); ok && v != "" {
		return v
	}
	return msg.RoutingKey
}

func retryCountOf(msg amqp.Delivery) int {
	switch v := msg.Headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func isSearchRoutingKey(key string) bool {
	for _, k := range SearchRoutingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Close closes the consumer connection
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
