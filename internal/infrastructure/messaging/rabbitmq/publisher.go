package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "eco.events"

	// How long PublishEvent waits for a return or a confirm.
	defaultConfirmWait = 150 * time.Millisecond
)

var (
	// ErrNoRoute means the broker returned a mandatory message: no queue is bound to its key.
	ErrNoRoute = errors.New("rabbitmq: no route")
	ErrNack    = errors.New("rabbitmq: publish nack")
	ErrClosed  = errors.New("rabbitmq: connection closed")
)

// Publisher sends persistent, mandatory messages to a topic exchange with
// publisher confirms. It is safe for concurrent use; publishes are serialized
// so that returns and confirms can be matched to the caller.
type Publisher struct {
	url         string
	exchange    string
	confirmWait time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{
		url:         url,
		exchange:    exchange,
		confirmWait: defaultConfirmWait,
	}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("rabbitmq publisher: %w", err)
	}
	return p, nil
}

// connect must be called with mu held (or before the publisher is shared).
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(err)
	}
	if err := ch.Confirm(false); err != nil {
		return fail(err)
	}

	p.conn, p.ch = conn, ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returns = ch.NotifyReturn(make(chan amqp.Return, 1))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// Ping reports whether the broker connection is open.
func (p *Publisher) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return ErrClosed
	}
	return ctx.Err()
}

// PublishEvent publishes body under routingKey. messageID must be stable
// across retries (the outbox message id) so consumers can dedupe. A closed
// channel is reopened once before publishing.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if strings.TrimSpace(routingKey) == "" {
		return errors.New("missing routingKey")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("missing messageID")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		if err := p.connect(); err != nil {
			return fmt.Errorf("publisher reconnect: %w", err)
		}
	}

	msg := amqp.Publishing{
		MessageId:    messageID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, true, false, msg); err != nil {
		return err
	}

	timer := time.NewTimer(p.confirmWait)
	defer timer.Stop()

	select {
	case ret := <-p.returns:
		return fmt.Errorf("%w: %s", ErrNoRoute, ret.RoutingKey)
	case conf := <-p.confirms:
		if !conf.Ack {
			return ErrNack
		}
		return nil
	case <-timer.C:
		// No confirm within the window: treated as sent.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
