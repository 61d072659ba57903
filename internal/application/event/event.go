package event

import (
	"context"
	"strings"
	"time"
)

const (
	EventVersion  = 1
	EventProducer = "event-service"

	RoutingKeyEventCreated = "event.created"
)

// DomainEventEnvelope is the stable contract for all domain events emitted by event-service.
// Consumers should rely on: version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// EventCreatedPayload is the business payload for routing key: event.created
type EventCreatedPayload struct {
	EventID  string   `json:"event_id"`
	AuthorID string   `json:"author_id"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Dates    []string `json:"dates"`
	Cities   []string `json:"cities,omitempty"`
	TagIDs   []int64  `json:"tag_ids,omitempty"`
}

// ---- trace id plumbing ----
// If the transport layer stores a request id in context, we read it here.
type ctxKey string

const ctxRequestID ctxKey = "request_id"

// WithRequestID can be called by HTTP middleware to inject request_id into context.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// TraceIDFromContext reads request_id if available.
func TraceIDFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxRequestID); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
