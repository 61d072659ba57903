package event

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/domain"
)

type CreateCmd struct {
	ActorID string

	Title       string
	Description string
	Type        string
	Days        []domain.EventDayDetails
	TagIDs      []int64
	ImageURLs   []string
}

func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Event, error) {
	if cmd.ActorID == "" {
		return nil, domain.ErrForbidden("authentication required")
	}
	typ, ok := domain.ParseEventType(cmd.Type)
	if !ok {
		return nil, domain.ErrValidationMeta("invalid event type", map[string]string{
			"type": "must be one of: OPEN, CLOSED",
		})
	}

	now := s.clock.Now()
	e, err := domain.NewEvent(cmd.ActorID, cmd.Title, cmd.Description, typ, cmd.Days, cmd.TagIDs, cmd.ImageURLs, now)
	if err != nil {
		return nil, err
	}

	msg, err := createdMessage(ctx, e)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tr TxEventRepo) error {
		if err := tr.Insert(ctx, e); err != nil {
			return err
		}
		if s.outbox {
			return tr.InsertOutbox(ctx, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !s.outbox && s.pub != nil {
		if err := s.pub.PublishEvent(ctx, msg.RoutingKey, msg.MessageID, msg.Body); err != nil {
			zlog.Error().
				Err(err).
				Str("rk", msg.RoutingKey).
				Str("event_id", e.ID).
				Msg("publish domain event failed")
		}
	}

	if err := s.Invalidate(ctx, ""); err != nil {
		zlog.Warn().Err(err).Str("event_id", e.ID).Msg("search cache invalidation failed")
	}

	// Re-read so tags carry their translations.
	if stored, err := s.repo.GetByID(ctx, e.ID); err == nil {
		return stored, nil
	}
	return e, nil
}

func createdMessage(ctx context.Context, e *domain.Event) (OutboxMessage, error) {
	payload := EventCreatedPayload{
		EventID:  e.ID,
		AuthorID: e.AuthorID,
		Title:    e.Title,
		Type:     string(e.Type),
		TagIDs:   e.TagIDs(),
	}
	seen := map[string]bool{}
	for _, d := range e.Days {
		payload.Dates = append(payload.Dates, d.Date.Format(domain.DateLayout))
		if d.IsOffline && !seen[d.OfflinePlace] {
			seen[d.OfflinePlace] = true
			payload.Cities = append(payload.Cities, d.OfflinePlace)
		}
	}

	env := DomainEventEnvelope[EventCreatedPayload]{
		Version:    EventVersion,
		Producer:   EventProducer,
		MessageID:  uuid.NewString(),
		TraceID:    TraceIDFromContext(ctx),
		OccurredAt: e.CreatedAt,
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return OutboxMessage{}, err
	}
	return OutboxMessage{
		MessageID:  env.MessageID,
		RoutingKey: RoutingKeyEventCreated,
		Body:       body,
		CreatedAt:  e.CreatedAt,
	}, nil
}
