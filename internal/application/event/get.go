package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/domain"
)

func (s *Service) Get(ctx context.Context, id string) (*domain.Event, error) {
	// 1. Try Cache
	key := cacheKeyEventDetails(id)
	var cached domain.Event

	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			zlog.Debug().Str("key", key).Msg("cache hit")
			return &cached, nil
		}
	}

	// 2. DB Query
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Set Cache (Best Effort)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return e, nil
}
