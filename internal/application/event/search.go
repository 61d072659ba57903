package event

import (
	"context"
	"errors"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/metrics"
	"github.com/greencity/event-service/internal/search"
)

type SearchCmd struct {
	Query    string
	Language string
	Criteria []search.Criterion

	Page int
	Size int
	Sort []string // field[,asc|desc]
}

type SearchResult = search.Page[*domain.Event]

func (c *SearchCmd) normalize(defaultLang string, maxSize int) {
	c.Query = strings.TrimSpace(c.Query)
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = defaultLang
	}
	if c.Size > maxSize {
		c.Size = maxSize
	}
}

// Search runs a search. The first page is cached for a short TTL under the
// current search generation.
func (s *Service) Search(ctx context.Context, cmd SearchCmd) (SearchResult, error) {
	start := time.Now()
	res, err := s.search(ctx, cmd)

	switch {
	case err == nil:
		metrics.RecordSearch("ok", res.TotalElements, time.Since(start))
	case isClientError(err):
		metrics.RecordSearch("invalid", 0, time.Since(start))
	default:
		metrics.RecordSearch("error", 0, time.Since(start))
	}
	return res, err
}

func (s *Service) search(ctx context.Context, cmd SearchCmd) (SearchResult, error) {
	cmd.normalize(s.settings.DefaultLanguage, s.settings.MaxPageSize)

	orders, err := search.ParseOrders(cmd.Sort)
	if err != nil {
		return SearchResult{}, err
	}
	req := search.Request{
		Criteria: cmd.Criteria,
		FreeText: cmd.Query,
		Language: cmd.Language,
		Page:     search.PageRequest{Number: cmd.Page, Size: cmd.Size, Sort: orders},
	}
	if err := req.Page.Validate(); err != nil {
		return SearchResult{}, err
	}

	// --- Caching Strategy: Only Cache "First Page" ---
	cacheKey := ""
	if cmd.Page == 0 && s.cache != nil {
		if gen, ok := s.searchGeneration(ctx); ok {
			cacheKey = cacheKeySearch(gen, cmd, orders)
			var cached SearchResult
			found, err := s.cache.Get(ctx, cacheKey, &cached)
			if err != nil {
				zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache search get failed")
			} else if found {
				metrics.RecordSearchCache(true)
				return cached, nil
			}
			metrics.RecordSearchCache(false)
		}
	}

	res, err := s.executor.Search(ctx, req)
	if err != nil {
		return SearchResult{}, err
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, res, s.ttlSearch); err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache search set failed")
		}
	}
	return res, nil
}

func (s *Service) searchGeneration(ctx context.Context) (int64, bool) {
	var gen int64
	if _, err := s.cache.Get(ctx, cacheKeySearchGeneration, &gen); err != nil {
		zlog.Warn().Err(err).Msg("cache search generation get failed")
		return 0, false
	}
	return gen, true
}

// Invalidate drops cached search pages, and the cached details of eventID
// when it is set.
func (s *Service) Invalidate(ctx context.Context, eventID string) error {
	if s.cache == nil {
		return nil
	}
	if eventID != "" {
		if err := s.cache.Delete(ctx, cacheKeyEventDetails(eventID)); err != nil {
			return err
		}
	}
	_, err := s.cache.Incr(ctx, cacheKeySearchGeneration)
	return err
}

func isClientError(err error) bool {
	var ae *domain.AppError
	return errors.As(err, &ae)
}
