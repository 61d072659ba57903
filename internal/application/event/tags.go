package event

import (
	"context"
	"strings"

	"github.com/greencity/event-service/internal/domain"
)

// ListTags returns the tag catalog with names in lang only.
func (s *Service) ListTags(ctx context.Context, lang string) ([]domain.Tag, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = s.settings.DefaultLanguage
	}
	return s.repo.ListTags(ctx, lang)
}

// CitySuggestions returns offline places starting with prefix, most used first.
func (s *Service) CitySuggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.repo.CitySuggestions(ctx, domain.NormalizeCity(prefix), limit)
}
