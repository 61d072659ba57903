// Package memory is an in-process event store. It backs dev mode when no
// database is configured and evaluates searches with search.Evaluate.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

type Store struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
	tags   map[int64]domain.Tag
	nextID int64
	outbox []event.OutboxMessage
}

func New() *Store {
	return &Store{
		events: map[string]*domain.Event{},
		tags:   map[int64]domain.Tag{},
	}
}

// PutTag adds or replaces a tag and its translations.
func (s *Store) PutTag(t domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range t.Translations {
		t.Translations[i].TagID = t.ID
	}
	s.tags[t.ID] = t
}

// Outbox returns the messages written so far.
func (s *Store) Outbox() []event.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]event.OutboxMessage(nil), s.outbox...)
}

type txStore struct {
	events []*domain.Event
	outbox []event.OutboxMessage
}

func (t *txStore) Insert(_ context.Context, e *domain.Event) error {
	t.events = append(t.events, e)
	return nil
}

func (t *txStore) InsertOutbox(_ context.Context, msg event.OutboxMessage) error {
	t.outbox = append(t.outbox, msg)
	return nil
}

// WithTx buffers writes and applies them only if fn succeeds.
func (s *Store) WithTx(_ context.Context, fn func(tr event.TxEventRepo) error) error {
	tx := &txStore{}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range tx.events {
		for _, id := range e.TagIDs() {
			if _, ok := s.tags[id]; !ok {
				return domain.ErrValidationMeta("unknown tag", map[string]string{"tag_ids": "must reference existing tags"})
			}
		}
	}
	for _, e := range tx.events {
		for i := range e.Days {
			s.nextID++
			e.Days[i].ID = s.nextID
		}
		s.events[e.ID] = e
	}
	s.outbox = append(s.outbox, tx.outbox...)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	return s.hydrate(e), nil
}

// hydrate copies e and fills in tag translations. Callers hold mu.
func (s *Store) hydrate(e *domain.Event) *domain.Event {
	cp := *e
	cp.Days = append([]domain.EventDayDetails(nil), e.Days...)
	cp.Tags = make([]domain.Tag, 0, len(e.Tags))
	for _, t := range e.Tags {
		if full, ok := s.tags[t.ID]; ok {
			t = full
		}
		cp.Tags = append(cp.Tags, t)
	}
	return &cp
}

func (s *Store) MatchingTagIDs(_ context.Context, where search.Predicate) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, t := range s.tags {
		for _, tr := range t.Translations {
			if search.EvaluateTranslation(where, tr) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) SearchEvents(ctx context.Context, q search.Query) ([]*domain.Event, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Event
	for _, e := range s.events {
		if search.Evaluate(q.Where, e) {
			matched = append(matched, s.hydrate(e))
		}
	}
	search.SortEvents(matched, q.OrderBy)

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*domain.Event{}, total, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

func (s *Store) ListTags(_ context.Context, lang string) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		var trs []domain.TagTranslation
		for _, tr := range t.Translations {
			if tr.LanguageCode == lang {
				trs = append(trs, tr)
			}
		}
		if len(trs) > 0 {
			out = append(out, domain.Tag{ID: t.ID, Translations: trs})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CitySuggestions(_ context.Context, prefix string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	names := map[string]string{}
	for _, e := range s.events {
		for _, d := range e.Days {
			if !d.IsOffline || d.OfflinePlace == "" {
				continue
			}
			key := domain.NormalizeCity(d.OfflinePlace)
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			counts[key]++
			if _, ok := names[key]; !ok {
				names[key] = d.OfflinePlace
			}
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, names[k])
	}
	return out, nil
}

var _ event.EventRepo = (*Store)(nil)
