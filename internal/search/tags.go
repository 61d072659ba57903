package search

import (
	"context"
	"strings"
)

// TagLookup resolves tag-translation predicates to tag ids.
type TagLookup interface {
	MatchingTagIDs(ctx context.Context, where Predicate) ([]int64, error)
}

// TagResolver runs tag search as two steps: matching tag ids are resolved
// first, then events are filtered by membership.
type TagResolver struct {
	lookup TagLookup
}

func NewTagResolver(lookup TagLookup) *TagResolver {
	return &TagResolver{lookup: lookup}
}

// TranslationPredicate matches translations whose language code contains
// language and whose name contains any token. Both are sanitized already.
func TranslationPredicate(language string, tokens []string) Predicate {
	return AllOf(
		Contains{Field: FieldTagLanguage, Pattern: strings.ToLower(language)},
		TextMatch(tokens, FieldTagName),
	)
}

// Resolve returns a predicate over events that holds for events tagged with
// any matching tag. Without tokens it returns nil: tags add no constraint.
func (r *TagResolver) Resolve(ctx context.Context, language string, tokens []string) (Predicate, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	ids, err := r.lookup.MatchingTagIDs(ctx, TranslationPredicate(language, tokens))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return False(), nil
	}
	return HasAnyTag{TagIDs: ids}, nil
}
