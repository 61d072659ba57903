package search

import (
	"strings"
	"unicode/utf8"

	"github.com/greencity/event-service/internal/domain"
)

// EscapeChar is the escape character used in patterns produced by Sanitize.
const EscapeChar = '\\'

// A single pass is equivalent to escaping the backslash first and then % and _.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var likeUnescaper = strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`)

// Sanitize trims raw and escapes LIKE metacharacters (\, % and _).
// Applying it twice escapes twice. An empty result means "match everything".
func Sanitize(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", domain.ErrInvalidQuery("query must be valid UTF-8")
	}
	if strings.ContainsRune(raw, 0) {
		return "", domain.ErrInvalidQuery("query must not contain NUL bytes")
	}
	return likeEscaper.Replace(strings.TrimSpace(raw)), nil
}

// Unescape reverses Sanitize's escaping on a single pattern.
func Unescape(pattern string) string {
	return likeUnescaper.Replace(pattern)
}

// Tokenize splits a sanitized query on whitespace.
func Tokenize(sanitized string) []string {
	return strings.Fields(sanitized)
}
