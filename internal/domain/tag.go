package domain

// Tag is shared between many events and read-only for search.
type Tag struct {
	ID           int64            `json:"id"`
	Translations []TagTranslation `json:"translations"`
}

type TagTranslation struct {
	TagID        int64  `json:"tag_id"`
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

// Name returns the tag name in lang, or "" if there is no such translation.
func (t Tag) Name(lang string) string {
	for _, tr := range t.Translations {
		if tr.LanguageCode == lang {
			return tr.Name
		}
	}
	return ""
}
