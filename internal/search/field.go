package search

// Scope says which row of the event graph a Field is read from.
type Scope int

const (
	ScopeEvent Scope = iota + 1
	ScopeDay
	ScopeTagTranslation
)

// Field identifies a searchable attribute. Column names belong to the store.
type Field int

const (
	FieldID Field = iota + 1
	FieldTitle
	FieldDescription
	FieldType
	FieldCreatedAt

	FieldDayDate
	FieldDayStartTime
	FieldDayEndTime
	FieldDayOnline
	FieldDayOffline
	FieldDayOnlinePlace
	FieldDayOfflinePlace

	FieldTagLanguage
	FieldTagName
)

var fieldNames = map[Field]string{
	FieldID:              "id",
	FieldTitle:           "title",
	FieldDescription:     "description",
	FieldType:            "type",
	FieldCreatedAt:       "createdAt",
	FieldDayDate:         "date",
	FieldDayStartTime:    "startTime",
	FieldDayEndTime:      "endTime",
	FieldDayOnline:       "isOnline",
	FieldDayOffline:      "isOffline",
	FieldDayOnlinePlace:  "onlinePlace",
	FieldDayOfflinePlace: "offlinePlace",
	FieldTagLanguage:     "languageCode",
	FieldTagName:         "name",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return "unknown"
}

func (f Field) Scope() Scope {
	switch {
	case f >= FieldDayDate && f <= FieldDayOfflinePlace:
		return ScopeDay
	case f == FieldTagLanguage || f == FieldTagName:
		return ScopeTagTranslation
	default:
		return ScopeEvent
	}
}
