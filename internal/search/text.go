package search

// TextMatch matches records where any token is a case-insensitive substring
// of any of fields. No tokens means no constraint.
func TextMatch(tokens []string, fields ...Field) Predicate {
	if len(tokens) == 0 {
		return True()
	}
	perToken := make([]Predicate, 0, len(tokens))
	for _, tok := range tokens {
		perField := make([]Predicate, 0, len(fields))
		for _, f := range fields {
			perField = append(perField, Contains{Field: f, Pattern: tok})
		}
		perToken = append(perToken, AnyOf(perField...))
	}
	return AnyOf(perToken...)
}
