package search

// ResolveScopes normalizes a requested scope set: empty input defaults to
// piece_mark, otherwise duplicates are dropped while preserving
// first-occurrence order. The order matters for display only; matching is
// per-field and independent of it.
func ResolveScopes(scopes []ScopeField) []ScopeField {
	if len(scopes) == 0 {
		return []ScopeField{ScopePieceMark}
	}

	seen := make(map[ScopeField]struct{}, len(scopes))
	resolved := make([]ScopeField, 0, len(scopes))
	for _, s := range scopes {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		resolved = append(resolved, s)
	}
	return resolved
}

// ParseScopes parses raw scope names, returning a field-level validation
// error for unknown values.
func ParseScopes(raw []string) ([]ScopeField, error) {
	scopes := make([]ScopeField, 0, len(raw))
	v := NewValidationError("invalid scope")
	for _, s := range raw {
		field, err := ParseScopeField(s)
		if err != nil {
			v.Add("scope", err.Error())
			continue
		}
		scopes = append(scopes, field)
	}
	if v.HasErrors() {
		return nil, v
	}
	return scopes, nil
}
