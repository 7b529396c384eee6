package domain

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// StrOrEmpty dereferences p, returning "" for nil.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StrPtr returns nil for an empty string, otherwise a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
