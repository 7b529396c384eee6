package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseNullableString turns a NULL or empty column into nil.
func parseNullableString(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

// nullableString converts a *string to a value suitable for SQLite storage.
// Returns nil (SQL NULL) for nil or empty strings.
func nullableString(p *string) interface{} {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func encodeList(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(data), nil
}

func decodeList(s string) ([]string, error) {
	var vals []string
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return vals, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// normaliseLimit maps non-positive limits to SQLite's "no limit".
func normaliseLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
