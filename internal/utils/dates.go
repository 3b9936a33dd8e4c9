package utils

import (
	"strings"
	"time"
)

// Accepted expiry formats: a bare date is read as midnight UTC, a full
// timestamp may carry an offset or a trailing Z, or neither.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseFlexibleTime parses an expiry date leniently. Unparsable input
// yields nil rather than an error, so a malformed optional field
// degrades to absence.
func ParseFlexibleTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return nil
	}

	if len(raw) == 10 {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			return &parsed
		}
		return nil
	}

	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}

	return nil
}

// FormatTimePtr renders a timestamp as RFC 3339 for API responses.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}

	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
