package codec

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTime is wrapped by ParseTime failures.
var ErrInvalidTime = errors.New("invalid datetime")

// Accepted layouts, most specific first. Layouts without a zone parse as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"20060102T150405Z0700",
	"20060102T150405",
	"2006-01-02",
}

// ParseTime converts an ISO-8601-like string to a time. A time.Time is
// passed through. Strings without a zone are read as UTC.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil", ErrInvalidTime)
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTime, v)
	}
}

// FormatTime renders t in UTC using RFC3339Nano (trailing zeros trimmed).
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
