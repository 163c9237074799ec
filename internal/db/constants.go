package db

import (
	"database/sql"
	"time"
)

const (
	// timestampLayout is the text form of every stored instant, in local time.
	timestampLayout = "2006-01-02 15:04:05"

	// dateLayout keys per-day rows such as habit entries.
	dateLayout = "2006-01-02"
)

var timeFormats = []string{
	timestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	dateLayout,
}

// formatTime renders t as a stored timestamp; the zero time becomes now.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.In(time.Local).Format(timestampLayout)
}

// parseTimeString parses any of the accepted stored layouts. Layouts without
// a zone are read as local time.
func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// nullTime converts an optional stored timestamp.
func nullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, ok := parseTimeString(ns.String)
	if !ok {
		return nil
	}
	return &t
}

// nullTimeArg converts an optional timestamp to a bind argument.
func nullTimeArg(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
