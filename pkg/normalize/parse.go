package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedInput is matched by every *MalformedInputError.
var ErrMalformedInput = errors.New("normalize: malformed input")

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateOnlyLayout = "2006-01-02"

// ParseInstant parses the ISO-8601 shapes seen in task and calendar records.
// Values without an offset are read in loc; a bare date means 23:59:59 local
// on that day. dateOnly reports whether the value carried no time of day.
func ParseInstant(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false, errors.New("empty value")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, false, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, false, nil
		}
	}
	if d, err := time.ParseInLocation(dateOnlyLayout, v, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", v)
}

// isEndOfDaySentinel reports whether t is exactly 23:59:59 at a zero UTC offset,
// the marker calendar feeds use for "due by the end of this date".
func isEndOfDaySentinel(t time.Time) bool {
	if _, off := t.Zone(); off != 0 {
		return false
	}
	return t.Hour() == 23 && t.Minute() == 59 && t.Second() == 59
}

// MalformedInputError describes one field of one record that could not be
// interpreted. The record is still normalized, just without that field.
type MalformedInputError struct {
	ID    string
	Kind  string
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s %q: field %s=%q: %v", e.Kind, e.ID, e.Field, e.Value, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
