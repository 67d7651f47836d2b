package sns

import (
	"errors"
	"fmt"
	"time"
)

const keyTimestamp = "Timestamp"

// secondsEnd is the offset right after the seconds of an ISO-8601 date-time,
// where a fraction or a zone designator must start.
const secondsEnd = len("2006-01-02T15:04:05")

// timestampParser is one accepted layout. Parsers never panic and reject
// anything outside their layout, so they can be tried in sequence.
type timestampParser func(text string) (time.Time, error)

// timestampParsers lists the accepted layouts in the order they are tried.
// Producers emit fractional seconds most of the time but not always.
var timestampParsers = []timestampParser{
	parseFractionalSeconds,
	parseWholeSeconds,
}

// ParseTimestamp parses an SNS Timestamp: ISO-8601 with fractional seconds,
// falling back to whole seconds. The instant is returned in UTC.
func ParseTimestamp(text string) (time.Time, error) {
	return parseTimestampAt(keyTimestamp, text)
}

func parseTimestampAt(path, text string) (time.Time, error) {
	errs := make([]error, 0, len(timestampParsers))
	for _, parse := range timestampParsers {
		t, err := parse(text)
		if err == nil {
			return t.UTC(), nil
		}
		errs = append(errs, err)
	}
	return time.Time{}, &InvalidTimestampError{
		Field: keyTimestamp,
		Path:  path,
		Value: text,
		Err:   errors.Join(errs...),
	}
}

// parseFractionalSeconds accepts 2006-01-02T15:04:05.000Z and any number of
// fraction digits, with Z or a numeric offset. Digits past the ninth are
// truncated, since time.Time only holds nanoseconds.
func parseFractionalSeconds(text string) (time.Time, error) {
	if len(text) <= secondsEnd || text[secondsEnd] != '.' {
		return time.Time{}, fmt.Errorf("fractional seconds: no fraction in %q", text)
	}
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("fractional seconds: %w", err)
	}
	return t, nil
}

// parseWholeSeconds accepts 2006-01-02T15:04:05Z, with Z or a numeric offset.
func parseWholeSeconds(text string) (time.Time, error) {
	if len(text) <= secondsEnd {
		return time.Time{}, fmt.Errorf("whole seconds: %q is too short", text)
	}
	// time.Parse would also take a fraction here, including one introduced
	// by a comma.
	switch text[secondsEnd] {
	case 'Z', '+', '-':
	default:
		return time.Time{}, fmt.Errorf("whole seconds: unexpected %q after seconds", text[secondsEnd])
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("whole seconds: %w", err)
	}
	return t, nil
}
