package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNaiveTimestamp is returned for timestamps that carry no UTC offset
	ErrNaiveTimestamp = errors.New("timestamp has no timezone offset")
	// ErrInvalidInput indicates malformed input to a computation
	ErrInvalidInput = errors.New("invalid input")
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseZoned parses a timestamp that must carry an explicit offset.
// Naive timestamps are rejected instead of being assumed to be UTC or local.
func ParseZoned(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNaiveTimestamp, value)
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidInput, value)
}

func checkReference(ref time.Time) error {
	if ref.IsZero() {
		return fmt.Errorf("%w: reference date is required", ErrInvalidInput)
	}
	return nil
}

func checkWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: window start and end are required", ErrInvalidInput)
	}
	if start.After(end) {
		return fmt.Errorf("%w: window start %s is after window end %s", ErrInvalidInput,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}
