package timeparser

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseRecordDate parses an operator-entered calendar date and returns it in
// ISO form (YYYY-MM-DD)
func ParseRecordDate(dateStr string) (string, error) {
	formats := []string{
		dateLayout,   // YYYY-MM-DD
		"02/01/2006", // DD/MM/YYYY
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.Format(dateLayout), nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("failed to parse date '%s': %w", dateStr, lastErr)
}

// ParseRecordTimestamp attempts to parse a record timestamp with multiple formats
func ParseRecordTimestamp(tsStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339,          // Standard RFC3339
		"2006-01-02T15:04:05", // date + time without zone
		"2006-01-02T15:04",    // date + time input
		"02/01/2006 15:04:05", // DD/MM/YYYY HH:mm:ss
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, tsStr)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", tsStr, lastErr)
}

// DateOf returns the calendar date of t in ISO form
func DateOf(t time.Time) string {
	return t.Format(dateLayout)
}

// IsTooFarAhead reports whether ts lies more than tolerance after now.
// A zero tolerance disables the check.
func IsTooFarAhead(ts, now time.Time, tolerance time.Duration) bool {
	if tolerance <= 0 {
		return false
	}
	return ts.Sub(now) > tolerance
}
