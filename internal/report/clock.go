package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidClock is returned for match times that are not mm:ss.
var ErrInvalidClock = errors.New("invalid match time")

// ParseClock converts "mm:ss" into minutes (minutes + seconds/60).
// Minutes may exceed 59; seconds may not.
func ParseClock(s string) (float64, error) {
	mm, ss, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.Contains(ss, ":") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minutes, err := strconv.ParseUint(mm, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	seconds, err := strconv.ParseUint(ss, 10, 8)
	if err != nil || seconds >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return float64(minutes) + float64(seconds)/60, nil
}

// FormatClock renders minutes as zero-padded mm:ss, truncating partial seconds.
func FormatClock(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}
	m := math.Floor(minutes)
	s := math.Floor((minutes - m) * 60)
	return fmt.Sprintf("%02d:%02d", int(m), int(s))
}

// clockSeconds returns the report time in whole seconds for ordering.
func clockSeconds(s string) (int64, error) {
	m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(m * 60)), nil
}
