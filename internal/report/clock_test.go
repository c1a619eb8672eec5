package report

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00", 0},
		{"05:30", 5.5},
		{"5:03", 5.05},
		{"75:45", 75.75},
		{" 12:00 ", 12},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, in := range []string{"", "12", "1:2:3", "aa:10", "10:bb", "10:60", "-1:10", "10:-5", "10:"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidClock) {
			t.Errorf("ParseClock(%q) err = %v, want ErrInvalidClock", in, err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{5.5, "05:30"},
		{62.25, "62:15"},
		{3.999, "03:59"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
