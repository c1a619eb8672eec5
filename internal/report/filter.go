package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFilter is returned for player filters that are neither slot_N nor steamid_X.
var ErrInvalidFilter = errors.New("invalid player filter")

// PlayerFilter narrows reports to those targeting one player.
// The zero value matches everything.
type PlayerFilter struct {
	Slot    *int
	SteamID uint64
}

// ParsePlayerFilter accepts "", "slot_N" (N in 0..9) or "steamid_X".
func ParsePlayerFilter(s string) (PlayerFilter, error) {
	switch {
	case s == "":
		return PlayerFilter{}, nil
	case strings.HasPrefix(s, "slot_"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "slot_"))
		if err != nil || n < 0 || n > 9 {
			return PlayerFilter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
		}
		return PlayerFilter{Slot: &n}, nil
	case strings.HasPrefix(s, "steamid_"):
		id, err := strconv.ParseUint(strings.TrimPrefix(s, "steamid_"), 10, 64)
		if err != nil || id == 0 {
			return PlayerFilter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
		}
		return PlayerFilter{SteamID: id}, nil
	}
	return PlayerFilter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
}

// IsZero reports whether the filter matches every report.
func (f PlayerFilter) IsZero() bool { return f.Slot == nil && f.SteamID == 0 }

// Match reports whether r targets the filtered player.
func (f PlayerFilter) Match(r Report) bool {
	if f.Slot != nil && r.TargetSlot != *f.Slot {
		return false
	}
	if f.SteamID != 0 && r.TargetSteamID != f.SteamID {
		return false
	}
	return true
}

func (f PlayerFilter) String() string {
	switch {
	case f.Slot != nil:
		return fmt.Sprintf("slot_%d", *f.Slot)
	case f.SteamID != 0:
		return fmt.Sprintf("steamid_%d", f.SteamID)
	}
	return ""
}

// Apply returns the reports matching f, preserving order.
func (f PlayerFilter) Apply(reports []Report) []Report {
	if f.IsZero() {
		return reports
	}
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
