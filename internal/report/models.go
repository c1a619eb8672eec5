package report

import (
	"errors"
	"fmt"
)

// Team values as recorded by the replay parser, relative to the reviewed player.
const (
	TeamFriendly = "FRIENDLY"
	TeamEnemy    = "ENEMY"
)

var (
	// ErrInvalidReport is returned when a report fails validation.
	ErrInvalidReport = errors.New("invalid report")
	// ErrNotFound is returned when a match has no stored reports.
	ErrNotFound = errors.New("not found")
)

// Report is one in-game report: a player flagging another at a match time.
// JSON names follow the replay parser's output.
type Report struct {
	ID            string `json:"ID,omitempty"`
	MatchID       int64  `json:"MatchID,omitempty"`
	Time          string `json:"Time"` // mm:ss
	Team          string `json:"Team"` // FRIENDLY or ENEMY
	SteamID       uint64 `json:"SteamID"`
	Slot          int    `json:"Slot"`
	Name          string `json:"Name"`
	Hero          string `json:"Hero"`
	TargetSlot    int    `json:"TargetSlot"`
	TargetSteamID uint64 `json:"TargetSteamID"`
	TargetName    string `json:"TargetName"`
	TargetHero    string `json:"TargetHero"`
	CreatedAt     string `json:"CreatedAt,omitempty"`
}

// ParseResult is the parser's per-match output.
type ParseResult struct {
	MatchID      int64     `json:"MatchID"`
	TeamReports  int       `json:"TeamReports"`
	EnemyReports int       `json:"EnemyReports"`
	Reports      []*Report `json:"Reports"`
}

// MatchSummary aggregates stored reports for one match.
type MatchSummary struct {
	MatchID      int64  `json:"match_id"`
	TeamReports  int    `json:"team_reports"`
	EnemyReports int    `json:"enemy_reports"`
	Total        int    `json:"total"`
	LastReportAt string `json:"last_report_at"`
}

// Minutes returns the report time in minutes.
func (r Report) Minutes() (float64, error) {
	return ParseClock(r.Time)
}

// Label is the hero an icon for this report is keyed by.
func (r Report) Label() string {
	if r.TargetHero != "" {
		return r.TargetHero
	}
	return r.Hero
}

// Validate checks that a report can be stored and laid out.
func (r Report) Validate() error {
	if r.MatchID <= 0 {
		return fmt.Errorf("%w: match id %d", ErrInvalidReport, r.MatchID)
	}
	if _, err := ParseClock(r.Time); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	switch r.Team {
	case TeamFriendly, TeamEnemy:
	default:
		return fmt.Errorf("%w: team %q", ErrInvalidReport, r.Team)
	}
	if r.TargetSlot < 0 || r.TargetSlot > 9 {
		return fmt.Errorf("%w: target slot %d", ErrInvalidReport, r.TargetSlot)
	}
	return nil
}

// Count tallies friendly and enemy reports the way the parser does.
func Count(reports []Report) (team, enemy int) {
	for _, r := range reports {
		switch r.Team {
		case TeamFriendly:
			team++
		case TeamEnemy:
			enemy++
		}
	}
	return team, enemy
}
