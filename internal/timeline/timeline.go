// Package timeline turns a match's reports into a two-lane chart: lane
// bands, axis ticks and one decluttered icon per report.
package timeline

import (
	"fmt"
	"math"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/report"
)

// Team per lane: friendly reports on top, enemy reports below.
var laneTeams = map[layout.Lane]string{
	layout.LaneA: report.TeamFriendly,
	layout.LaneB: report.TeamEnemy,
}

// LaneForTeam maps a report team onto its lane.
func LaneForTeam(team string) (layout.Lane, bool) {
	switch team {
	case report.TeamFriendly:
		return layout.LaneA, true
	case report.TeamEnemy:
		return layout.LaneB, true
	}
	return "", false
}

// LaneBand is a lane's vertical extent on the canvas.
type LaneBand struct {
	Lane    layout.Lane `json:"lane"`
	Team    string      `json:"team"`
	TopY    float64     `json:"top_y"`
	BottomY float64     `json:"bottom_y"`
}

// Tick is one labelled time gridline.
type Tick struct {
	Minutes float64 `json:"minutes"`
	X       float64 `json:"x"`
	Label   string  `json:"label"`
}

// Icon is a placed report with what a renderer needs to draw and hit-test it.
type Icon struct {
	Report  report.Report `json:"report"`
	Lane    layout.Lane   `json:"lane"`
	Label   string        `json:"label"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	CenterX float64       `json:"center_x"`
	CenterY float64       `json:"center_y"`
	Radius  float64       `json:"radius"`
}

// Chart is the assembled timeline for one match.
type Chart struct {
	Width      float64              `json:"width"`
	Height     float64              `json:"height"`
	OriginX    float64              `json:"origin_x"`
	GraphWidth float64              `json:"graph_width"`
	TimeRange  float64              `json:"time_range"`
	Lanes      []LaneBand           `json:"lanes"`
	Ticks      []Tick               `json:"ticks"`
	Icons      []Icon               `json:"icons"`
	Stats      layout.Stats         `json:"stats"`
	Skipped    int                  `json:"skipped"`
	Overlaps   []layout.OverlapPair `json:"overlaps,omitempty"`
}

// Input is everything the layout engine needs for one chart.
type Input struct {
	Canvas  Canvas
	Events  []layout.Event
	Lanes   map[layout.Lane]layout.LaneGeometry
	Axis    layout.Axis
	Reports []report.Report // parallel to Events
	Skipped int
}

// Prepare converts reports into layout events. Reports with an unparsable
// time or an unknown team are skipped and counted.
func Prepare(reports []report.Report, canvas Canvas) (*Input, error) {
	canvas = canvas.Normalize()
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	in := &Input{
		Canvas: canvas,
		Lanes:  canvas.Lanes(),
		Axis:   canvas.Axis(),
	}
	for i, r := range reports {
		minutes, err := r.Minutes()
		if err != nil {
			in.Skipped++
			continue
		}
		lane, ok := LaneForTeam(r.Team)
		if !ok {
			in.Skipped++
			continue
		}
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("report-%d", i)
		}
		in.Events = append(in.Events, layout.Event{ID: id, TimeMinutes: minutes, Lane: lane})
		in.Reports = append(in.Reports, r)
	}
	return in, nil
}

// Assemble joins a layout result with the prepared reports.
func Assemble(in *Input, res *layout.Result, tolerance float64) (*Chart, error) {
	if len(res.Placements) != len(in.Events) {
		return nil, fmt.Errorf("layout returned %d placements for %d events", len(res.Placements), len(in.Events))
	}
	c := in.Canvas
	timeRange := layout.TimeRange(in.Events, in.Axis)
	chart := &Chart{
		Width:      c.Width,
		Height:     c.Height(),
		OriginX:    in.Axis.OriginX,
		GraphWidth: in.Axis.Width,
		TimeRange:  timeRange,
		Ticks:      Ticks(timeRange, in.Axis),
		Icons:      make([]Icon, 0, len(res.Placements)),
		Stats:      res.Stats,
		Skipped:    in.Skipped,
	}
	for _, lane := range layout.Lanes {
		g := in.Lanes[lane]
		chart.Lanes = append(chart.Lanes, LaneBand{Lane: lane, Team: laneTeams[lane], TopY: g.TopY, BottomY: g.BottomY})
	}

	radius := c.IconSize / 2
	for i, p := range res.Placements {
		r := in.Reports[i]
		chart.Icons = append(chart.Icons, Icon{
			Report:  r,
			Lane:    p.Lane,
			Label:   r.Label(),
			X:       p.X,
			Y:       p.Y,
			CenterX: p.X,
			CenterY: p.Y + radius,
			Radius:  radius,
		})
	}
	chart.Overlaps = layout.Overlaps(res.Placements, in.Lanes, tolerance)
	return chart, nil
}

// Build prepares, lays out and assembles a chart in one call.
func Build(reports []report.Report, canvas Canvas, params layout.Params) (*Chart, error) {
	in, err := Prepare(reports, canvas)
	if err != nil {
		return nil, err
	}
	res, err := layout.Compute(in.Events, in.Lanes, in.Axis, params)
	if err != nil {
		return nil, err
	}
	return Assemble(in, res, Tolerance(params))
}

// Tolerance is the overlap slack used when re-checking a layout.
func Tolerance(params layout.Params) float64 {
	if params.CorrectionTolerance > 0 {
		return params.CorrectionTolerance
	}
	return layout.DefaultParams().CorrectionTolerance
}

// MaxTicks caps the number of axis intervals.
const MaxTicks = 20

// Ticks labels the axis every two minutes, with at most MaxTicks intervals.
func Ticks(timeRange float64, axis layout.Axis) []Tick {
	if timeRange <= 0 {
		return nil
	}
	n := min(MaxTicks, int(math.Ceil(timeRange/2)))
	ticks := make([]Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) * timeRange / float64(n)
		ticks = append(ticks, Tick{
			Minutes: t,
			X:       layout.ProjectX(t, timeRange, axis),
			Label:   report.FormatClock(t),
		})
	}
	return ticks
}
