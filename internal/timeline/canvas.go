package timeline

import (
	"fmt"

	"github.com/reportlane/reportlane/internal/layout"
)

// Padding is the space around the plot area.
type Padding struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Canvas describes the chart the timeline is laid out for.
type Canvas struct {
	Width             float64 `yaml:"width" json:"width"`
	Padding           Padding `yaml:"padding" json:"padding"`
	IconSize          float64 `yaml:"icon_size" json:"icon_size"`
	IconSpacing       float64 `yaml:"icon_spacing" json:"icon_spacing"`
	TeamRegionHeight  float64 `yaml:"team_region_height" json:"team_region_height"`
	TopInset          float64 `yaml:"top_inset" json:"top_inset"`
	MinHorizonMinutes float64 `yaml:"min_horizon_minutes" json:"min_horizon_minutes"`
}

// MinWidth is the narrowest canvas a chart is laid out for.
const MinWidth = 800

// DefaultCanvas matches the dashboard's timeline panel.
func DefaultCanvas() Canvas {
	return Canvas{
		Width:             1200,
		Padding:           Padding{Top: 60, Right: 40, Bottom: 60, Left: 80},
		IconSize:          40,
		IconSpacing:       5,
		TeamRegionHeight:  120,
		TopInset:          layout.DefaultTopInset,
		MinHorizonMinutes: layout.DefaultMinHorizonMinutes,
	}
}

// Normalize fills zero fields from DefaultCanvas and floors the width.
func (c Canvas) Normalize() Canvas {
	d := DefaultCanvas()
	if c.Width == 0 {
		c.Width = d.Width
	}
	c.Width = max(c.Width, MinWidth)
	if c.Padding == (Padding{}) {
		c.Padding = d.Padding
	}
	if c.IconSize == 0 {
		c.IconSize = d.IconSize
	}
	if c.TeamRegionHeight == 0 {
		c.TeamRegionHeight = d.TeamRegionHeight
	}
	if c.MinHorizonMinutes == 0 {
		c.MinHorizonMinutes = d.MinHorizonMinutes
	}
	return c
}

// Height is the full canvas height: padding plus two team regions.
func (c Canvas) Height() float64 {
	return c.Padding.Top + c.TeamRegionHeight*2 + c.Padding.Bottom
}

// GraphWidth is the width of the plot area.
func (c Canvas) GraphWidth() float64 {
	return c.Width - c.Padding.Left - c.Padding.Right
}

// Axis is the time scale of the plot area.
func (c Canvas) Axis() layout.Axis {
	return layout.Axis{
		OriginX:           c.Padding.Left,
		Width:             c.GraphWidth(),
		MinHorizonMinutes: c.MinHorizonMinutes,
	}
}

// Lanes returns the friendly band above the enemy band.
func (c Canvas) Lanes() map[layout.Lane]layout.LaneGeometry {
	top := c.Padding.Top
	band := func(y float64) layout.LaneGeometry {
		return layout.LaneGeometry{
			TopY:         y,
			BottomY:      y + c.TeamRegionHeight,
			IconDiameter: c.IconSize,
			IconSpacing:  c.IconSpacing,
			TopInset:     c.TopInset,
		}
	}
	return map[layout.Lane]layout.LaneGeometry{
		layout.LaneA: band(top),
		layout.LaneB: band(top + c.TeamRegionHeight),
	}
}

// Validate checks the canvas after normalization.
func (c Canvas) Validate() error {
	c = c.Normalize()
	if c.GraphWidth() <= 0 {
		return fmt.Errorf("%w: padding %.0f+%.0f leaves no plot width in %.0f",
			layout.ErrInvalidGeometry, c.Padding.Left, c.Padding.Right, c.Width)
	}
	for lane, g := range c.Lanes() {
		if err := layout.ValidateGeometry(lane, g); err != nil {
			return err
		}
	}
	return nil
}
