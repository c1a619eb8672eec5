// Package layout places time-stamped report icons on a two-lane time axis so
// that fixed-size circles do not collide while staying close to their time.
// Pure computation: no imports from other internal packages.
package layout

// Lane identifies one of the two vertical bands an event belongs to.
type Lane string

const (
	LaneA Lane = "A"
	LaneB Lane = "B"
)

// Lanes lists the lanes in layout order.
var Lanes = []Lane{LaneA, LaneB}

// Event is a single input to the engine. TimeMinutes is minutes + seconds/60.
type Event struct {
	ID          string  `json:"id"`
	TimeMinutes float64 `json:"time_minutes"`
	Lane        Lane    `json:"lane"`
}

// LaneGeometry describes the vertical band of one lane and the icon size used in it.
type LaneGeometry struct {
	TopY         float64 `json:"top_y" yaml:"top_y"`
	BottomY      float64 `json:"bottom_y" yaml:"bottom_y"`
	IconDiameter float64 `json:"icon_diameter" yaml:"icon_diameter"`
	IconSpacing  float64 `json:"icon_spacing" yaml:"icon_spacing"`
	// TopInset is the gap between TopY and the first stacked icon.
	TopInset float64 `json:"top_inset" yaml:"top_inset"`
}

func (g LaneGeometry) radius() float64 { return g.IconDiameter / 2 }

func (g LaneGeometry) minSeparation() float64 { return g.IconDiameter + g.IconSpacing }

func (g LaneGeometry) stackTop() float64 { return g.TopY + g.TopInset }

// minY and maxY bound the icon's top edge.
func (g LaneGeometry) minY() float64 { return g.TopY }

func (g LaneGeometry) maxY() float64 { return g.BottomY - g.IconDiameter }

func (g LaneGeometry) clampY(y float64) float64 {
	return max(g.minY(), min(g.maxY(), y))
}

// Axis is the linear time scale shared by both lanes.
type Axis struct {
	OriginX float64 `json:"origin_x" yaml:"origin_x"`
	Width   float64 `json:"width" yaml:"width"`
	// MinHorizonMinutes keeps near-empty matches on a sensible axis.
	MinHorizonMinutes float64 `json:"min_horizon_minutes" yaml:"min_horizon_minutes"`
}

// DefaultMinHorizonMinutes is the shortest time range an axis spans.
const DefaultMinHorizonMinutes = 60

// DefaultTopInset is the gap between a lane's top edge and its first icon.
const DefaultTopInset = 10

// Params tunes the packing. Zero fields take the defaults from DefaultParams.
type Params struct {
	XGroupThresholdFactor float64 `json:"x_group_threshold_factor" yaml:"x_group_threshold_factor"`
	MaxIterations         int     `json:"max_iterations" yaml:"max_iterations"`
	Damping               float64 `json:"damping" yaml:"damping"`
	MinForceEpsilon       float64 `json:"min_force_epsilon" yaml:"min_force_epsilon"`
	TotalMovementEpsilon  float64 `json:"total_movement_epsilon" yaml:"total_movement_epsilon"`
	CorrectionTolerance   float64 `json:"correction_tolerance" yaml:"correction_tolerance"`
}

// DefaultParams returns the reference packing parameters.
func DefaultParams() Params {
	return Params{
		XGroupThresholdFactor: 1.5,
		MaxIterations:         500,
		Damping:               0.9,
		MinForceEpsilon:       0.1,
		TotalMovementEpsilon:  0.01,
		CorrectionTolerance:   0.5,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.XGroupThresholdFactor == 0 {
		p.XGroupThresholdFactor = d.XGroupThresholdFactor
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = d.MaxIterations
	}
	if p.Damping == 0 {
		p.Damping = d.Damping
	}
	if p.MinForceEpsilon == 0 {
		p.MinForceEpsilon = d.MinForceEpsilon
	}
	if p.TotalMovementEpsilon == 0 {
		p.TotalMovementEpsilon = d.TotalMovementEpsilon
	}
	if p.CorrectionTolerance == 0 {
		p.CorrectionTolerance = d.CorrectionTolerance
	}
	return p
}

// Placement is the computed position of one event. The icon's center is
// (X, Y + IconDiameter/2).
type Placement struct {
	EventID string  `json:"event_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Lane    Lane    `json:"lane"`
}

// LaneStats reports how the relaxation went for one lane.
type LaneStats struct {
	Candidates int  `json:"candidates"`
	Clusters   int  `json:"clusters"`
	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`
}

// Stats summarizes a layout run.
type Stats struct {
	Lanes            map[Lane]LaneStats `json:"lanes"`
	TimeRange        float64            `json:"time_range"`
	ResidualOverlaps int                `json:"residual_overlaps"`
}

// Result is the full output of Compute.
type Result struct {
	Placements []Placement `json:"placements"`
	Stats      Stats       `json:"stats"`
}
