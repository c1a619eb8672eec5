package layout

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGeometry is returned for non-positive dimensions, inverted or
	// overlapping lane bands and malformed axes.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidParams is returned for packing parameters outside their domain.
	ErrInvalidParams = errors.New("invalid packing parameters")
	// ErrInvalidEvent is returned for events with a non-finite time or an unknown lane.
	ErrInvalidEvent = errors.New("invalid event")
)

// GeometryError carries the lane and reason behind an ErrInvalidGeometry.
type GeometryError struct {
	Lane   Lane
	Reason string
}

func (e *GeometryError) Error() string {
	if e.Lane == "" {
		return fmt.Sprintf("invalid geometry: %s", e.Reason)
	}
	return fmt.Sprintf("invalid geometry for lane %s: %s", e.Lane, e.Reason)
}

func (e *GeometryError) Unwrap() error { return ErrInvalidGeometry }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ValidateGeometry checks a single lane band.
func ValidateGeometry(lane Lane, g LaneGeometry) error {
	switch {
	case !finite(g.TopY, g.BottomY, g.IconDiameter, g.IconSpacing, g.TopInset):
		return &GeometryError{Lane: lane, Reason: "non-finite value"}
	case g.BottomY <= g.TopY:
		return &GeometryError{Lane: lane, Reason: fmt.Sprintf("bottom_y %.1f <= top_y %.1f", g.BottomY, g.TopY)}
	case g.IconDiameter <= 0:
		return &GeometryError{Lane: lane, Reason: fmt.Sprintf("icon diameter %.1f must be positive", g.IconDiameter)}
	case g.IconSpacing < 0:
		return &GeometryError{Lane: lane, Reason: "negative icon spacing"}
	case g.TopInset < 0:
		return &GeometryError{Lane: lane, Reason: "negative top inset"}
	case g.BottomY-g.TopY < g.IconDiameter:
		return &GeometryError{Lane: lane, Reason: "band is shorter than one icon"}
	}
	return nil
}

func validateAxis(a Axis) error {
	switch {
	case !finite(a.OriginX, a.Width, a.MinHorizonMinutes):
		return &GeometryError{Reason: "non-finite axis value"}
	case a.Width < 0:
		return &GeometryError{Reason: fmt.Sprintf("negative axis width %.1f", a.Width)}
	case a.MinHorizonMinutes < 0:
		return &GeometryError{Reason: "negative minimum horizon"}
	}
	return nil
}

// ValidateParams checks packing parameters after defaults are applied.
func ValidateParams(p Params) error {
	p = p.withDefaults()
	switch {
	case !finite(p.XGroupThresholdFactor, p.Damping, p.MinForceEpsilon, p.TotalMovementEpsilon, p.CorrectionTolerance):
		return fmt.Errorf("%w: non-finite value", ErrInvalidParams)
	case p.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations %d is negative", ErrInvalidParams, p.MaxIterations)
	case p.Damping < 0 || p.Damping > 1:
		return fmt.Errorf("%w: damping %.2f outside (0, 1]", ErrInvalidParams, p.Damping)
	case p.XGroupThresholdFactor < 0:
		return fmt.Errorf("%w: negative x group threshold factor", ErrInvalidParams)
	case p.MinForceEpsilon < 0 || p.TotalMovementEpsilon < 0 || p.CorrectionTolerance < 0:
		return fmt.Errorf("%w: negative epsilon", ErrInvalidParams)
	}
	return nil
}

// validate runs every check before any computation starts.
func validate(events []Event, lanes map[Lane]LaneGeometry, axis Axis, params Params) error {
	if err := validateAxis(axis); err != nil {
		return err
	}
	if err := ValidateParams(params); err != nil {
		return err
	}
	for lane, g := range lanes {
		if lane != LaneA && lane != LaneB {
			return &GeometryError{Lane: lane, Reason: "unknown lane"}
		}
		if err := ValidateGeometry(lane, g); err != nil {
			return err
		}
	}
	if a, okA := lanes[LaneA]; okA {
		if b, okB := lanes[LaneB]; okB && a.TopY < b.BottomY && b.TopY < a.BottomY {
			return &GeometryError{Reason: "lane bands overlap"}
		}
	}
	for _, e := range events {
		if !finite(e.TimeMinutes) {
			return fmt.Errorf("%w: event %q has non-finite time", ErrInvalidEvent, e.ID)
		}
		if e.Lane != LaneA && e.Lane != LaneB {
			return fmt.Errorf("%w: event %q has unknown lane %q", ErrInvalidEvent, e.ID, e.Lane)
		}
		if _, ok := lanes[e.Lane]; !ok {
			return &GeometryError{Lane: e.Lane, Reason: "no geometry for lane with events"}
		}
	}
	return nil
}
