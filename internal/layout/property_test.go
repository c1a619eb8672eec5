package layout

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func drawEvents(t *rapid.T, maxEvents int) []Event {
	n := rapid.IntRange(0, maxEvents).Draw(t, "n")
	events := make([]Event, n)
	for i := range events {
		lane := LaneA
		if rapid.Bool().Draw(t, fmt.Sprintf("laneB-%d", i)) {
			lane = LaneB
		}
		events[i] = Event{
			ID:          fmt.Sprintf("r%d", i),
			TimeMinutes: rapid.Float64Range(0, 90).Draw(t, fmt.Sprintf("time-%d", i)),
			Lane:        lane,
		}
	}
	return events
}

// TestProperty_TotalAndBounded checks totality, lane containment, time order and the iteration cap.
func TestProperty_TotalAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := drawEvents(t, 40)
		params := DefaultParams()
		params.MaxIterations = rapid.IntRange(1, 60).Draw(t, "maxIterations")
		lanes := testLanes()

		res, err := Compute(events, lanes, testAxis, params)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if len(res.Placements) != len(events) {
			t.Fatalf("placements = %d, want %d", len(res.Placements), len(events))
		}

		for i, p := range res.Placements {
			e := events[i]
			if p.EventID != e.ID || p.Lane != e.Lane {
				t.Fatalf("placement %d = %+v for event %+v", i, p, e)
			}
			g := lanes[p.Lane]
			if p.Y < g.TopY || p.Y > g.BottomY-g.IconDiameter {
				t.Fatalf("%s y = %v outside lane %s band", p.EventID, p.Y, p.Lane)
			}
			for j := range res.Placements {
				q := res.Placements[j]
				if q.Lane == p.Lane && events[j].TimeMinutes > e.TimeMinutes && q.X < p.X {
					t.Fatalf("x not monotonic: %s t=%v x=%v vs %s t=%v x=%v",
						p.EventID, e.TimeMinutes, p.X, q.EventID, events[j].TimeMinutes, q.X)
				}
			}
		}

		for lane, st := range res.Stats.Lanes {
			if st.Iterations > params.MaxIterations {
				t.Fatalf("lane %s ran %d passes, cap %d", lane, st.Iterations, params.MaxIterations)
			}
		}
	})
}

func TestProperty_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		events := drawEvents(t, 30)
		first, err := ComputeLayout(events, testLanes(), testAxis, DefaultParams())
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		second, err := ComputeLayout(events, testLanes(), testAxis, DefaultParams())
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("layouts differ for identical input")
		}
	})
}

// laneCapacity is how many icons fit in one column below the lane's top inset.
func laneCapacity(g LaneGeometry) int {
	return int((g.BottomY-g.TopY-g.TopInset-g.IconDiameter)/g.minSeparation()) + 1
}

// TestProperty_NoOverlapUnderNormalLoad places any times within the hour,
// bounded only by how many icons one column of the lane can hold.
func TestProperty_NoOverlapUnderNormalLoad(t *testing.T) {
	lanes := map[Lane]LaneGeometry{
		LaneA: {TopY: 60, BottomY: 240, IconDiameter: 40, IconSpacing: 5, TopInset: 10},
		LaneB: {TopY: 240, BottomY: 520, IconDiameter: 40, IconSpacing: 5, TopInset: 10},
	}

	rapid.Check(t, func(t *rapid.T) {
		var events []Event
		for _, lane := range Lanes {
			n := rapid.IntRange(0, laneCapacity(lanes[lane])).Draw(t, "n-"+string(lane))
			for k := range n {
				events = append(events, Event{
					ID:          fmt.Sprintf("%s-%d", lane, k),
					TimeMinutes: rapid.Float64Range(0, 60).Draw(t, fmt.Sprintf("time-%s-%d", lane, k)),
					Lane:        lane,
				})
			}
		}

		res, err := Compute(events, lanes, testAxis, DefaultParams())
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if ov := Overlaps(res.Placements, lanes, DefaultParams().CorrectionTolerance); len(ov) != 0 {
			t.Fatalf("overlaps under normal load: %+v", ov)
		}
		if res.Stats.ResidualOverlaps != 0 {
			t.Fatalf("residual overlaps = %d", res.Stats.ResidualOverlaps)
		}
	})
}

func TestProperty_OverloadStillTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(4, 40).Draw(t, "n")
		at := rapid.Float64Range(0, 60).Draw(t, "at")
		events := make([]Event, n)
		for i := range events {
			events[i] = Event{ID: fmt.Sprintf("r%d", i), TimeMinutes: at, Lane: LaneB}
		}
		lanes := testLanes()
		ps, err := ComputeLayout(events, lanes, testAxis, DefaultParams())
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if len(ps) != n {
			t.Fatalf("placements = %d, want %d", len(ps), n)
		}
		g := lanes[LaneB]
		for _, p := range ps {
			if p.Y < g.TopY || p.Y > g.BottomY-g.IconDiameter {
				t.Fatalf("%s y = %v outside [%v, %v]", p.EventID, p.Y, g.TopY, g.BottomY-g.IconDiameter)
			}
		}
	})
}
