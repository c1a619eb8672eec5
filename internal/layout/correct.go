package layout

import (
	"math"
	"sort"
)

// correct clears pairs relaxation left closer than minSeparation-tolerance.
// A top-down sweep settles icons in y order and pushes each one just below
// every settled icon it still overlaps. If that runs past the lane bottom, a
// bottom-up sweep lifts icons back above their settled neighbours. When even
// that cannot fit the lane, the relaxed positions are kept and split once.
func correct(cs []candidate, g LaneGeometry, tolerance float64) {
	relaxed := make([]float64, len(cs))
	order := make([]int, len(cs))
	for i := range cs {
		relaxed[i] = cs[i].y
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool { return cs[order[a]].y < cs[order[b]].y })
	if !settle(cs, order, g, tolerance, 1) {
		return
	}

	for i := range cs {
		cs[i].y = min(cs[i].y, g.maxY())
	}
	sort.SliceStable(order, func(a, b int) bool { return cs[order[a]].y > cs[order[b]].y })
	settle(cs, order, g, tolerance, -1)

	for i := range cs {
		if cs[i].y < g.minY() {
			for k := range cs {
				cs[k].y = relaxed[k]
			}
			split(cs, g, tolerance)
			return
		}
	}
}

// settle walks order, moving each candidate along dir (1 down, -1 up) until
// it is a full minSeparation from every candidate settled before it. It
// reports whether anything ended below the lane.
func settle(cs []candidate, order []int, g LaneGeometry, tolerance, dir float64) bool {
	minSep := g.minSeparation()
	limit := minSep - tolerance
	overflow := false
	for k, i := range order {
		for moved := true; moved; {
			moved = false
			for _, j := range order[:k] {
				dx := cs[i].x - cs[j].x
				if math.Abs(dx) >= minSep || math.Hypot(dx, cs[i].y-cs[j].y) >= limit {
					continue
				}
				y := cs[j].y + dir*math.Sqrt(minSep*minSep-dx*dx)
				if (y-cs[i].y)*dir > 0 {
					cs[i].y = y
					moved = true
				}
			}
		}
		if cs[i].y > g.maxY() {
			overflow = true
		}
	}
	return overflow
}

// split makes one pass over overlapping pairs and splits the deficit between
// them along y. Pairs already a full icon apart vertically are left alone.
func split(cs []candidate, g LaneGeometry, tolerance float64) {
	minSep := g.minSeparation()
	for i := range cs {
		for j := i + 1; j < len(cs); j++ {
			dy := cs[i].y - cs[j].y
			d := math.Hypot(cs[i].x-cs[j].x, dy)
			if d >= minSep-tolerance || math.Abs(dy) >= g.IconDiameter {
				continue
			}
			half := (minSep - d) / 2
			upper, lower := i, j
			if cs[i].y >= cs[j].y {
				upper, lower = j, i
			}
			cs[upper].y = max(g.minY(), cs[upper].y-half)
			cs[lower].y = min(g.maxY(), cs[lower].y+half)
		}
	}
}

// OverlapPair names two placements in the same lane whose centers are closer
// than the configured separation.
type OverlapPair struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Lane     Lane    `json:"lane"`
	Distance float64 `json:"distance"`
}

// Overlaps re-checks placements and returns every same-lane pair whose center
// distance is below IconDiameter+IconSpacing-tolerance. Placements for lanes
// without geometry are ignored.
func Overlaps(placements []Placement, lanes map[Lane]LaneGeometry, tolerance float64) []OverlapPair {
	var out []OverlapPair
	for i := range placements {
		a := placements[i]
		g, ok := lanes[a.Lane]
		if !ok {
			continue
		}
		limit := g.minSeparation() - tolerance
		for j := i + 1; j < len(placements); j++ {
			b := placements[j]
			if b.Lane != a.Lane {
				continue
			}
			if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < limit {
				out = append(out, OverlapPair{A: a.EventID, B: b.EventID, Lane: a.Lane, Distance: d})
			}
		}
	}
	return out
}
