package layout

import (
	"math"
	"sort"
)

const (
	// coincidentEpsilon is the distance below which two centers count as the same point.
	coincidentEpsilon = 0.001
	// sameColumnPx is the x gap under which candidates are ordered by y.
	sameColumnPx = 1.0
)

// seedOrder sorts candidates left to right, ordering near-equal x by y.
func seedOrder(cs []candidate) {
	sort.SliceStable(cs, func(a, b int) bool {
		if math.Abs(cs[a].x-cs[b].x) < sameColumnPx {
			return cs[a].y < cs[b].y
		}
		return cs[a].x < cs[b].x
	})
}

// cluster groups candidates greedily: each one joins the first cluster whose
// anchor x is within threshold, otherwise it anchors a new cluster. Returned
// clusters hold indices into cs, in creation order.
func cluster(cs []candidate, threshold float64) [][]int {
	var anchors []float64
	var groups [][]int
	for i, c := range cs {
		joined := false
		for g, ax := range anchors {
			if math.Abs(c.x-ax) < threshold {
				groups[g] = append(groups[g], i)
				joined = true
				break
			}
		}
		if !joined {
			anchors = append(anchors, c.x)
			groups = append(groups, []int{i})
		}
	}
	return groups
}

// restack packs every cluster densely from the lane's stack top, keeping the
// clusters' current vertical order.
func restack(cs []candidate, groups [][]int, g LaneGeometry) {
	step := g.minSeparation()
	for _, members := range groups {
		sort.SliceStable(members, func(a, b int) bool { return cs[members[a]].y < cs[members[b]].y })
		y := g.stackTop()
		for _, i := range members {
			cs[i].y = g.clampY(y)
			y += step
		}
	}
}

// relax runs bounded pairwise repulsion passes over one lane's candidates and
// returns the number of passes executed and whether movement settled.
func relax(cs []candidate, g LaneGeometry, p Params) (int, bool) {
	minSep := g.minSeparation()
	push := minSep/2 + g.IconSpacing
	forces := make([]float64, len(cs))

	for iter := 1; iter <= p.MaxIterations; iter++ {
		clear(forces)
		for i := range cs {
			for j := i + 1; j < len(cs); j++ {
				dx := cs[i].x - cs[j].x
				dy := cs[i].y - cs[j].y
				d := math.Hypot(dx, dy)
				if d >= minSep {
					continue
				}
				if d > coincidentEpsilon && math.Abs(dy) > coincidentEpsilon {
					// Each side takes half the overlap depth, projected onto y.
					fy := (dy / d) * (minSep - d) / 2
					forces[i] += fy
					forces[j] -= fy
					continue
				}
				// No usable vertical direction: push the pair apart symmetrically.
				if cs[i].y < cs[j].y {
					forces[i] -= push
					forces[j] += push
				} else {
					forces[i] += push
					forces[j] -= push
				}
			}
		}

		var movement float64
		for i := range cs {
			if math.Abs(forces[i]) <= p.MinForceEpsilon {
				continue
			}
			y := g.clampY(cs[i].y + forces[i]*p.Damping)
			movement += math.Abs(y - cs[i].y)
			cs[i].y = y
		}
		if movement < p.TotalMovementEpsilon {
			return iter, true
		}
	}
	return p.MaxIterations, false
}
