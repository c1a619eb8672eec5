package layout

// ComputeLayout returns one placement per event, in input order.
func ComputeLayout(events []Event, lanes map[Lane]LaneGeometry, axis Axis, params Params) ([]Placement, error) {
	res, err := Compute(events, lanes, axis, params)
	if err != nil {
		return nil, err
	}
	return res.Placements, nil
}

// Compute lays out both lanes independently and reports per-lane statistics.
// It is pure: identical arguments, including event order, give identical output.
func Compute(events []Event, lanes map[Lane]LaneGeometry, axis Axis, params Params) (*Result, error) {
	if err := validate(events, lanes, axis, params); err != nil {
		return nil, err
	}
	params = params.withDefaults()

	res := &Result{
		Placements: make([]Placement, len(events)),
		Stats:      Stats{Lanes: make(map[Lane]LaneStats, len(Lanes))},
	}
	if len(events) == 0 {
		return res, nil
	}

	timeRange := TimeRange(events, axis)
	res.Stats.TimeRange = timeRange

	byLane := make(map[Lane][]int, len(Lanes))
	for i, e := range events {
		byLane[e.Lane] = append(byLane[e.Lane], i)
	}

	for _, lane := range Lanes {
		indices := byLane[lane]
		if len(indices) == 0 {
			continue
		}
		g := lanes[lane]
		cs, st := layoutLane(events, indices, g, timeRange, axis, params)
		res.Stats.Lanes[lane] = st
		for _, c := range cs {
			res.Placements[c.idx] = Placement{EventID: c.id, X: c.x, Y: c.y, Lane: lane}
		}
	}

	res.Stats.ResidualOverlaps = len(Overlaps(res.Placements, lanes, params.CorrectionTolerance))
	return res, nil
}

// layoutLane runs the full pipeline for one lane.
func layoutLane(events []Event, indices []int, g LaneGeometry, timeRange float64, axis Axis, p Params) ([]candidate, LaneStats) {
	cs := initialStack(events, indices, g, timeRange, axis)

	seedOrder(cs)
	groups := cluster(cs, p.XGroupThresholdFactor*g.radius())
	restack(cs, groups, g)

	iterations, converged := relax(cs, g, p)
	correct(cs, g, p.CorrectionTolerance)

	for i := range cs {
		cs[i].y = g.clampY(cs[i].y)
	}

	return cs, LaneStats{
		Candidates: len(cs),
		Clusters:   len(groups),
		Iterations: iterations,
		Converged:  converged,
	}
}
