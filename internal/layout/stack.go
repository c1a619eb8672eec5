package layout

import "sort"

// candidate is an icon being laid out. idx points back into the input slice.
type candidate struct {
	idx int
	id  string
	x   float64
	y   float64
}

// initialStack groups one lane's events by whole second and stacks each bucket
// top-down. Buckets are visited in time order and events keep input order
// inside a bucket. Buckets that project to the same x continue one stack.
func initialStack(events []Event, indices []int, g LaneGeometry, timeRange float64, axis Axis) []candidate {
	buckets := make(map[int64][]int)
	var keys []int64
	for _, i := range indices {
		k := bucketKey(events[i].TimeMinutes)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], i)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	step := g.minSeparation()
	nextY := make(map[float64]float64)
	out := make([]candidate, 0, len(indices))
	for _, k := range keys {
		members := buckets[k]
		anchor := ProjectX(events[members[0]].TimeMinutes, timeRange, axis)
		y, ok := nextY[anchor]
		if !ok {
			y = g.stackTop()
		}
		for _, i := range members {
			out = append(out, candidate{
				idx: i,
				id:  events[i].ID,
				x:   ProjectX(events[i].TimeMinutes, timeRange, axis),
				y:   y,
			})
			y += step
		}
		nextY[anchor] = y
	}
	return out
}
