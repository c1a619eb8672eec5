package layout

import "math"

// TimeRange returns the span of the axis in minutes: the latest event time,
// floored at the axis minimum horizon.
func TimeRange(events []Event, axis Axis) float64 {
	maxTime := 0.0
	for _, e := range events {
		maxTime = max(maxTime, e.TimeMinutes)
	}
	return max(maxTime, axis.MinHorizonMinutes)
}

// ProjectX maps a time in minutes onto the axis.
func ProjectX(t, timeRange float64, axis Axis) float64 {
	if timeRange <= 0 {
		return axis.OriginX
	}
	t = max(t, 0)
	return axis.OriginX + (t/timeRange)*axis.Width
}

// bucketKey quantizes a time to whole seconds.
func bucketKey(t float64) int64 {
	return int64(math.Floor(max(t, 0) * 60))
}
