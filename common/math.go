package common

import "math"

// SnapToGrid rounds v, measured from origin, to the nearest grid line.
func SnapToGrid(v, origin, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round((origin+v)/grid)*grid - origin
}
