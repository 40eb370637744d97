package projection

import (
	"errors"
	"fmt"
	"math"
)

// Axis selects the hemisphere letters used by DecToDMS.
type Axis int

const (
	AxisLat Axis = iota
	AxisLon
)

var ErrUnknownAxis = errors.New("projection: unknown axis type")

// DecToDMS formats decimal degrees as degrees, minutes and seconds, e.g.
// ` 12d30' 0.00"N`.
func DecToDMS(angle float64, axis Axis, precision int) (string, error) {
	var pos, neg string
	switch axis {
	case AxisLat:
		pos, neg = "N", "S"
	case AxisLon:
		pos, neg = "E", "W"
	default:
		return "", ErrUnknownAxis
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return "Invalid angle", nil
	}
	precision = max(precision, 0)
	hemi := pos
	if angle < 0 {
		hemi = neg
	}
	abs := math.Abs(angle)
	round := 0.5 / 60 * math.Pow(0.1, float64(precision))
	deg := int(abs)
	mins := int((abs-float64(deg))*60 + round)
	if mins == 60 {
		deg++
		mins = 0
	}
	secs := math.Abs(abs*3600 - float64(deg)*3600 - float64(mins)*60)
	return fmt.Sprintf("%3dd%2d'%*.*f\"%s", deg, mins, precision+3, precision, secs, hemi), nil
}
