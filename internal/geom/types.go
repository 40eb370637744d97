package geom

// Point is a 2-D coordinate. Units depend on the stage: degrees, projected
// linear units or pixels.
type Point struct {
	X float64
	Y float64
}

// Sentinel corners of an empty envelope: an inverted box outside the valid
// geodetic range.
const (
	emptyLeft   = 180
	emptyTop    = -90
	emptyRight  = -180
	emptyBottom = 90
)

// Envelope is an axis-aligned bounding box. TopLeft.Y holds the greater
// latitude in geodetic space; after conversion to pixels it holds the
// smaller row index.
type Envelope struct {
	TopLeft     Point
	BottomRight Point
	Converted   bool // re-expressed in pixel space
}

// NewEnvelope returns the empty envelope.
func NewEnvelope() Envelope {
	return Envelope{
		TopLeft:     Point{X: emptyLeft, Y: emptyTop},
		BottomRight: Point{X: emptyRight, Y: emptyBottom},
	}
}

// EnvelopeOf builds an envelope from explicit edges.
func EnvelopeOf(left, top, right, bottom float64) Envelope {
	return Envelope{
		TopLeft:     Point{X: left, Y: top},
		BottomRight: Point{X: right, Y: bottom},
	}
}

// IsInit reports whether the envelope holds real data: no corner component
// may still equal its sentinel value.
func (e Envelope) IsInit() bool {
	return e.TopLeft.X != emptyLeft && e.TopLeft.Y != emptyTop &&
		e.BottomRight.X != emptyRight && e.BottomRight.Y != emptyBottom
}

// Equal compares corners only; the Converted flag is ignored.
func (e Envelope) Equal(o Envelope) bool {
	return e.TopLeft == o.TopLeft && e.BottomRight == o.BottomRight
}

// Extend returns the geodetic union of e and o.
func (e Envelope) Extend(o Envelope) Envelope {
	e.TopLeft.X = min(e.TopLeft.X, o.TopLeft.X)
	e.TopLeft.Y = max(e.TopLeft.Y, o.TopLeft.Y)
	e.BottomRight.X = max(e.BottomRight.X, o.BottomRight.X)
	e.BottomRight.Y = min(e.BottomRight.Y, o.BottomRight.Y)
	return e
}

// bounds returns the box normalised to min/max regardless of which way the
// y axis grows.
func (e Envelope) bounds() (minX, minY, maxX, maxY float64) {
	minX, maxX = e.TopLeft.X, e.BottomRight.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY = e.TopLeft.Y, e.BottomRight.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return minX, minY, maxX, maxY
}

// Contains reports whether p lies inside or on the box. It works both for
// geodetic boxes (y up) and converted pixel boxes (y down).
func (e Envelope) Contains(p Point) bool {
	minX, minY, maxX, maxY := e.bounds()
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// Intersects reports whether two boxes overlap.
func (e Envelope) Intersects(o Envelope) bool {
	aMinX, aMinY, aMaxX, aMaxY := e.bounds()
	bMinX, bMinY, bMaxX, bMaxY := o.bounds()
	return aMinX <= bMaxX && bMinX <= aMaxX && aMinY <= bMaxY && bMinY <= aMaxY
}
