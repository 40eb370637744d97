package geom

import "math"

// ShapeType identifies the simple primitive held by a ShapeContainer.
type ShapeType int

const (
	ShapeUnknown ShapeType = iota
	ShapePoint
	ShapeLineString
	ShapeLinearRing
	ShapePolygon
)

func (t ShapeType) String() string {
	switch t {
	case ShapePolygon:
		return "Polygon"
	case ShapeLinearRing:
		return "LinearRing"
	case ShapeLineString:
		return "LineString"
	case ShapePoint:
		return "Point"
	default:
		return "Unknown shape type"
	}
}

// Hit-test tolerances, in the container's coordinate units.
const (
	PointTolerance = 4.0
	LineTolerance  = 1.0
)

// ShapeContainer is one simple point, line, ring or polygon ring extracted
// from a possibly compound geometry.
type ShapeContainer struct {
	Type        ShapeType
	Points      []Point
	BoundingBox Envelope
}

// NewShape builds a container and derives its bounding box from pts.
func NewShape(t ShapeType, pts []Point) ShapeContainer {
	s := ShapeContainer{Type: t, Points: pts, BoundingBox: NewEnvelope()}
	for i, p := range pts {
		if i == 0 {
			s.BoundingBox = EnvelopeOf(p.X, p.Y, p.X, p.Y)
			continue
		}
		s.BoundingBox.TopLeft.X = min(s.BoundingBox.TopLeft.X, p.X)
		s.BoundingBox.TopLeft.Y = max(s.BoundingBox.TopLeft.Y, p.Y)
		s.BoundingBox.BottomRight.X = max(s.BoundingBox.BottomRight.X, p.X)
		s.BoundingBox.BottomRight.Y = min(s.BoundingBox.BottomRight.Y, p.Y)
	}
	return s
}

// Within reports whether p hits the shape.
func (s ShapeContainer) Within(p Point) bool {
	switch s.Type {
	case ShapePoint:
		return s.withinPoint(p)
	case ShapeLineString:
		return withinLine(s.Points, p)
	case ShapeLinearRing:
		return s.withinLinearRing(p)
	case ShapePolygon:
		return s.withinPolygon(p)
	default:
		return false
	}
}

func (s ShapeContainer) withinPoint(p Point) bool {
	if len(s.Points) == 0 {
		return false
	}
	return math.Hypot(p.X-s.Points[0].X, p.Y-s.Points[0].Y) < PointTolerance
}

func (s ShapeContainer) withinLinearRing(p Point) bool {
	if len(s.Points) == 0 {
		return false
	}
	closed := make([]Point, 0, len(s.Points)+1)
	closed = append(closed, s.Points...)
	closed = append(closed, s.Points[0])
	return withinLine(closed, p)
}

func withinLine(pts []Point, p Point) bool {
	for i := 1; i < len(pts); i++ {
		if DistanceToSegment(pts[i-1], pts[i], p) <= LineTolerance {
			return true
		}
	}
	return false
}

// withinPolygon runs an even-odd ray cast after a bounding box reject.
func (s ShapeContainer) withinPolygon(p Point) bool {
	n := len(s.Points)
	if n == 0 {
		return false
	}
	if !s.BoundingBox.Contains(p) {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := s.Points[i], s.Points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// DistanceToSegment returns the distance from p to the closest point of the
// segment start-end. A zero-length segment degrades to point distance.
func DistanceToSegment(start, end, p Point) float64 {
	dx := end.X - start.X
	dy := end.Y - start.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-start.X, p.Y-start.Y)
	}
	t := ((p.X-start.X)*dx + (p.Y-start.Y)*dy) / (dx*dx + dy*dy)
	switch {
	case t > 1:
		return math.Hypot(p.X-end.X, p.Y-end.Y)
	case t < 0:
		return math.Hypot(p.X-start.X, p.Y-start.Y)
	default:
		return math.Hypot(p.X-(start.X+t*dx), p.Y-(start.Y+t*dy))
	}
}
