package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// markup describes an XML geometry dialect. KML and GML 2 share the element
// layout for simple geometries and differ in prefixes and multi-part
// wrapping.
type markup struct {
	prefix string
	// multi returns the container element for a multi-part geometry and
	// the element wrapping each member ("" for none).
	multi func(orb.Geometry) (container, member string)
}

var kmlMarkup = markup{
	multi: func(orb.Geometry) (string, string) { return "MultiGeometry", "" },
}

var gmlMarkup = markup{
	prefix: "gml:",
	multi: func(g orb.Geometry) (string, string) {
		switch g.(type) {
		case orb.MultiPoint:
			return "MultiPoint", "pointMember"
		case orb.MultiLineString:
			return "MultiLineString", "lineStringMember"
		case orb.MultiPolygon:
			return "MultiPolygon", "polygonMember"
		default:
			return "MultiGeometry", "geometryMember"
		}
	},
}

func (m markup) encode(g orb.Geometry) (string, error) {
	var b strings.Builder
	if err := m.write(&b, g); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (m markup) open(b *strings.Builder, tag string) {
	b.WriteString("<" + m.prefix + tag + ">")
}

func (m markup) close(b *strings.Builder, tag string) {
	b.WriteString("</" + m.prefix + tag + ">")
}

func (m markup) coords(b *strings.Builder, pts []orb.Point) {
	m.open(b, "coordinates")
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p.X(), 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y(), 'f', -1, 64))
	}
	m.close(b, "coordinates")
}

func (m markup) simple(b *strings.Builder, tag string, pts []orb.Point) {
	m.open(b, tag)
	m.coords(b, pts)
	m.close(b, tag)
}

func (m markup) write(b *strings.Builder, g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		m.simple(b, "Point", []orb.Point{g})
	case orb.LineString:
		m.simple(b, "LineString", g)
	case orb.Ring:
		m.simple(b, "LinearRing", g)
	case orb.Polygon:
		m.open(b, "Polygon")
		for i, r := range g {
			boundary := "innerBoundaryIs"
			if i == 0 {
				boundary = "outerBoundaryIs"
			}
			m.open(b, boundary)
			m.simple(b, "LinearRing", r)
			m.close(b, boundary)
		}
		m.close(b, "Polygon")
	case orb.MultiPoint:
		members := make([]orb.Geometry, len(g))
		for i, p := range g {
			members[i] = p
		}
		return m.multiPart(b, g, members)
	case orb.MultiLineString:
		members := make([]orb.Geometry, len(g))
		for i, ls := range g {
			members[i] = ls
		}
		return m.multiPart(b, g, members)
	case orb.MultiPolygon:
		members := make([]orb.Geometry, len(g))
		for i, p := range g {
			members[i] = p
		}
		return m.multiPart(b, g, members)
	case orb.Collection:
		return m.multiPart(b, g, g)
	default:
		return fmt.Errorf("importer: cannot encode %T", g)
	}
	return nil
}

func (m markup) multiPart(b *strings.Builder, g orb.Geometry, members []orb.Geometry) error {
	container, member := m.multi(g)
	m.open(b, container)
	for _, sub := range members {
		if member != "" {
			m.open(b, member)
		}
		if err := m.write(b, sub); err != nil {
			return err
		}
		if member != "" {
			m.close(b, member)
		}
	}
	m.close(b, container)
	return nil
}
