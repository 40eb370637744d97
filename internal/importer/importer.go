// Package importer turns raw geometry encodings into flat lists of simple
// shapes. Parsing and WKT/GeoJSON encoding are delegated to orb.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"geoview/internal/cancel"
	"geoview/internal/geom"
	"geoview/internal/logger"
)

// sridPrefix is the length of the SRID header in front of binary payloads.
const sridPrefix = 4

var (
	ErrShortPayload = errors.New("importer: binary payload shorter than srid prefix")
	ErrNoGeometry   = errors.New("importer: no geometry")
)

// Importer owns one parsed geometry. The geometry is nil until an import
// succeeds, and every query degrades to an empty result while it is nil.
type Importer struct {
	geometry  orb.Geometry
	interrupt cancel.Flag
}

// Import parses data as WKT when isText is set and as prefixed WKB
// otherwise.
func (im *Importer) Import(data []byte, isText bool) error {
	if isText {
		return im.ImportWKT(string(data))
	}
	return im.ImportWKB(data)
}

// ImportWKB parses a binary geometry preceded by a 4-byte SRID.
func (im *Importer) ImportWKB(data []byte) error {
	im.geometry = nil
	if len(data) < sridPrefix {
		return ErrShortPayload
	}
	g, err := wkb.Unmarshal(data[sridPrefix:])
	if err != nil {
		return fmt.Errorf("importer: wkb: %w", err)
	}
	im.geometry = g
	return nil
}

// ImportWKT parses a WKT string.
func (im *Importer) ImportWKT(text string) error {
	im.geometry = nil
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return fmt.Errorf("importer: wkt: %w", err)
	}
	im.geometry = g
	return nil
}

// Geometry returns the parsed geometry without giving up ownership.
func (im *Importer) Geometry() orb.Geometry { return im.geometry }

// Steal hands the parsed geometry to the caller and leaves the importer
// empty.
func (im *Importer) Steal() orb.Geometry {
	g := im.geometry
	im.geometry = nil
	return g
}

// Interrupt stops any running and future decomposition.
func (im *Importer) Interrupt() { im.interrupt.Interrupt() }

// Resume clears a previous Interrupt.
func (im *Importer) Resume() { im.interrupt.Reset() }

// Envelope returns the geometry's geodetic bounding box, or the empty
// envelope when nothing was imported.
func (im *Importer) Envelope() geom.Envelope {
	if im.geometry == nil {
		return geom.NewEnvelope()
	}
	return envelopeOf(im.geometry.Bound())
}

func envelopeOf(b orb.Bound) geom.Envelope {
	return geom.EnvelopeOf(b.Min.X(), b.Max.Y(), b.Max.X(), b.Min.Y())
}

// Shapes decomposes the geometry into simple shapes. Polygons yield their
// exterior ring as ShapePolygon followed by each hole as ShapeLinearRing.
// Line and ring vertices come out in reverse order. On interruption the
// partial result is returned with cancel.ErrInterrupted and must be
// discarded.
func (im *Importer) Shapes(ctx context.Context) ([]geom.ShapeContainer, error) {
	var out []geom.ShapeContainer
	if im.geometry == nil {
		return out, nil
	}
	im.extract(ctx, im.geometry, &out)
	return out, cancel.Err(ctx, &im.interrupt)
}

func (im *Importer) stopped(ctx context.Context) bool {
	return cancel.Stopped(ctx, &im.interrupt)
}

func (im *Importer) extract(ctx context.Context, g orb.Geometry, out *[]geom.ShapeContainer) {
	switch g := g.(type) {
	case orb.Point:
		p := geom.Point{X: g.X(), Y: g.Y()}
		*out = append(*out, geom.ShapeContainer{
			Type:        geom.ShapePoint,
			Points:      []geom.Point{p},
			BoundingBox: geom.EnvelopeOf(p.X, p.Y, p.X, p.Y),
		})
	case orb.LineString:
		*out = append(*out, im.reversed(ctx, geom.ShapeLineString, g, g.Bound()))
	case orb.Ring:
		*out = append(*out, im.reversed(ctx, geom.ShapeLinearRing, g, g.Bound()))
	case orb.Polygon:
		if len(g) == 0 {
			return
		}
		ext := g[0]
		*out = append(*out, im.reversed(ctx, geom.ShapePolygon, ext, ext.Bound()))
		for _, hole := range g[1:] {
			if im.stopped(ctx) {
				return
			}
			im.extract(ctx, hole, out)
		}
	case orb.MultiPoint:
		for _, p := range g {
			if im.stopped(ctx) {
				return
			}
			im.extract(ctx, p, out)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if im.stopped(ctx) {
				return
			}
			im.extract(ctx, ls, out)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if im.stopped(ctx) {
				return
			}
			im.extract(ctx, p, out)
		}
	case orb.Collection:
		for _, m := range g {
			if im.stopped(ctx) {
				return
			}
			im.extract(ctx, m, out)
		}
	}
}

func (im *Importer) reversed(ctx context.Context, t geom.ShapeType, pts []orb.Point, b orb.Bound) geom.ShapeContainer {
	s := geom.ShapeContainer{
		Type:        t,
		Points:      make([]geom.Point, 0, len(pts)),
		BoundingBox: envelopeOf(b),
	}
	for i := len(pts) - 1; i >= 0 && !im.stopped(ctx); i-- {
		s.Points = append(s.Points, geom.Point{X: pts[i].X(), Y: pts[i].Y()})
	}
	return s
}

// AsWKT encodes the geometry as WKT, or returns "" when there is none.
func (im *Importer) AsWKT() string {
	if im.geometry == nil {
		return ""
	}
	return wkt.MarshalString(im.geometry)
}

// AsJSON encodes the geometry as a GeoJSON geometry object.
func (im *Importer) AsJSON() string {
	if im.geometry == nil {
		return ""
	}
	b, err := geojson.NewGeometry(im.geometry).MarshalJSON()
	if err != nil {
		logger.L().Error("export_json_failed", "err", err)
		return ""
	}
	return string(b)
}

// AsKML encodes the geometry as a KML geometry element.
func (im *Importer) AsKML() string {
	return im.export("kml", kmlMarkup)
}

// AsGML encodes the geometry as a GML 2 geometry element.
func (im *Importer) AsGML() string {
	return im.export("gml", gmlMarkup)
}

func (im *Importer) export(format string, m markup) string {
	if im.geometry == nil {
		return ""
	}
	s, err := m.encode(im.geometry)
	if err != nil {
		logger.L().Error("export_"+format+"_failed", "err", err)
		return ""
	}
	return s
}
