package spatial

import (
	"context"
	"image/color"
	"sync/atomic"

	"github.com/paulmach/orb"

	"geoview/internal/cancel"
	"geoview/internal/geom"
	"geoview/internal/importer"
	"geoview/internal/logger"
)

// Surface is the 2-D drawing target used by Repaint.
type Surface interface {
	Save()
	Restore()
	Translate(x, y float64)
	Scale(sx, sy float64)
	SetColor(c color.Color)
	SetLineWidth(w float64)
	NewPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	Rectangle(x, y, w, h float64)
	Fill() error
	FillPreserve() error
	Stroke() error
}

// pointMarker is the side of the square drawn for point shapes, in device
// pixels.
const pointMarker = 5.0

// Feature is one geometry row. Its screen-space shapes are replaced as a
// whole after every completed render.
type Feature struct {
	rowID    int64
	importer importer.Importer
	envelope geom.Envelope
	shapes   atomic.Pointer[[]geom.ShapeContainer]
}

// NewFeature parses data as WKT when isText is set and as SRID-prefixed WKB
// otherwise. A payload that fails to parse yields an empty feature.
func NewFeature(rowID int64, data []byte, isText bool) *Feature {
	f := &Feature{rowID: rowID}
	if err := f.importer.Import(data, isText); err != nil {
		logger.L().Warn("import_failed", "row", rowID, "err", err)
	}
	f.envelope = f.importer.Envelope()
	return f
}

func (f *Feature) RowID() int64 { return f.rowID }

// Envelope is the geodetic bounding box of the source geometry.
func (f *Feature) Envelope() geom.Envelope { return f.envelope }

// Geometry returns the parsed geometry, nil when the row failed to parse.
func (f *Feature) Geometry() orb.Geometry { return f.importer.Geometry() }

// Shapes returns the screen-space shapes of the last completed render.
func (f *Feature) Shapes() []geom.ShapeContainer {
	if p := f.shapes.Load(); p != nil {
		return *p
	}
	return nil
}

// Render decomposes the geometry and converts it to pixel space. The stored
// shapes are swapped only when both stages complete.
func (f *Feature) Render(ctx context.Context, stop *cancel.Flag, conv *Converter) error {
	if cancel.Stopped(ctx, stop) {
		return ErrInterrupted
	}
	shapes, err := f.importer.Shapes(ctx)
	if err != nil {
		return err
	}
	if cancel.Stopped(ctx, stop) {
		return ErrInterrupted
	}
	px, err := conv.transformShapes(ctx, stop, shapes)
	if err != nil {
		return err
	}
	f.shapes.Store(&px)
	return nil
}

// Within reports whether any screen-space shape contains p.
func (f *Feature) Within(ctx context.Context, stop *cancel.Flag, p geom.Point) bool {
	for _, s := range f.Shapes() {
		if cancel.Stopped(ctx, stop) {
			return false
		}
		if s.Within(p) {
			return true
		}
	}
	return false
}

// Interrupt stops the decomposition of this feature.
func (f *Feature) Interrupt() { f.importer.Interrupt() }

func (f *Feature) Resume() { f.importer.Resume() }

func (f *Feature) AsWKT() string  { return f.importer.AsWKT() }
func (f *Feature) AsKML() string  { return f.importer.AsKML() }
func (f *Feature) AsJSON() string { return f.importer.AsJSON() }
func (f *Feature) AsGML() string  { return f.importer.AsGML() }

// Repaint draws the screen-space shapes on s. scale is the surface zoom so
// point markers keep a constant size. Shapes whose converted box misses
// clip are skipped.
func (f *Feature) Repaint(ctx context.Context, stop *cancel.Flag, s Surface, scale float64, clip geom.Envelope, fill bool) error {
	if scale <= 0 {
		scale = 1
	}
	for _, sh := range f.Shapes() {
		if cancel.Stopped(ctx, stop) {
			return ErrInterrupted
		}
		if len(sh.Points) == 0 {
			logger.L().Error("repaint_empty_shape", "row", f.rowID, "type", sh.Type.String())
			continue
		}
		if sh.BoundingBox.Converted && !clip.Intersects(sh.BoundingBox) {
			continue
		}
		if err := paintShape(s, sh, scale, fill); err != nil {
			return err
		}
	}
	return nil
}

func paintShape(s Surface, sh geom.ShapeContainer, scale float64, fill bool) error {
	switch sh.Type {
	case geom.ShapePoint:
		p := sh.Points[0]
		s.Save()
		defer s.Restore()
		s.Translate(p.X, p.Y)
		s.Scale(1/scale, 1/scale)
		s.NewPath()
		s.Rectangle(-pointMarker/2, -pointMarker/2, pointMarker, pointMarker)
		return s.Fill()
	case geom.ShapePolygon:
		trace(s, sh.Points)
		s.ClosePath()
		if fill {
			if err := s.FillPreserve(); err != nil {
				return err
			}
		}
		return s.Stroke()
	case geom.ShapeLinearRing:
		trace(s, sh.Points)
		s.ClosePath()
		return s.Stroke()
	case geom.ShapeLineString:
		trace(s, sh.Points)
		return s.Stroke()
	default:
		logger.L().Error("repaint_unknown_shape", "type", sh.Type.String())
		return nil
	}
}

func trace(s Surface, pts []geom.Point) {
	s.NewPath()
	s.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		s.LineTo(p.X, p.Y)
	}
}
