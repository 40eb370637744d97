// Package spatial converts geometry features between geodetic, projected and
// pixel space and hit-tests them on a viewport.
package spatial

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gg"

	"geoview/internal/cancel"
	"geoview/internal/geom"
	"geoview/internal/logger"
	"geoview/internal/metrics"
	"geoview/internal/projection"
)

var (
	ErrTransform   = errors.New("spatial: cannot build coordinate transform")
	ErrInvalidView = errors.New("spatial: invalid projection view")
	ErrInterrupted = cancel.ErrInterrupted
)

// ProjectionView is the geodetic extent shown on a Width x Height pixel
// viewport. Latitudes run along the vertical axis, longitudes along the
// horizontal one.
type ProjectionView struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Width, Height  int
}

func (v ProjectionView) Equal(o ProjectionView) bool { return v == o }

func (v ProjectionView) String() string {
	return fmt.Sprintf("lat[%g,%g] lon[%g,%g] %dx%d", v.MinLat, v.MaxLat, v.MinLon, v.MaxLon, v.Width, v.Height)
}

// Converter maps points between geodetic degrees, a projected CRS and pixel
// space. All state is guarded by mu; exported methods take the lock and the
// unexported helpers expect it held.
type Converter struct {
	mu sync.RWMutex

	src, dst *projection.CRS
	toProj   projection.Transformer
	toGeo    projection.Transformer

	view    ProjectionView
	hasView bool
	forward gg.Matrix // pixel -> projected
	inverse gg.Matrix // projected -> pixel

	generation uint64
	interrupt  cancel.Flag
}

// NewConverter builds the transform pair between src (geodetic) and dst.
// The affine stays at identity until the first ChangeProjection.
func NewConverter(src, dst *projection.CRS) (*Converter, error) {
	toProj, toGeo, err := transformPair(src, dst)
	if err != nil {
		return nil, err
	}
	return &Converter{
		src:     src,
		dst:     dst,
		toProj:  toProj,
		toGeo:   toGeo,
		forward: gg.Identity(),
		inverse: gg.Identity(),
	}, nil
}

func transformPair(src, dst *projection.CRS) (toProj, toGeo projection.Transformer, err error) {
	if toProj, err = src.NewTransform(dst); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	if toGeo, err = dst.NewTransform(src); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	return toProj, toGeo, nil
}

// ChangeProjection switches to view and the src/dst pair. A nil CRS keeps
// the current one. Nothing is recomputed when view and both systems are
// unchanged. On error the converter keeps its previous configuration.
func (c *Converter) ChangeProjection(view ProjectionView, src, dst *projection.CRS) error {
	if view.Width <= 0 || view.Height <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidView, view)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconfigure(view, true, src, dst)
}

// ChangeCRS switches the reference systems and keeps the current view.
func (c *Converter) ChangeCRS(src, dst *projection.CRS) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconfigure(c.view, c.hasView, src, dst)
}

func (c *Converter) reconfigure(view ProjectionView, hasView bool, src, dst *projection.CRS) error {
	if src == nil {
		src = c.src
	}
	if dst == nil {
		dst = c.dst
	}
	crsChanged := src != c.src || dst != c.dst
	if !crsChanged && hasView == c.hasView && view == c.view {
		return nil
	}

	toProj, toGeo := c.toProj, c.toGeo
	if crsChanged {
		var err error
		if toProj, toGeo, err = transformPair(src, dst); err != nil {
			return err
		}
	}

	forward, inverse := c.forward, c.inverse
	if hasView {
		var ok bool
		forward = affineFor(view, toProj)
		if inverse, ok = invertAffine(forward); !ok {
			return fmt.Errorf("%w: singular affine for %s", ErrInvalidView, view)
		}
	}

	c.src, c.dst = src, dst
	c.toProj, c.toGeo = toProj, toGeo
	c.view, c.hasView = view, hasView
	c.forward, c.inverse = forward, inverse
	c.generation++
	c.interrupt.Reset()
	logger.L().Debug("projection_changed", "view", view.String(), "crs", dst.Name(), "generation", c.generation)
	return nil
}

// affineFor projects the view's top-left (MinLon, MaxLat) and bottom-right
// (MaxLon, MinLat) corners. A corner that fails to project keeps its
// geodetic value.
func affineFor(v ProjectionView, toProj projection.Transformer) gg.Matrix {
	left, top := v.MinLon, v.MaxLat
	right, bottom := v.MaxLon, v.MinLat
	if x, y, err := toProj(left, top); err != nil {
		logger.L().Warn("transform_corner_failed", "corner", "top_left", "lon", left, "lat", top, "err", err)
	} else {
		left, top = x, y
	}
	if x, y, err := toProj(right, bottom); err != nil {
		logger.L().Warn("transform_corner_failed", "corner", "bottom_right", "lon", right, "lat", bottom, "err", err)
	} else {
		right, bottom = x, y
	}
	return viewAffine(left, top, right, bottom, v.Width, v.Height)
}

// ToProjected maps a pixel to projected coordinates.
func (c *Converter) ToProjected(x, y int) (px, py float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return apply(c.forward, float64(x), float64(y))
}

// FromProjected maps projected coordinates to a pixel, truncating.
func (c *Converter) FromProjected(px, py float64) (x, y int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fx, fy := apply(c.inverse, px, py)
	return int(fx), int(fy)
}

// ToLatLon maps a pixel to geodetic degrees.
func (c *Converter) ToLatLon(x, y int) (lat, lon float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	px, py := apply(c.forward, float64(x), float64(y))
	lon, lat, err := c.toGeo(px, py)
	if err != nil {
		logger.L().Debug("transform_point_failed", "x", x, "y", y, "err", err)
		return 0, 0, false
	}
	return lat, lon, true
}

// FromLatLon maps geodetic degrees to a pixel.
func (c *Converter) FromLatLon(lat, lon float64) (x, y int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	px, py, err := c.toProj(lon, lat)
	if err != nil {
		logger.L().Debug("transform_point_failed", "lat", lat, "lon", lon, "err", err)
		return 0, 0, false
	}
	fx, fy := apply(c.inverse, px, py)
	return int(fx), int(fy), true
}

// TransformShapes converts geodetic shapes to pixel space. Points that fail
// to project are dropped. A bounding box is converted only when both of its
// corners project; otherwise it keeps its geodetic value. On interruption
// the partial result is returned with ErrInterrupted.
func (c *Converter) TransformShapes(ctx context.Context, shapes []geom.ShapeContainer) ([]geom.ShapeContainer, error) {
	return c.transformShapes(ctx, nil, shapes)
}

// transformShapes is TransformShapes that also stops when the caller's flag
// is raised.
func (c *Converter) transformShapes(ctx context.Context, stop *cancel.Flag, shapes []geom.ShapeContainer) ([]geom.ShapeContainer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]geom.ShapeContainer, 0, len(shapes))
	dropped := 0
	defer func() {
		if dropped > 0 {
			metrics.PointsDropped.Add(float64(dropped))
			logger.L().Debug("transform_points_dropped", "count", dropped)
		}
	}()

	for _, s := range shapes {
		if c.stopped(ctx, stop) {
			return out, ErrInterrupted
		}
		conv := geom.ShapeContainer{
			Type:        s.Type,
			Points:      make([]geom.Point, 0, len(s.Points)),
			BoundingBox: s.BoundingBox,
		}
		for _, p := range s.Points {
			if c.stopped(ctx, stop) {
				return out, ErrInterrupted
			}
			q, ok := c.toPixel(p)
			if !ok {
				dropped++
				continue
			}
			conv.Points = append(conv.Points, q)
		}
		if c.stopped(ctx, stop) {
			return out, ErrInterrupted
		}
		if box, ok := c.convertBox(s.BoundingBox); ok {
			conv.BoundingBox = box
		}
		out = append(out, conv)
	}
	return out, nil
}

func (c *Converter) stopped(ctx context.Context, stop *cancel.Flag) bool {
	return stop.Interrupted() || cancel.Stopped(ctx, &c.interrupt)
}

func (c *Converter) toPixel(p geom.Point) (geom.Point, bool) {
	x, y, err := c.toProj(p.X, p.Y)
	if err != nil {
		return geom.Point{}, false
	}
	x, y = apply(c.inverse, x, y)
	return geom.Point{X: x, Y: y}, true
}

func (c *Converter) convertBox(e geom.Envelope) (geom.Envelope, bool) {
	tl, ok := c.toPixel(e.TopLeft)
	if !ok {
		logger.L().Debug("transform_corner_failed", "corner", "top_left", "point", e.TopLeft)
		return e, false
	}
	br, ok := c.toPixel(e.BottomRight)
	if !ok {
		logger.L().Debug("transform_corner_failed", "corner", "bottom_right", "point", e.BottomRight)
		return e, false
	}
	return geom.Envelope{TopLeft: tl, BottomRight: br, Converted: true}, true
}

// Interrupt stops running transforms and every later one until the next
// successful reconfiguration or Resume.
func (c *Converter) Interrupt() { c.interrupt.Interrupt() }

func (c *Converter) Resume() { c.interrupt.Reset() }

// View returns the current viewport and whether one was ever set.
func (c *Converter) View() (ProjectionView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view, c.hasView
}

// Generation increases on every effective reconfiguration.
func (c *Converter) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Projected returns the destination reference system.
func (c *Converter) Projected() *projection.CRS {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dst
}

// Geodetic returns the source reference system.
func (c *Converter) Geodetic() *projection.CRS {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.src
}
