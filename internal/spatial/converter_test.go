package spatial

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gg"

	"geoview/internal/cancel"
	"geoview/internal/geom"
	"geoview/internal/projection"
)

var errPolar = errors.New("outside projection domain")

func identity(x, y float64) (float64, float64, error) { return x, y, nil }

// plate maps degrees one to one, so pixel positions are easy to predict.
func plate() *projection.CRS { return projection.Planar("plate", identity, identity) }

// polar refuses latitudes beyond 80 degrees.
func polar() *projection.CRS {
	return projection.Planar("polar",
		func(lon, lat float64) (float64, float64, error) {
			if math.Abs(lat) > 80 {
				return 0, 0, errPolar
			}
			return lon, lat, nil
		}, identity)
}

func geodetic() *projection.CRS {
	return projection.Shared().MustProjection(projection.Geodetic)
}

// world shows the whole globe at one pixel per degree.
var world = ProjectionView{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180, Width: 360, Height: 180}

func newWorldConverter(t *testing.T, dst *projection.CRS) *Converter {
	t.Helper()
	c, err := NewConverter(geodetic(), dst)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ChangeProjection(world, nil, nil); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestConverterPixelMapping(t *testing.T) {
	c := newWorldConverter(t, plate())

	tests := []struct {
		lat, lon float64
		x, y     int
	}{
		{0, 0, 180, 90},
		{90, -180, 0, 0},
		{-45, 90, 270, 135},
	}
	for _, tt := range tests {
		x, y, ok := c.FromLatLon(tt.lat, tt.lon)
		if !ok || x != tt.x || y != tt.y {
			t.Errorf("FromLatLon(%v, %v) = %d, %d, %v; want %d, %d", tt.lat, tt.lon, x, y, ok, tt.x, tt.y)
		}
		lat, lon, ok := c.ToLatLon(tt.x, tt.y)
		if !ok || lat != tt.lat || lon != tt.lon {
			t.Errorf("ToLatLon(%d, %d) = %v, %v, %v", tt.x, tt.y, lat, lon, ok)
		}
	}
}

func TestConverterRoundTrip(t *testing.T) {
	double := projection.Planar("double",
		func(x, y float64) (float64, float64, error) { return x * 2, y * 2, nil },
		func(x, y float64) (float64, float64, error) { return x / 2, y / 2, nil })
	c, err := NewConverter(geodetic(), double)
	if err != nil {
		t.Fatal(err)
	}
	view := ProjectionView{MinLat: -61.3, MaxLat: 72.9, MinLon: -33.1, MaxLon: 151.7, Width: 1013, Height: 517}
	if err := c.ChangeProjection(view, nil, nil); err != nil {
		t.Fatal(err)
	}
	for x := 0; x < view.Width; x += 37 {
		for y := 0; y < view.Height; y += 29 {
			gx, gy := c.FromProjected(c.ToProjected(x, y))
			if abs(gx-x) > 1 || abs(gy-y) > 1 {
				t.Fatalf("(%d,%d) came back as (%d,%d)", x, y, gx, gy)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestChangeProjectionNoop(t *testing.T) {
	geo, dst := geodetic(), plate()
	c, err := NewConverter(geo, dst)
	if err != nil {
		t.Fatal(err)
	}
	if c.Generation() != 0 {
		t.Fatalf("fresh converter generation = %d", c.Generation())
	}
	if err := c.ChangeProjection(world, geo, dst); err != nil {
		t.Fatal(err)
	}
	gen := c.Generation()
	if err := c.ChangeProjection(world, geo, dst); err != nil {
		t.Fatal(err)
	}
	if err := c.ChangeProjection(world, nil, nil); err != nil {
		t.Fatal(err)
	}
	if c.Generation() != gen {
		t.Errorf("identical view recomputed: generation %d -> %d", gen, c.Generation())
	}

	zoomed := world
	zoomed.MinLon = 0
	if err := c.ChangeProjection(zoomed, nil, nil); err != nil {
		t.Fatal(err)
	}
	if c.Generation() != gen+1 {
		t.Errorf("view change did not recompute")
	}

	if err := c.ChangeCRS(nil, polar()); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.View(); !ok || !v.Equal(zoomed) {
		t.Errorf("ChangeCRS lost the view: %v", v)
	}
	if c.Projected().Name() != "polar" || c.Geodetic() != geo {
		t.Errorf("ChangeCRS did not switch systems")
	}
}

func TestChangeProjectionErrors(t *testing.T) {
	c := newWorldConverter(t, plate())
	gen := c.Generation()

	bad := world
	bad.Width = 0
	if err := c.ChangeProjection(bad, nil, nil); !errors.Is(err, ErrInvalidView) {
		t.Errorf("zero width: got %v", err)
	}
	flat := world
	flat.MaxLon = flat.MinLon
	if err := c.ChangeProjection(flat, nil, nil); !errors.Is(err, ErrInvalidView) {
		t.Errorf("singular affine: got %v", err)
	}
	if err := c.ChangeProjection(world, plate(), polar()); !errors.Is(err, ErrTransform) {
		t.Errorf("planar pair: got %v", err)
	}
	if c.Generation() != gen {
		t.Error("failed reconfiguration changed state")
	}
	if x, y, ok := c.FromLatLon(0, 0); !ok || x != 180 || y != 90 {
		t.Errorf("previous affine lost: %d %d", x, y)
	}

	if _, err := NewConverter(plate(), polar()); !errors.Is(err, ErrTransform) {
		t.Errorf("NewConverter: got %v", err)
	}
	if _, err := NewConverter(geodetic(), nil); !errors.Is(err, ErrTransform) {
		t.Errorf("nil destination: got %v", err)
	}
}

func TestTransformShapesDropsFailures(t *testing.T) {
	c := newWorldConverter(t, polar())
	shapes := []geom.ShapeContainer{
		geom.NewShape(geom.ShapeLineString, []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 85}, {X: 20, Y: 10}}),
		geom.NewShape(geom.ShapePolygon, []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}),
	}
	out, err := c.TransformShapes(context.Background(), shapes)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d shapes", len(out))
	}

	line := out[0]
	want := []geom.Point{{X: 180, Y: 90}, {X: 200, Y: 80}}
	if len(line.Points) != len(want) || line.Points[0] != want[0] || line.Points[1] != want[1] {
		t.Errorf("line points = %v, want %v", line.Points, want)
	}
	if line.BoundingBox.Converted || !line.BoundingBox.Equal(shapes[0].BoundingBox) {
		t.Errorf("box with a failed corner was touched: %+v", line.BoundingBox)
	}

	poly := out[1]
	if !poly.BoundingBox.Converted || !poly.BoundingBox.Equal(geom.EnvelopeOf(180, 80, 190, 90)) {
		t.Errorf("polygon box = %+v", poly.BoundingBox)
	}
	if shapes[1].BoundingBox.Converted {
		t.Error("input shapes were mutated")
	}
}

func TestConverterInterrupt(t *testing.T) {
	c := newWorldConverter(t, plate())
	shapes := []geom.ShapeContainer{geom.NewShape(geom.ShapePoint, []geom.Point{{X: 1, Y: 1}})}

	c.Interrupt()
	if _, err := c.TransformShapes(context.Background(), shapes); !errors.Is(err, ErrInterrupted) {
		t.Errorf("got %v, want ErrInterrupted", err)
	}
	c.Resume()
	out, err := c.TransformShapes(context.Background(), shapes)
	if err != nil || len(out) != 1 {
		t.Errorf("after Resume: %v, %v", out, err)
	}

	ctx, stop := context.WithCancel(context.Background())
	stop()
	if _, err := c.TransformShapes(ctx, shapes); !errors.Is(err, ErrInterrupted) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func TestTransformShapesHonoursCallerFlag(t *testing.T) {
	c := newWorldConverter(t, plate())
	shapes := []geom.ShapeContainer{geom.NewShape(geom.ShapePoint, []geom.Point{{X: 1, Y: 1}})}

	var stop cancel.Flag
	stop.Interrupt()
	if _, err := c.transformShapes(context.Background(), &stop, shapes); !errors.Is(err, ErrInterrupted) {
		t.Errorf("raised flag: got %v, want ErrInterrupted", err)
	}
	stop.Reset()
	if out, err := c.transformShapes(context.Background(), &stop, shapes); err != nil || len(out) != 1 {
		t.Errorf("cleared flag: %v, %v", out, err)
	}
}

// A layer interrupted while its points are being projected stops the
// feature render instead of finishing the geometry.
func TestFeatureRenderStopsMidTransform(t *testing.T) {
	var stop cancel.Flag
	var armed atomic.Bool
	trip := projection.Planar("trip",
		func(lon, lat float64) (float64, float64, error) {
			if armed.Load() {
				stop.Interrupt()
			}
			return lon, lat, nil
		}, identity)
	c := newWorldConverter(t, trip)
	armed.Store(true)

	f := NewFeature(1, []byte("LINESTRING(0 0,1 1,2 2,3 3)"), true)
	if err := f.Render(context.Background(), &stop, c); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("got %v, want ErrInterrupted", err)
	}
	if f.Shapes() != nil {
		t.Errorf("interrupted render stored shapes: %v", f.Shapes())
	}
}

// The view affine puts longitude on the pixel x axis and latitude, top
// down, on the y axis.
func TestViewAffineOrientation(t *testing.T) {
	c, err := NewConverter(geodetic(), plate())
	if err != nil {
		t.Fatal(err)
	}
	view := ProjectionView{MinLat: 0, MaxLat: 100, MinLon: 0, MaxLon: 50, Width: 100, Height: 50}
	if err := c.ChangeProjection(view, nil, nil); err != nil {
		t.Fatal(err)
	}
	want := gg.Matrix{A: 0.5, B: 0, C: 0, D: 0, E: -2, F: 100}
	if c.forward != want {
		t.Errorf("forward affine = %+v, want %+v", c.forward, want)
	}
	if px, py := c.ToProjected(10, 0); px != 5 || py != 100 {
		t.Errorf("ToProjected(10, 0) = %v, %v; want 5, 100", px, py)
	}
	if x, y := c.FromProjected(5, 100); x != 10 || y != 0 {
		t.Errorf("FromProjected(5, 100) = %d, %d", x, y)
	}
	if x, y, ok := c.FromLatLon(0, 0); !ok || x != 0 || y != 50 {
		t.Errorf("south-west corner at %d, %d", x, y)
	}
}
