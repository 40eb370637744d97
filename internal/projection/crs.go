package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
)

// Transformer converts one coordinate pair. Geodetic pairs are (lon, lat)
// in degrees.
type Transformer func(x, y float64) (float64, float64, error)

var errNoPath = errors.New("projection: no transform between reference systems")

// CRS is one coordinate reference system. Values are immutable and are
// compared by pointer identity.
type CRS struct {
	kind     Kind
	name     string
	wkt      string
	proj4    string
	geodetic bool

	sr  *proj.SR
	err error

	// set for systems defined by plain functions relative to WGS 84
	fromGeo Transformer
	toGeo   Transformer
}

func parseCRS(name, wkt, proj4 string) *CRS {
	c := &CRS{kind: -1, name: name, wkt: wkt, proj4: proj4}
	def := proj4
	if def == "" {
		def = wkt
	}
	c.sr, c.err = proj.Parse(def)
	return c
}

// NewCRS parses a PROJ.4 or WKT definition. Unlike the registry it reports
// parse errors immediately.
func NewCRS(name, def string) (*CRS, error) {
	c := parseCRS(name, "", def)
	if c.err != nil {
		return nil, fmt.Errorf("projection: parse %s: %w", name, c.err)
	}
	return c, nil
}

// Planar defines a system by its conversions from and to WGS 84 degrees.
func Planar(name string, fromGeodetic, toGeodetic Transformer) *CRS {
	return &CRS{kind: -1, name: name, fromGeo: fromGeodetic, toGeo: toGeodetic}
}

func (c *CRS) Name() string  { return c.name }
func (c *CRS) WKT() string   { return c.wkt }
func (c *CRS) Proj4() string { return c.proj4 }

// Kind returns the registry kind, or -1 for systems built outside it.
func (c *CRS) Kind() Kind { return c.kind }

// Err returns the parse error recorded for this system, if any.
func (c *CRS) Err() error { return c.err }

func identity(x, y float64) (float64, float64, error) { return x, y, nil }

// NewTransform builds the transform from c to dst.
func (c *CRS) NewTransform(dst *CRS) (Transformer, error) {
	if c == nil || dst == nil {
		return nil, errNoPath
	}
	if c == dst || (c.proj4 != "" && c.proj4 == dst.proj4) {
		return identity, nil
	}
	switch {
	case c.geodetic && dst.fromGeo != nil:
		return dst.fromGeo, nil
	case dst.geodetic && c.toGeo != nil:
		return c.toGeo, nil
	case c.fromGeo != nil || dst.fromGeo != nil:
		return nil, fmt.Errorf("%w: %s -> %s", errNoPath, c.name, dst.name)
	}
	if c.err != nil {
		return nil, fmt.Errorf("projection: %s: %w", c.name, c.err)
	}
	if dst.err != nil {
		return nil, fmt.Errorf("projection: %s: %w", dst.name, dst.err)
	}
	t, err := c.sr.NewTransform(dst.sr)
	if err != nil {
		return nil, fmt.Errorf("projection: %s -> %s: %w", c.name, dst.name, err)
	}
	if t == nil {
		// equivalent definitions
		return identity, nil
	}
	// the backend accepts some definitions it cannot evaluate
	x, y, err := t(0, 0)
	if err == nil && (math.IsNaN(x) || math.IsNaN(y)) {
		err = errors.New("transform yields NaN")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s -> %s: %w", errNoPath, c.name, dst.name, err)
	}
	return Transformer(t), nil
}
