// Package projection defines the coordinate reference systems geoview can
// display and builds point transforms between them.
package projection

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"geoview/internal/logger"
)

// Kind names one of the built-in reference systems.
type Kind int

const (
	Geodetic Kind = iota
	Mercator
	Equirectangular
	Robinson
	Bonne
)

var ErrUnsupportedProjection = errors.New("projection: unsupported projection")

var kindNames = map[Kind]string{
	Geodetic:        "geodetic",
	Mercator:        "mercator",
	Equirectangular: "equirectangular",
	Robinson:        "robinson",
	Bonne:           "bonne",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the lower-case names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedProjection, s)
}

type definition struct {
	name  string
	wkt   string
	proj4 string
}

var definitions = map[Kind]definition{
	Geodetic: {
		name: "WGS 84",
		wkt: `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],` +
			`AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],` +
			`UNIT["degree",0.01745329251994328,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
		proj4: "+proj=longlat +datum=WGS84 +no_defs",
	},
	Mercator: {
		name: "World_Mercator",
		wkt: `PROJCS["World_Mercator",` + gcsWGS84 + `,PROJECTION["Mercator_1SP"],` +
			`PARAMETER["False_Easting",0],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",0],` +
			`PARAMETER["Standard_Parallel_1",0],UNIT["Meter",1],AUTHORITY["EPSG","54004"]]`,
		proj4: "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	},
	Equirectangular: {
		name: "World_Equidistant_Cylindrical",
		wkt: `PROJCS["World_Equidistant_Cylindrical",` + gcsWGS84 + `,PROJECTION["Equirectangular"],` +
			`PARAMETER["False_Easting",0],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",0],` +
			`PARAMETER["Standard_Parallel_1",60],UNIT["Meter",1],AUTHORITY["EPSG","54002"]]`,
		proj4: "+proj=eqc +lat_ts=60 +lat_0=0 +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	},
	Robinson: {
		name: "World_Robinson",
		wkt: `PROJCS["World_Robinson",` + gcsWGS84 + `,PROJECTION["Robinson"],` +
			`PARAMETER["False_Easting",0],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",0],` +
			`UNIT["Meter",1],AUTHORITY["EPSG","54030"]]`,
		proj4: "+proj=robin +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	},
	Bonne: {
		name: "World_Bonne",
		wkt: `PROJCS["World_Bonne",` + gcsWGS84 + `,PROJECTION["Bonne"],` +
			`PARAMETER["False_Easting",0],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",0],` +
			`PARAMETER["Standard_Parallel_1",60],UNIT["Meter",1],AUTHORITY["EPSG","54024"]]`,
		proj4: "+proj=bonne +lon_0=0 +lat_1=60 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	},
}

// planarForms evaluates the kinds the transform backend only parses.
var planarForms = map[Kind]func() (Transformer, Transformer){
	Equirectangular: func() (Transformer, Transformer) { return equirectangular(60) },
	Robinson:        robinson,
	Bonne:           func() (Transformer, Transformer) { return bonne(60) },
}

const gcsWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],` +
	`PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// Registry holds the built-in reference systems. It is immutable after
// NewRegistry returns and safe for concurrent reads.
type Registry struct {
	crs map[Kind]*CRS
}

// NewRegistry parses every built-in definition. A definition the transform
// backend cannot parse is kept; transforms involving it fail with the parse
// error. Equirectangular, Robinson and Bonne transform through their
// spherical forms.
func NewRegistry() *Registry {
	r := &Registry{crs: make(map[Kind]*CRS, len(definitions))}
	for k, d := range definitions {
		c := parseCRS(d.name, d.wkt, d.proj4)
		c.kind = k
		c.geodetic = k == Geodetic
		if forms, ok := planarForms[k]; ok {
			c.fromGeo, c.toGeo = forms()
			c.err = nil
		}
		if c.err != nil {
			logger.L().Warn("projection_parse_failed", "projection", k.String(), "err", c.err)
		}
		r.crs[k] = c
	}
	return r
}

// Projection returns the reference system for k.
func (r *Registry) Projection(k Kind) (*CRS, error) {
	c, ok := r.crs[k]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProjection, k)
	}
	return c, nil
}

// MustProjection is Projection for the built-in kinds; it panics on unknown
// kinds.
func (r *Registry) MustProjection(k Kind) *CRS {
	c, err := r.Projection(k)
	if err != nil {
		panic(err)
	}
	return c
}

// Kinds lists the supported kinds in declaration order.
func (r *Registry) Kinds() []Kind {
	return []Kind{Geodetic, Mercator, Equirectangular, Robinson, Bonne}
}

var shared = sync.OnceValue(NewRegistry)

// Shared returns the process-wide registry, built on first use.
func Shared() *Registry {
	return shared()
}
