package projection

import (
	"errors"
	"math"
)

// Spherical forms of the world projections the transform backend parses but
// cannot evaluate. Coordinates are (lon, lat) degrees on the geodetic side
// and metres on a sphere of the WGS 84 semi-major axis on the projected side.

const earthRadius = 6378137.0

var errOutOfRange = errors.New("projection: coordinate outside the projection domain")

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// geodeticInRange rejects latitudes beyond the poles and non-finite input.
func geodeticInRange(lon, lat float64) bool {
	return finite(lon, lat) && math.Abs(lat) <= 90+1e-9
}

// Equirectangular, true scale at lat_ts.
func equirectangular(latTS float64) (fwd, inv Transformer) {
	k := earthRadius * math.Cos(rad(latTS))
	fwd = func(lon, lat float64) (float64, float64, error) {
		if !geodeticInRange(lon, lat) {
			return 0, 0, errOutOfRange
		}
		return k * rad(lon), earthRadius * rad(lat), nil
	}
	inv = func(x, y float64) (float64, float64, error) {
		lon, lat := deg(x/k), deg(y/earthRadius)
		if !geodeticInRange(lon, lat) {
			return 0, 0, errOutOfRange
		}
		return lon, lat, nil
	}
	return fwd, inv
}

// robinsonTable holds the parallel length (X) and distance from the equator
// (Y) at every 5 degrees of latitude from 0 to 90.
var robinsonTable = [19][2]float64{
	{1.0000, 0.0000}, {0.9986, 0.0620}, {0.9954, 0.1240}, {0.9900, 0.1860},
	{0.9822, 0.2480}, {0.9730, 0.3100}, {0.9600, 0.3720}, {0.9427, 0.4340},
	{0.9216, 0.4958}, {0.8962, 0.5571}, {0.8679, 0.6176}, {0.8350, 0.6769},
	{0.7986, 0.7346}, {0.7597, 0.7903}, {0.7186, 0.8435}, {0.6732, 0.8936},
	{0.6213, 0.9394}, {0.5722, 0.9761}, {0.5322, 1.0000},
}

const (
	robinsonFX = 0.8487
	robinsonFY = 1.3523
)

// robinsonAt interpolates the table linearly at |lat| degrees.
func robinsonAt(absLat float64) (x, y float64) {
	i := int(absLat / 5)
	if i >= len(robinsonTable)-1 {
		last := robinsonTable[len(robinsonTable)-1]
		return last[0], last[1]
	}
	t := (absLat - float64(i)*5) / 5
	a, b := robinsonTable[i], robinsonTable[i+1]
	return a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])
}

func robinson() (fwd, inv Transformer) {
	fwd = func(lon, lat float64) (float64, float64, error) {
		if !geodeticInRange(lon, lat) {
			return 0, 0, errOutOfRange
		}
		px, py := robinsonAt(math.Abs(lat))
		y := robinsonFY * earthRadius * py
		if lat < 0 {
			y = -y
		}
		return robinsonFX * earthRadius * px * rad(lon), y, nil
	}
	inv = func(x, y float64) (float64, float64, error) {
		if !finite(x, y) {
			return 0, 0, errOutOfRange
		}
		py := math.Abs(y) / (robinsonFY * earthRadius)
		if py > 1+1e-9 {
			return 0, 0, errOutOfRange
		}
		py = min(py, 1)
		lat := 90.0
		for i := 0; i < len(robinsonTable)-1; i++ {
			a, b := robinsonTable[i], robinsonTable[i+1]
			if py <= b[1] {
				lat = float64(i)*5 + 5*(py-a[1])/(b[1]-a[1])
				break
			}
		}
		px, _ := robinsonAt(lat)
		if y < 0 {
			lat = -lat
		}
		return deg(x / (robinsonFX * earthRadius * px)), lat, nil
	}
	return fwd, inv
}

// Bonne with standard parallel lat1, which must not be zero.
func bonne(lat1 float64) (fwd, inv Transformer) {
	phi1 := rad(lat1)
	cot1 := 1 / math.Tan(phi1)
	fwd = func(lon, lat float64) (float64, float64, error) {
		if !geodeticInRange(lon, lat) {
			return 0, 0, errOutOfRange
		}
		phi := rad(lat)
		rho := cot1 + phi1 - phi
		e := rad(lon) * math.Cos(phi) / rho
		return earthRadius * rho * math.Sin(e), earthRadius * (cot1 - rho*math.Cos(e)), nil
	}
	inv = func(x, y float64) (float64, float64, error) {
		if !finite(x, y) {
			return 0, 0, errOutOfRange
		}
		xs, ys := x/earthRadius, cot1-y/earthRadius
		rho := math.Copysign(math.Hypot(xs, ys), phi1)
		phi := cot1 + phi1 - rho
		if math.Abs(phi) > math.Pi/2+1e-9 {
			return 0, 0, errOutOfRange
		}
		lam := 0.0
		if c := math.Cos(phi); c > 1e-12 {
			lam = rho * math.Atan2(xs, ys) / c
		}
		return deg(lam), deg(phi), nil
	}
	return fwd, inv
}
