package spatial

import (
	"math"

	"github.com/gogpu/gg"
)

// viewAffine maps pixel (x, y) to projected coordinates for a viewport whose
// top-left pixel sits on (left, top) and whose bottom-right pixel edge sits
// on (right, bottom):
//
//	X = left + x*(right-left)/width
//	Y = top  - y*(top-bottom)/height
func viewAffine(left, top, right, bottom float64, width, height int) gg.Matrix {
	return gg.Matrix{
		A: (right - left) / float64(width), B: 0, C: left,
		D: 0, E: -(top - bottom) / float64(height), F: top,
	}
}

// invertAffine inverts a geotransform, reporting singular matrices instead
// of substituting the identity. Tiny determinants from deeply zoomed
// geodetic views are valid.
func invertAffine(m gg.Matrix) (gg.Matrix, bool) {
	det := m.A*m.E - m.B*m.D
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return gg.Matrix{}, false
	}
	inv := 1 / det
	return gg.Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}, true
}

func apply(m gg.Matrix, x, y float64) (float64, float64) {
	p := m.TransformPoint(gg.Pt(x, y))
	return p.X, p.Y
}
