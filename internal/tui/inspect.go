package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb/planar"

	"geoview/internal/projection"
	"geoview/internal/spatial"
)

const popupWKT = 120

// describeFeature formats the inspect popup for a hit feature. lat and lon
// locate the click when ok is set.
func describeFeature(e *layerEntry, f *spatial.Feature, lat, lon float64, ok bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(e.layer.ID()))
	fmt.Fprintf(&b, "\nrow %d", f.RowID())
	if ok {
		fmt.Fprintf(&b, "\nat %s %s", dms(lat, projection.AxisLat), dms(lon, projection.AxisLon))
	}
	if g := f.Geometry(); g != nil {
		b.WriteString("\ntype " + g.GeoJSONType())
		c, area := planar.CentroidArea(g)
		if area != 0 && !math.IsNaN(area) {
			fmt.Fprintf(&b, "\narea %.6g deg²", math.Abs(area))
		}
		fmt.Fprintf(&b, "\ncentroid %.5f, %.5f", c[0], c[1])
	}
	env := f.Envelope()
	fmt.Fprintf(&b, "\nbbox [%.4f %.4f %.4f %.4f]",
		env.TopLeft.X, env.BottomRight.Y, env.BottomRight.X, env.TopLeft.Y)
	b.WriteString("\n" + dimStyle.Render(truncate(f.AsWKT(), popupWKT)))

	if r, found := e.row(f.RowID()); found && len(r.Props) > 0 {
		keys := make([]string, 0, len(r.Props))
		for k := range r.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, truncate(r.Props[k], maxColW))
		}
	}
	return b.String()
}

func dms(v float64, axis projection.Axis) string {
	s, err := projection.DecToDMS(v, axis, 2)
	if err != nil {
		return fmt.Sprintf("%.5f", v)
	}
	return strings.TrimSpace(s)
}
