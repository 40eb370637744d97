package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// ParseGeoJSON reads a FeatureCollection, a single Feature or a bare
// geometry. Geometries become WKB rows; feature properties become row
// props. Numeric feature ids are kept, other rows are numbered from 1.
func ParseGeoJSON(data []byte) ([]Row, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var features []*geojson.Feature
	switch head.Type {
	case "":
		return nil, errors.New("geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		features = fc.Features
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		features = []*geojson.Feature{f}
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		features = []*geojson.Feature{geojson.NewFeature(g.Geometry())}
	}

	rows := make([]Row, 0, len(features))
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		wkbData, err := EncodeWKB(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("geojson: feature %d: %w", i, err)
		}
		rows = append(rows, Row{
			ID:    featureID(f.ID, i+1),
			Data:  wkbData,
			Props: stringProps(f.Properties),
		})
	}
	if len(rows) == 0 {
		return nil, errors.New("geojson: no geometries found")
	}
	return rows, nil
}

func featureID(id any, fallback int) int64 {
	switch v := id.(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return int64(fallback)
}

func stringProps(p geojson.Properties) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		switch v := v.(type) {
		case string:
			out[k] = v
		case nil:
			out[k] = ""
		case float64, bool:
			out[k] = fmt.Sprint(v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				out[k] = fmt.Sprint(v)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
