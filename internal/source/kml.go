package source

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPlacemark struct {
	Name        string    `xml:"name"`
	Description string    `xml:"description"`
	Point       *kmlPoint `xml:"Point"`
}

type kmlDoc struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Document   *kmlDoc        `xml:"Document"`
	Folders    []kmlDoc       `xml:"Folder"`
}

func (d *kmlDoc) walk(fn func(kmlPlacemark)) {
	for _, pm := range d.Placemarks {
		fn(pm)
	}
	if d.Document != nil {
		d.Document.walk(fn)
	}
	for i := range d.Folders {
		d.Folders[i].walk(fn)
	}
}

// ParseKML reads Placemark points. Coordinates are "lon,lat[,alt]"; a
// placemark with several tuples becomes a MULTIPOINT.
func ParseKML(data []byte) ([]Row, error) {
	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var rows []Row
	doc.walk(func(pm kmlPlacemark) {
		if pm.Point == nil {
			return
		}
		pts := parseTuples(pm.Point.Coordinates)
		var g orb.Geometry
		switch len(pts) {
		case 0:
			return
		case 1:
			g = pts[0]
		default:
			g = orb.MultiPoint(pts)
		}
		props := map[string]string{}
		if pm.Name != "" {
			props["name"] = pm.Name
		}
		if d := strings.TrimSpace(pm.Description); d != "" {
			props["description"] = d
		}
		rows = append(rows, Row{
			ID:    int64(len(rows) + 1),
			Data:  []byte(wkt.MarshalString(g)),
			Text:  true,
			Props: props,
		})
	})
	if len(rows) == 0 {
		return nil, errors.New("kml: no points found")
	}
	return rows, nil
}

func parseTuples(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
